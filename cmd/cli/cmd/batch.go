package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/R-van-Bakel/Multi-Summaries/internal/assembler"
	"github.com/R-van-Bakel/Multi-Summaries/pkg/parallel"
)

var (
	batchRoot    string
	batchWorkers int
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Condense every experiment directory under a root directory",
	Long: `Runs "condense" once per immediate subdirectory of --root, fanning
the work out across a worker pool instead of one experiment at a time.
Each experiment is assembled independently (the partition-replay engine
and fold store it keeps are not shared across runs), so a slow or
failing experiment never blocks the others.`,
	Example: `  multi-summaries batch --root ./experiments --workers 8`,
	RunE:    runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringVar(&batchRoot, "root", "", "Root directory whose immediate subdirectories are experiment directories (required)")
	batchCmd.MarkFlagRequired("root")
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "Worker pool size (defaults to the configured batch.worker_count)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	entries, err := os.ReadDir(batchRoot)
	if err != nil {
		return fmt.Errorf("failed to list experiment root: %w", err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(batchRoot, e.Name()))
		}
	}
	if len(dirs) == 0 {
		log.Warn("no experiment subdirectories found under %s", batchRoot)
		return nil
	}

	workers := batchWorkers
	if workers <= 0 {
		workers = GetConfig().Batch.WorkerCount
	}
	log.Info("=== Multi-Summary Batch Condense ===")
	log.Info("Experiment root: %s", batchRoot)
	log.Info("Experiments:     %d", len(dirs))
	log.Info("Workers:         %d", workers)

	pool := parallel.NewWorkerPool[string, *assembler.Result](parallel.DefaultPoolConfig().WithWorkers(workers))
	results := pool.ExecuteFunc(context.Background(), dirs, func(ctx context.Context, dir string) (*assembler.Result, error) {
		return assembler.Run(ctx, assembler.Config{ExperimentDir: dir, Logger: log})
	})

	var failures int
	for i, r := range results {
		if r.Error != nil {
			failures++
			log.Error("condense failed for %s: %v", dirs[i], r.Error)
			continue
		}
		log.Info("condensed %s: %d vertices, %d data edges (%dms)", dirs[i], r.Result.VertexCount, r.Result.DataEdgeCount, r.Duration.Milliseconds())
	}

	log.Info("")
	log.Info("=== Batch Complete ===")
	log.Info("Succeeded: %d", len(dirs)-failures)
	log.Info("Failed:    %d", failures)

	if failures > 0 {
		return fmt.Errorf("%d of %d experiments failed to condense", failures, len(dirs))
	}
	return nil
}
