package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/R-van-Bakel/Multi-Summaries/pkg/config"
	"github.com/R-van-Bakel/Multi-Summaries/pkg/logging"
	"github.com/R-van-Bakel/Multi-Summaries/pkg/pprof"
	"github.com/R-van-Bakel/Multi-Summaries/pkg/telemetry"
)

var (
	// Global flags
	verbose    bool
	configPath string
	logger     logging.Logger
	cfg        *config.Config

	// Pprof flags
	pprofEnabled     bool
	pprofMode        string
	pprofDir         string
	pprofProfiles    string
	pprofInterval    string
	pprofCPUDuration string
	pprofCPURate     int
	pprofAddr        string

	// Pprof collector
	pprofCollector *pprof.Collector

	// Telemetry shutdown, captured so PersistentPostRunE can drain it
	telemetryShutdown telemetry.ShutdownFunc
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "multi-summaries",
	Short: "Assembles and queries condensed multi-level bisimulation summary graphs",
	Long: `multi-summaries turns the per-level partition files a forward
k-bisimulation solver produces into a single condensed multi-summary
graph: one vertex per distinct block across every refinement level,
each carrying the [birth, death] level interval it was alive for, plus
the data edges and implicit refines forest that connect them.

It also extracts a plain quotient graph at any level, or at the
bisimulation's fixed point, from an already-assembled condensed graph.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := logging.LevelInfo
		if verbose {
			logLevel = logging.LevelDebug
		}
		logger = logging.NewDefaultLogger(logLevel, os.Stdout)
		logging.SetGlobalLogger(logger)

		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded

		shutdown, err := telemetry.Init(context.Background())
		if err != nil {
			logger.Warn("telemetry disabled: %v", err)
			shutdown = func(context.Context) error { return nil }
		}
		telemetryShutdown = shutdown

		if pprofEnabled {
			pcfg, err := buildPprofConfig()
			if err != nil {
				return err
			}

			collector, err := pprof.NewCollector(pcfg)
			if err != nil {
				return err
			}

			if err := collector.Start(); err != nil {
				return err
			}

			pprofCollector = collector
			logger.Info("pprof collection started (mode: %s, dir: %s)", pcfg.Mode, pcfg.OutputDir)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if pprofCollector != nil {
			logger.Info("Stopping pprof collection...")
			if err := pprofCollector.Stop(); err != nil {
				logger.Warn("Failed to stop pprof collector: %v", err)
			}
			logger.Info("pprof data saved to: %s", pprofCollector.Writer().GetOutputDir())
		}
		if telemetryShutdown != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := telemetryShutdown(ctx); err != nil {
				logger.Warn("telemetry shutdown error: %v", err)
			}
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (defaults to ./config.yaml, ./configs/config.yaml, or /etc/multi-summaries/config.yaml)")

	// Pprof flags
	rootCmd.PersistentFlags().BoolVar(&pprofEnabled, "pprof", false, "Enable pprof performance profiling")
	rootCmd.PersistentFlags().StringVar(&pprofMode, "pprof-mode", "file", "Pprof mode: file (periodic snapshots) or http (on-demand)")
	rootCmd.PersistentFlags().StringVar(&pprofDir, "pprof-dir", "./pprof", "Output directory for pprof data")
	rootCmd.PersistentFlags().StringVar(&pprofProfiles, "pprof-profiles", "cpu,heap,goroutine", "Comma-separated profile types: cpu,heap,goroutine,block,mutex,allocs")
	rootCmd.PersistentFlags().StringVar(&pprofInterval, "pprof-interval", "30s", "Snapshot interval for file mode")
	rootCmd.PersistentFlags().StringVar(&pprofCPUDuration, "pprof-cpu-duration", "10s", "CPU profile duration per snapshot")
	rootCmd.PersistentFlags().IntVar(&pprofCPURate, "pprof-cpu-rate", 100, "CPU profiling rate in Hz")
	rootCmd.PersistentFlags().StringVar(&pprofAddr, "pprof-addr", ":6060", "HTTP listen address for http mode")

	// Set dynamic example using actual binary name
	binName := BinName()
	rootCmd.Example = `  # Assemble the condensed summary graph for one experiment
  ` + binName + ` condense --dir ./experiments/run-001

  # Extract the quotient graph at level 3
  ` + binName + ` quotient --dir ./experiments/run-001 --level 3

  # Extract the quotient graph at the bisimulation's fixed point
  ` + binName + ` quotient --dir ./experiments/run-001 --fixed-point

  # Assemble every experiment directory under a root, 8 at a time
  ` + binName + ` batch --root ./experiments --workers 8

  # Enable pprof profiling during assembly
  ` + binName + ` condense --dir ./experiments/run-001 --pprof --pprof-profiles cpu,heap`
}

// GetLogger returns the configured logger
func GetLogger() logging.Logger {
	return logger
}

// GetConfig returns the loaded configuration.
func GetConfig() *config.Config {
	return cfg
}

// BinName returns the base name of the current executable
func BinName() string {
	return filepath.Base(os.Args[0])
}

// buildPprofConfig builds pprof configuration from command line flags.
func buildPprofConfig() (*pprof.Config, error) {
	pcfg := pprof.DefaultConfig()
	pcfg.Enabled = true
	pcfg.OutputDir = pprofDir

	switch pprofMode {
	case "file":
		pcfg.Mode = pprof.ModeFile
	case "http":
		pcfg.Mode = pprof.ModeHTTP
	default:
		return nil, fmt.Errorf("invalid pprof mode: %q (valid: file, http)", pprofMode)
	}

	profiles, err := pprof.ParseProfileTypes(pprofProfiles)
	if err != nil {
		return nil, err
	}
	pcfg.Profiles = profiles

	interval, err := time.ParseDuration(pprofInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid pprof interval: %w", err)
	}
	pcfg.FileConfig.Interval = interval

	cpuDuration, err := time.ParseDuration(pprofCPUDuration)
	if err != nil {
		return nil, fmt.Errorf("invalid pprof CPU duration: %w", err)
	}
	pcfg.FileConfig.CPUDuration = cpuDuration
	pcfg.FileConfig.CPURate = pprofCPURate

	pcfg.HTTPConfig.Addr = pprofAddr

	if err := pcfg.Validate(); err != nil {
		return nil, err
	}

	return pcfg, nil
}
