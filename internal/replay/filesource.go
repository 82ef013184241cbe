package replay

import (
	"os"

	"github.com/R-van-Bakel/Multi-Summaries/internal/codec"
	"github.com/R-van-Bakel/Multi-Summaries/internal/partition"
)

// FileSource implements LevelSource by reading outcome and mapping
// files directly out of an experiment directory, per spec §6's naming
// convention.
type FileSource struct {
	ExperimentDir string
}

// NewFileSource creates a FileSource rooted at experimentDir.
func NewFileSource(experimentDir string) *FileSource {
	return &FileSource{ExperimentDir: experimentDir}
}

func (s *FileSource) Outcome(level codec.Level) ([]partition.OutcomeRecord, error) {
	return partition.ReadOutcome(partition.OutcomePath(s.ExperimentDir, level))
}

func (s *FileSource) Mapping(level codec.Level) ([]partition.MappingRecord, error) {
	return partition.ReadMapping(partition.MappingPath(s.ExperimentDir, level-1, level))
}

func (s *FileSource) HasLevelZero() bool {
	_, err := os.Stat(partition.OutcomePath(s.ExperimentDir, 0))
	return err == nil
}
