package scheduler

import (
	"github.com/rs/zerolog"

	"github.com/aristath/vigil/internal/modules/snapshots"
)

// SnapshotCapturer captures a portfolio snapshot
type SnapshotCapturer interface {
	Capture() (*snapshots.Snapshot, error)
}

// SnapshotJob captures the daily portfolio snapshot
type SnapshotJob struct {
	service SnapshotCapturer
	log     zerolog.Logger
}

// NewSnapshotJob creates a new snapshot job
func NewSnapshotJob(service SnapshotCapturer, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		service: service,
		log:     log.With().Str("job", "snapshot").Logger(),
	}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "snapshot"
}

// Run captures one snapshot
func (j *SnapshotJob) Run() error {
	snapshot, err := j.service.Capture()
	if err != nil {
		return err
	}

	j.log.Info().
		Str("snapshot_id", snapshot.ID).
		Float64("total_value", snapshot.TotalValue).
		Bool("partial", snapshot.Partial).
		Msg("Scheduled snapshot captured")

	return nil
}
