package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/vigil/internal/database"
)

// CheckpointJob verifies integrity and checkpoints the WAL of every database.
// Runs hourly so the WAL files never grow unbounded between restarts.
type CheckpointJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewCheckpointJob creates a new checkpoint job
func NewCheckpointJob(databases []*database.DB, log zerolog.Logger) *CheckpointJob {
	return &CheckpointJob{
		databases: databases,
		log:       log.With().Str("job", "checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *CheckpointJob) Name() string {
	return "checkpoint"
}

// Run checks and checkpoints each database. Corruption is critical and
// fails the job; a checkpoint that cannot run only logs a warning.
func (j *CheckpointJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, db := range j.databases {
		if db == nil {
			continue
		}

		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("Database integrity check failed")
			return fmt.Errorf("database %s failed health check: %w", db.Name(), err)
		}

		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
			continue
		}

		j.log.Debug().Str("database", db.Name()).Msg("Database checkpointed")
	}

	return nil
}
