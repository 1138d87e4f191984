package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// BackupRunner uploads database copies to remote storage
type BackupRunner interface {
	BackupAll(ctx context.Context) error
}

// BackupJob runs the daily database backup
type BackupJob struct {
	service BackupRunner
	log     zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(service BackupRunner, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		service: service,
		log:     log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run uploads a copy of every database
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	return j.service.BackupAll(ctx)
}
