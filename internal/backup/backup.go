// Package backup copies the SQLite databases to S3-compatible storage.
// Each database is snapshotted with VACUUM INTO so the upload sees a
// consistent single-file copy while writers keep going.
package backup

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/aristath/vigil/internal/config"
	"github.com/aristath/vigil/internal/database"
	"github.com/aristath/vigil/internal/events"
)

// Service uploads database copies to an S3 bucket
type Service struct {
	uploader  *manager.Uploader
	bucket    string
	prefix    string
	databases []*database.DB
	bus       *events.Bus
	log       zerolog.Logger
}

// NewService builds the S3 client and uploader from backup configuration.
// Static credentials are used when both keys are set, otherwise the
// default AWS credential chain applies. A non-empty endpoint switches
// to path-style addressing for S3-compatible services.
func NewService(cfg *config.BackupConfig, databases []*database.DB, bus *events.Bus, log zerolog.Logger) (*Service, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Service{
		uploader:  manager.NewUploader(client),
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		databases: databases,
		bus:       bus,
		log:       log.With().Str("service", "backup").Logger(),
	}, nil
}

// BackupAll copies every registered database and uploads it. Per-database
// failures are logged and counted but do not stop the remaining uploads.
// The returned error summarizes failures so job status reflects them.
func (s *Service) BackupAll(ctx context.Context) error {
	tmpDir, err := os.MkdirTemp("", "vigil-backup-")
	if err != nil {
		return fmt.Errorf("failed to create backup staging directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	date := time.Now().Format("2006-01-02")

	var keys []string
	failed := 0
	for _, db := range s.databases {
		key, err := s.backupOne(ctx, db, tmpDir, date)
		if err != nil {
			failed++
			s.log.Error().Err(err).Str("database", db.Name()).Msg("Database backup failed")
			continue
		}
		keys = append(keys, key)
	}

	s.log.Info().
		Int("uploaded", len(keys)).
		Int("failed", failed).
		Str("bucket", s.bucket).
		Msg("Backup run completed")

	if s.bus != nil {
		s.bus.PublishData("backup", &events.BackupCompletedData{
			Databases: len(keys),
			Keys:      keys,
			Failed:    failed > 0,
		})
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d database backups failed", failed, len(s.databases))
	}
	return nil
}

func (s *Service) backupOne(ctx context.Context, db *database.DB, tmpDir, date string) (string, error) {
	filename := fmt.Sprintf("%s-%s.db", db.Name(), date)
	staged := filepath.Join(tmpDir, filename)

	if err := db.VacuumInto(staged); err != nil {
		return "", err
	}

	file, err := os.Open(staged)
	if err != nil {
		return "", fmt.Errorf("failed to open staged copy: %w", err)
	}
	defer file.Close()

	key := ObjectKey(s.prefix, db.Name(), date)
	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	s.log.Info().
		Str("database", db.Name()).
		Str("key", key).
		Msg("Database uploaded")

	return key, nil
}

// ObjectKey builds the bucket key for one database copy
func ObjectKey(prefix, name, date string) string {
	return path.Join(prefix, fmt.Sprintf("%s-%s.db", name, date))
}
