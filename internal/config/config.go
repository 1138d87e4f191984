// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir     string // Base directory for all databases (always absolute)
	Port        int
	Host        string
	LogLevel    string
	LogPretty   bool
	DevMode     bool
	CORSOrigins string // Comma-separated list of allowed origins
	Scheduler   *SchedulerConfig
	Backup      *BackupConfig
}

// SchedulerConfig holds background job configuration
type SchedulerConfig struct {
	Enabled            bool
	SnapshotSchedule   string // cron spec (with seconds) for the daily portfolio snapshot
	CheckpointSchedule string // cron spec for WAL checkpoint maintenance
	BackupSchedule     string // cron spec for database backups
}

// BackupConfig holds S3 backup configuration.
// Backups are disabled unless a bucket is configured.
type BackupConfig struct {
	Enabled   bool
	Bucket    string
	Region    string
	Endpoint  string // Optional, for S3-compatible storage (MinIO etc.)
	AccessKey string
	SecretKey string
	Prefix    string // Key prefix inside the bucket
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic
	// 1. Check VIGIL_DATA_DIR environment variable
	// 2. If not set, default to ./data
	// 3. Always resolve to absolute path
	// 4. Ensure directory exists
	dataDir := getEnv("VIGIL_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:     absDataDir,
		Port:        getEnvAsInt("VIGIL_PORT", 8080),
		Host:        getEnv("VIGIL_HOST", "0.0.0.0"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogPretty:   getEnvAsBool("LOG_PRETTY", false),
		DevMode:     getEnvAsBool("DEV_MODE", false),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		Scheduler:   loadSchedulerConfig(),
		Backup:      loadBackupConfig(),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if c.Backup.Enabled && c.Backup.Bucket == "" {
		return fmt.Errorf("backup enabled but BACKUP_S3_BUCKET is not set")
	}

	return nil
}

// MarketDBPath returns the path of the market data database
func (c *Config) MarketDBPath() string {
	return filepath.Join(c.DataDir, "market.db")
}

// LedgerDBPath returns the path of the portfolio ledger database
func (c *Config) LedgerDBPath() string {
	return filepath.Join(c.DataDir, "ledger.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// loadSchedulerConfig loads background job configuration
func loadSchedulerConfig() *SchedulerConfig {
	return &SchedulerConfig{
		Enabled: getEnvAsBool("SCHEDULER_ENABLED", true),
		// Snapshot shortly after midnight so the row lands on the new day
		SnapshotSchedule:   getEnv("SNAPSHOT_SCHEDULE", "0 5 0 * * *"),
		CheckpointSchedule: getEnv("CHECKPOINT_SCHEDULE", "0 0 * * * *"),
		BackupSchedule:     getEnv("BACKUP_SCHEDULE", "0 30 2 * * *"),
	}
}

// loadBackupConfig loads S3 backup configuration
func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Enabled:   getEnvAsBool("BACKUP_ENABLED", false),
		Bucket:    getEnv("BACKUP_S3_BUCKET", ""),
		Region:    getEnv("BACKUP_S3_REGION", "us-east-1"),
		Endpoint:  getEnv("BACKUP_S3_ENDPOINT", ""),
		AccessKey: getEnv("BACKUP_S3_ACCESS_KEY", ""),
		SecretKey: getEnv("BACKUP_S3_SECRET_KEY", ""),
		Prefix:    getEnv("BACKUP_S3_PREFIX", "vigil"),
	}
}
