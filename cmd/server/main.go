// Package main is the entry point for the Vigil portfolio tracker.
// It wires the market data store, the account ledger, reporting and
// snapshots behind one HTTP API, with background jobs for snapshots,
// database maintenance and S3 backups.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/vigil/internal/backup"
	"github.com/aristath/vigil/internal/config"
	"github.com/aristath/vigil/internal/database"
	"github.com/aristath/vigil/internal/events"
	"github.com/aristath/vigil/internal/modules/charts"
	chartshandlers "github.com/aristath/vigil/internal/modules/charts/handlers"
	"github.com/aristath/vigil/internal/modules/ledger"
	ledgerhandlers "github.com/aristath/vigil/internal/modules/ledger/handlers"
	"github.com/aristath/vigil/internal/modules/marketdata"
	marketdatahandlers "github.com/aristath/vigil/internal/modules/marketdata/handlers"
	"github.com/aristath/vigil/internal/modules/reports"
	reportshandlers "github.com/aristath/vigil/internal/modules/reports/handlers"
	"github.com/aristath/vigil/internal/modules/snapshots"
	snapshotshandlers "github.com/aristath/vigil/internal/modules/snapshots/handlers"
	"github.com/aristath/vigil/internal/scheduler"
	"github.com/aristath/vigil/internal/server"
	"github.com/aristath/vigil/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Logger is not configured yet
		panic(err)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting Vigil")

	// Open databases
	marketDB, err := database.New(database.Config{
		Path:    cfg.MarketDBPath(),
		Profile: database.ProfileStandard,
		Name:    "market",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open market database")
	}
	defer marketDB.Close()

	ledgerDB, err := database.New(database.Config{
		Path:    cfg.LedgerDBPath(),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	// Apply schemas. Snapshots live in the ledger database so account
	// history and captured valuations back up as one unit.
	if err := marketdata.InitSchema(marketDB.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize market schema")
	}
	if err := ledger.InitSchema(ledgerDB.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize ledger schema")
	}
	if err := snapshots.InitSchema(ledgerDB.Conn()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize snapshots schema")
	}

	// Event bus
	bus := events.NewBus(log)

	// Repositories and services
	marketRepo := marketdata.NewRepository(marketDB.Conn(), log)
	marketService := marketdata.NewService(marketRepo, bus, log)

	ledgerRepo := ledger.NewRepository(ledgerDB.Conn(), log)
	ledgerService := ledger.NewService(ledgerRepo, bus, log)

	reportsService := reports.NewService(ledgerService, marketRepo, log)
	exporter := reports.NewExporter(log)

	chartsService := charts.NewService(marketRepo, log)

	snapshotsRepo := snapshots.NewRepository(ledgerDB.Conn(), log)
	snapshotsService := snapshots.NewService(snapshotsRepo, reportsService, bus, log)

	// Background jobs
	databases := []*database.DB{marketDB, ledgerDB}
	sched := scheduler.New(log)

	jobs := []scheduler.Job{
		scheduler.NewSnapshotJob(snapshotsService, log),
		scheduler.NewCheckpointJob(databases, log),
	}
	schedules := []string{
		cfg.Scheduler.SnapshotSchedule,
		cfg.Scheduler.CheckpointSchedule,
	}

	if cfg.Backup.Enabled {
		backupService, err := backup.NewService(cfg.Backup, databases, bus, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize backup service")
		}
		jobs = append(jobs, scheduler.NewBackupJob(backupService, log))
		schedules = append(schedules, cfg.Scheduler.BackupSchedule)
	}

	if cfg.Scheduler.Enabled {
		for i, job := range jobs {
			if err := sched.AddJob(schedules[i], job); err != nil {
				log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to register job")
			}
		}
		sched.Start()
		defer sched.Stop()
	}

	// HTTP server
	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		MarketDB:  marketDB,
		LedgerDB:  ledgerDB,
		Bus:       bus,
		Scheduler: sched,
		Modules: []server.RouteRegistrar{
			marketdatahandlers.NewHandler(marketService, marketRepo, log),
			ledgerhandlers.NewHandler(ledgerService, log),
			reportshandlers.NewHandler(reportsService, exporter, log),
			chartshandlers.NewHandler(chartsService, log),
			snapshotshandlers.NewHandler(snapshotsService, log),
		},
	})

	// Manual triggers under /api/system/jobs
	for _, job := range jobs {
		srv.RegisterJob(job)
	}

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Graceful shutdown: drain HTTP first so nothing writes during checkpoint
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	for _, db := range databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			log.Warn().Err(err).Str("database", db.Name()).Msg("Final WAL checkpoint failed")
		}
	}

	log.Info().Msg("Server stopped")
}
