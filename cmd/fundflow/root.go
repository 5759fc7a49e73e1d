package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/fundflow/internal/config"
	"github.com/aristath/fundflow/internal/database"
	"github.com/aristath/fundflow/internal/events"
	"github.com/aristath/fundflow/internal/modules/archive"
	"github.com/aristath/fundflow/internal/modules/export"
	"github.com/aristath/fundflow/internal/modules/kpi"
	"github.com/aristath/fundflow/internal/modules/plancache"
	"github.com/aristath/fundflow/internal/modules/planner"
	"github.com/aristath/fundflow/internal/modules/runner"
	"github.com/aristath/fundflow/internal/solver"
	"github.com/aristath/fundflow/pkg/logger"
)

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	root := &cobra.Command{
		Use:           "fundflow",
		Short:         "Cash positioning optimiser for multi-bank treasury accounts",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(runCmd(), serveCmd())
	return root.ExecuteContext(ctx)
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("load configuration: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.DevMode})
	logger.SetGlobalLogger(log)
	return cfg, log, nil
}

// app bundles everything both commands need, plus a cleanup hook.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	db      *database.DB
	runs    *runner.RunRepository
	kpiLog  *kpi.Logger
	bus     *events.Bus
	service *runner.Service
	cleanup func()
}

func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	var arch runner.Archiver
	if cfg.ArchiveBucket != "" {
		up, err := archive.New(ctx, archive.Config{
			Bucket:    cfg.ArchiveBucket,
			Prefix:    cfg.ArchivePrefix,
			Region:    cfg.AWSRegion,
			AccessKey: cfg.AWSAccessKey,
			SecretKey: cfg.AWSSecretKey,
		}, log)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("configure plan archive: %w", err)
		}
		arch = up
	}

	runs := runner.NewRunRepository(db)
	kpiLog := kpi.NewLogger(cfg.KPILogPath)
	bus := events.NewBus()
	service := runner.New(runner.Options{
		Params:  cfg.Params,
		Planner: planner.New(solver.Simplex{}, log),
		Export:  export.WriteCSV,
		Cache:   plancache.New(db),
		Runs:    runs,
		KPILog:  kpiLog,
		Archive: arch,
		Bus:     bus,
		Log:     log,
	})

	return &app{
		cfg:     cfg,
		log:     log,
		db:      db,
		runs:    runs,
		kpiLog:  kpiLog,
		bus:     bus,
		service: service,
		cleanup: func() {
			if err := db.Close(); err != nil {
				log.Warn().Err(err).Msg("Database close failed")
			}
		},
	}, nil
}
