package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/fundflow/internal/modules/runner"
	"github.com/aristath/fundflow/internal/scheduler"
	"github.com/aristath/fundflow/internal/server"
)

func serveCmd() *cobra.Command {
	var paths runner.Paths

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, optionally with scheduled planning runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			a, err := buildApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.cleanup()

			if cfg.Schedule != "" {
				sched := scheduler.New(a.service, paths, log)
				if err := sched.Schedule(cfg.Schedule); err != nil {
					return err
				}
				sched.Start()
				defer sched.Stop()
			}

			srv := server.New(server.Config{
				Log:    log,
				Port:   cfg.Port,
				Runner: a.service,
				Runs:   a.runs,
				KPILog: a.kpiLog,
				Bus:    a.bus,
				Paths:  paths,
			})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
				log.Info().Msg("Shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().StringVar(&paths.Master, "master", "master.csv", "bank master table")
	cmd.Flags().StringVar(&paths.FeeTable, "fees", "fee_table.csv", "fee table")
	cmd.Flags().StringVar(&paths.Balance, "balance", "balance.csv", "opening balance snapshot")
	cmd.Flags().StringVar(&paths.Cashflow, "cash", "cashflow.csv", "cashflow history")
	cmd.Flags().StringVar(&paths.Out, "out", "transfer_plan.csv", "output plan path")
	return cmd
}
