package main

import (
	"github.com/spf13/cobra"

	"github.com/aristath/fundflow/internal/modules/runner"
)

func runCmd() *cobra.Command {
	var paths runner.Paths

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one planning run and write the transfer plan CSV",
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

			res, err := a.service.Run(cmd.Context(), paths)
			if err != nil {
				return err
			}
			if !res.Plan.Optimal() {
				// Not an error: infeasible or unbounded inputs mean "no
				// recommendation this period".
				log.Warn().
					Str("status", string(res.Plan.Status)).
					Msg("No transfer plan produced")
				return nil
			}
			log.Info().
				Str("run_id", res.RunID).
				Int("transfers", len(res.Plan.Transfers)).
				Float64("total_fee", res.Plan.TotalFee).
				Str("out", res.OutPath).
				Msg("Transfer plan written")
			return nil
		},
	}

	cmd.Flags().StringVar(&paths.Master, "master", "master.csv", "bank master table")
	cmd.Flags().StringVar(&paths.FeeTable, "fees", "fee_table.csv", "fee table")
	cmd.Flags().StringVar(&paths.Balance, "balance", "balance.csv", "opening balance snapshot")
	cmd.Flags().StringVar(&paths.Cashflow, "cash", "cashflow.csv", "cashflow history")
	cmd.Flags().StringVar(&paths.Out, "out", "transfer_plan.csv", "output plan path")
	return cmd
}
