package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budgetpace/internal/logger"
)

func closePeriodCmd() *cobra.Command {
	var start string
	cmd := &cobra.Command{
		Use:   "close-period <budget-id>",
		Short: "Close one ended period of a budget",
		Long: `Freeze the actuals of the period starting at --start. Closing an
already closed period prints the stored record unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := asOf()
			if err != nil {
				return err
			}
			periodStart, err := parseDay(start)
			if err != nil {
				return err
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			rec, err := a.periods.ClosePeriod(cmd.Context(), args[0], periodStart, day)
			if err != nil {
				return fmt.Errorf("failed to close period: %w", err)
			}
			return printJSON(rec)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "period start YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func closeDueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close-due",
		Short: "Close every ended period of every active budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := asOf()
			if err != nil {
				return err
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.periods.CloseDuePeriods(cmd.Context(), day)
			if err != nil {
				return fmt.Errorf("failed to close due periods: %w", err)
			}
			logger.Get().Infow("close-due finished",
				"as_of", day.Format("2006-01-02"),
				"closed", len(report.Closed),
				"failed", len(report.Failed),
			)
			if err := printJSON(report); err != nil {
				return err
			}
			if len(report.Failed) > 0 {
				return fmt.Errorf("%d period(s) failed to close", len(report.Failed))
			}
			return nil
		},
	}
}
