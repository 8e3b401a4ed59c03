package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"budgetpace/internal/generator"
	"budgetpace/internal/models"
)

func suggestCmd() *cobra.Command {
	var (
		months     int
		strategy   string
		profile    string
		accountIDs []string
	)
	cmd := &cobra.Command{
		Use:   "suggest <user-id>",
		Short: "Suggest a budget from a user's spending history",
		Long: `Analyze the whole months before --date and print suggested category
amounts. Nothing is stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := asOf()
			if err != nil {
				return err
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.close()

			resp, err := a.tracking.GenerateBudget(cmd.Context(), args[0], accountIDs, generator.Request{
				Months:   months,
				Strategy: models.BudgetStrategy(strategy),
				Profile:  generator.Profile(profile),
				AsOf:     day,
			})
			if err != nil {
				return fmt.Errorf("failed to suggest budget: %w", err)
			}
			return printJSON(resp)
		},
	}
	cmd.Flags().IntVar(&months, "months", 3, "months of history to analyze (3, 6 or 12)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "budget strategy for the suggestion")
	cmd.Flags().StringVar(&profile, "profile", "", "COMFORTABLE, ON_TRACK or AGGRESSIVE")
	cmd.Flags().StringSliceVar(&accountIDs, "account", nil, "restrict to these account ids (repeatable)")
	return cmd
}
