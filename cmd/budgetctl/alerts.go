package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func generateAlertsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-alerts <budget-id>",
		Short: "Evaluate alert rules for a budget and store new alerts",
		Args:  cobra.ExactArgs(1),
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

			alerts, err := a.alerts.GenerateAlerts(cmd.Context(), "", args[0], day)
			if err != nil {
				return fmt.Errorf("failed to generate alerts: %w", err)
			}
			return printJSON(map[string]interface{}{
				"alerts":  alerts,
				"created": len(alerts),
			})
		},
	}
}
