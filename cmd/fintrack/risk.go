package main

import (
	"fmt"
	"time"

	"fintrack/internal/cli"

	"github.com/spf13/cobra"
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Month-to-date financial risk score",
	RunE:  runRisk,
}

func init() {
	rootCmd.AddCommand(riskCmd)
}

func runRisk(cmd *cobra.Command, _ []string) error {
	user, err := currentUser()
	if err != nil {
		return err
	}
	a, err := app.engine.ComputeRiskAssessment(cmd.Context(), user, time.Now())
	if err != nil {
		return err
	}
	if ok, err := printJSON(a); ok {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("RISK  %d / 100  %s", a.Score, a.Level)))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Signal", "Points"},
		Rows: [][]string{
			{"Budget usage", fmt.Sprint(a.Signals.BudgetUsage)},
			{"Repeat spending", fmt.Sprint(a.Signals.RepeatSpending)},
			{"Velocity", fmt.Sprint(a.Signals.Velocity)},
			{"---"},
			{"Level", cli.RenderRiskLevel(a.Level)},
		},
	}))
	fmt.Println()
	return nil
}
