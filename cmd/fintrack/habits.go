package main

import (
	"fmt"
	"time"

	"fintrack/internal/cli"

	"github.com/spf13/cobra"
)

var habitsCmd = &cobra.Command{
	Use:   "habits",
	Short: "Categories spent in repeatedly this month",
	RunE:  runHabits,
}

func init() {
	rootCmd.AddCommand(habitsCmd)
}

func runHabits(cmd *cobra.Command, _ []string) error {
	user, err := currentUser()
	if err != nil {
		return err
	}
	entries, err := app.engine.ComputeRepeatSpending(cmd.Context(), user, time.Now())
	if err != nil {
		return err
	}
	if ok, err := printJSON(entries); ok {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("\n  No repeat spending this month.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.Category,
			fmt.Sprint(e.Count),
			cli.FormatMoney(e.TotalAmount),
			cli.FormatMoney(e.AvgAmount),
			cli.RenderSeverity(e.Severity, e.Label),
		})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Repeat spending",
		Headers: []string{"Category", "Count", "Total", "Average", "Pattern"},
		Rows:    rows,
	}))
	for _, e := range entries {
		fmt.Println(cli.RenderHint("%s: %s", e.Category, e.Message))
	}
	fmt.Println()
	return nil
}
