package main

import (
	"fmt"

	"fintrack/internal/cli"
	"fintrack/internal/core"

	"github.com/spf13/cobra"
)

var flagMonth string

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Set and inspect monthly category budgets",
}

var budgetSetCmd = &cobra.Command{
	Use:   "set <category> <limit>",
	Short: "Create or replace a category limit for a month",
	Args:  cobra.ExactArgs(2),
	RunE:  runBudgetSet,
}

var budgetStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Spend against every budget of a month",
	RunE:  runBudgetStatus,
}

var budgetTotalCmd = &cobra.Command{
	Use:   "total",
	Short: "Sum of all budget limits for a month",
	RunE:  runBudgetTotal,
}

func init() {
	for _, c := range []*cobra.Command{budgetSetCmd, budgetStatusCmd, budgetTotalCmd} {
		c.Flags().StringVarP(&flagMonth, "month", "m", "", "Month as YYYY-MM (default: current month)")
		budgetCmd.AddCommand(c)
	}
	rootCmd.AddCommand(budgetCmd)
}

func month() string {
	if flagMonth != "" {
		return flagMonth
	}
	return currentMonth()
}

func runBudgetSet(cmd *cobra.Command, args []string) error {
	user, err := currentUser()
	if err != nil {
		return err
	}
	limit, err := core.ParseAmount(args[1])
	if err != nil {
		return &core.ValidationError{Field: "limit", Err: core.ErrInvalidLimit}
	}

	b, err := app.engine.SetBudget(cmd.Context(), user, args[0], month(), limit)
	if err != nil {
		return err
	}
	if ok, err := printJSON(b); ok {
		return err
	}
	fmt.Printf("\n  Budget for %s in %s set to %s\n\n", b.Category, b.Month, cli.FormatMoney(b.Limit))
	return nil
}

func runBudgetStatus(cmd *cobra.Command, _ []string) error {
	user, err := currentUser()
	if err != nil {
		return err
	}
	m := month()
	statuses, err := app.engine.ComputeBudgetStatus(cmd.Context(), user, m)
	if err != nil {
		return err
	}
	if ok, err := printJSON(statuses); ok {
		return err
	}
	if len(statuses) == 0 {
		fmt.Printf("\n  No budgets for %s.\n\n", m)
		return nil
	}

	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		rows = append(rows, []string{
			s.Category,
			cli.FormatMoney(s.Spent),
			cli.FormatMoney(s.Limit),
			cli.FormatPercent(s.PercentUsed),
			cli.RenderUsageBar(s.PercentUsed, 12),
			cli.RenderBudgetState(s.Status),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("BUDGETS  " + m))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Category", "Spent", "Limit", "Used", "", "Status"},
		Rows:    rows,
	}))
	if hint, ok := app.engine.NextAction(statuses); ok {
		fmt.Println()
		fmt.Println(cli.RenderHint("Next action: %s", hint))
	}
	fmt.Println()
	return nil
}

func runBudgetTotal(cmd *cobra.Command, _ []string) error {
	user, err := currentUser()
	if err != nil {
		return err
	}
	m := month()
	total, err := app.engine.TotalBudget(cmd.Context(), user, m)
	if err != nil {
		return err
	}
	if ok, err := printJSON(map[string]any{"month": m, "total": total}); ok {
		return err
	}
	fmt.Printf("\n  Total budget for %s: %s\n\n", m, cli.FormatMoney(total))
	return nil
}
