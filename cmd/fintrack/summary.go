package main

import (
	"fmt"
	"time"

	"fintrack/internal/cli"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Totals over all recorded transactions",
}

func init() {
	summaryCmd.AddCommand(
		&cobra.Command{Use: "monthly", Short: "Totals by month and type", RunE: runSummaryMonthly},
		&cobra.Command{Use: "category", Short: "Expense totals by category", RunE: runSummaryCategory},
		&cobra.Command{Use: "income-expense", Short: "Income and expense totals", RunE: runSummaryIncomeExpense},
		&cobra.Command{Use: "month", Short: "This month's spend against its budget", RunE: runSummaryMonth},
	)
	rootCmd.AddCommand(summaryCmd)
}

func runSummaryMonthly(cmd *cobra.Command, _ []string) error {
	user, err := currentUser()
	if err != nil {
		return err
	}
	rows, err := app.engine.MonthlySummary(cmd.Context(), user)
	if err != nil {
		return err
	}
	if ok, err := printJSON(rows); ok {
		return err
	}
	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{fmt.Sprintf("%04d-%02d", r.Year, r.Month), string(r.Type), cli.FormatMoney(r.Total)})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{Title: "Monthly totals", Headers: []string{"Month", "Type", "Total"}, Rows: table}))
	fmt.Println()
	return nil
}

func runSummaryCategory(cmd *cobra.Command, _ []string) error {
	user, err := currentUser()
	if err != nil {
		return err
	}
	rows, err := app.engine.CategorySummary(cmd.Context(), user)
	if err != nil {
		return err
	}
	if ok, err := printJSON(rows); ok {
		return err
	}
	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{r.Category, cli.FormatMoney(r.Total)})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{Title: "Expenses by category", Headers: []string{"Category", "Total"}, Rows: table}))
	fmt.Println()
	return nil
}

func runSummaryIncomeExpense(cmd *cobra.Command, _ []string) error {
	user, err := currentUser()
	if err != nil {
		return err
	}
	rows, err := app.engine.IncomeExpenseSummary(cmd.Context(), user)
	if err != nil {
		return err
	}
	if ok, err := printJSON(rows); ok {
		return err
	}
	table := make([][]string, 0, len(rows))
	for _, r := range rows {
		table = append(table, []string{string(r.Type), cli.FormatMoney(r.Total)})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{Title: "Income and expenses", Headers: []string{"Type", "Total"}, Rows: table}))
	fmt.Println()
	return nil
}

func runSummaryMonth(cmd *cobra.Command, _ []string) error {
	user, err := currentUser()
	if err != nil {
		return err
	}
	s, err := app.engine.MonthSpend(cmd.Context(), user, time.Now())
	if err != nil {
		return err
	}
	if ok, err := printJSON(s); ok {
		return err
	}
	fmt.Println()
	fmt.Printf("  %s  spent %s of %s\n", s.Month, cli.FormatMoney(s.Spent), cli.FormatMoney(s.Budget))
	fmt.Printf("  %s %s\n\n", cli.RenderUsageBar(s.PercentUsed, 30), cli.FormatPercent(s.PercentUsed))
	return nil
}
