package main

import (
	"fmt"
	"strings"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/core"

	"github.com/spf13/cobra"
)

var txFlags struct {
	typ         string
	category    string
	amount      string
	date        string
	description string
	receiptURL  string
}

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Record transactions",
}

var txAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an income or expense",
	RunE:  runTxAdd,
}

func init() {
	f := txAddCmd.Flags()
	f.StringVarP(&txFlags.typ, "type", "t", "expense", "income or expense")
	f.StringVarP(&txFlags.category, "category", "c", "", "Category")
	f.StringVarP(&txFlags.amount, "amount", "a", "", "Positive amount, e.g. 12.50")
	f.StringVar(&txFlags.date, "date", "", "Date as YYYY-MM-DD (default: today)")
	f.StringVarP(&txFlags.description, "description", "d", "", "Optional description")
	f.StringVar(&txFlags.receiptURL, "receipt-url", "", "Optional receipt image location")
	_ = txAddCmd.MarkFlagRequired("category")
	_ = txAddCmd.MarkFlagRequired("amount")

	txCmd.AddCommand(txAddCmd)
	rootCmd.AddCommand(txCmd)
}

func runTxAdd(cmd *cobra.Command, _ []string) error {
	user, err := currentUser()
	if err != nil {
		return err
	}
	typ, err := core.ParseTxType(txFlags.typ)
	if err != nil {
		return &core.ValidationError{Field: "type", Err: err}
	}
	amount, err := core.ParseAmount(txFlags.amount)
	if err != nil {
		return &core.ValidationError{Field: "amount", Err: err}
	}
	date := time.Now()
	if s := strings.TrimSpace(txFlags.date); s != "" {
		date, err = time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return &core.ValidationError{Field: "date", Err: core.ErrInvalidDate}
		}
	}

	saved, err := app.engine.AddTransaction(cmd.Context(), core.TransactionRecord{
		UserID:      user,
		Type:        typ,
		Amount:      amount,
		Category:    txFlags.category,
		Description: txFlags.description,
		Date:        date,
		ReceiptURL:  strings.TrimSpace(txFlags.receiptURL),
	})
	if err != nil {
		return err
	}
	if ok, err := printJSON(saved); ok {
		return err
	}
	fmt.Printf("\n  Added %s %s in %s on %s\n\n", saved.Type, cli.FormatMoney(saved.Amount), saved.Category, saved.Date.Format("2006-01-02"))
	return nil
}
