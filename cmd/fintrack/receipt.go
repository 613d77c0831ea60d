package main

import (
	"fmt"

	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/services"

	"github.com/spf13/cobra"
)

var flagShowText bool

var receiptCmd = &cobra.Command{
	Use:   "receipt",
	Short: "Read receipt images",
}

var receiptScanCmd = &cobra.Command{
	Use:   "scan <path|gs://bucket/object>",
	Short: "Suggest transaction fields from a receipt image",
	Long:  "Recognizes the receipt text and prints suggested amount, date, merchant and category. Nothing is saved.",
	Args:  cobra.ExactArgs(1),
	RunE:  runReceiptScan,
}

func init() {
	receiptScanCmd.Flags().BoolVar(&flagShowText, "text", false, "Also print the recognized text")
	receiptCmd.AddCommand(receiptScanCmd)
	rootCmd.AddCommand(receiptCmd)
}

func runReceiptScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	scanner, closeFn, err := cli.InitScanner(ctx, app.logger.WithComponent(log.ComponentReceipt), app.cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	engine := cli.NewEngine(app.backend.Backend, app.scoring, app.logger, services.WithScanner(scanner))
	scan, err := engine.ScanReceipt(ctx, args[0])
	if err != nil {
		return err
	}
	if ok, err := printJSON(scan.Extraction); ok {
		return err
	}

	x := scan.Extraction
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "Suggested fields",
		Headers: []string{"Field", "Value"},
		Rows: [][]string{
			{"Amount", cli.FormatOptionalMoney(x.Amount)},
			{"Date", cli.FormatOptional(x.Date)},
			{"Merchant", cli.FormatOptional(x.Merchant)},
			{"Category", x.Category},
		},
	}))
	fmt.Println(cli.RenderHint("Check these values before saving with `fintrack tx add`."))
	if flagShowText {
		fmt.Println()
		fmt.Println(scan.Text)
	}
	fmt.Println()
	return nil
}
