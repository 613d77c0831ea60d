package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/services"

	"github.com/spf13/cobra"
)

var (
	flagUser string
	flagJSON bool
)

// app is opened once per invocation by the root pre-run hook.
var app struct {
	cfg     *config.Config
	scoring config.Scoring
	logger  *log.Logger
	backend *backend.Result
	engine  *services.Engine
}

var rootCmd = &cobra.Command{
	Use:          "fintrack",
	Short:        "Personal finance analytics",
	Long:         "Track budgets, spot repeat spending, score monthly risk and read receipts.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return openApp(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User id (defaults to DEFAULT_USER)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print results as JSON")
}

func openApp(ctx context.Context) error {
	cli.LoadEnvFile()

	cfg, scoring, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentCLI, os.Stderr)

	res, err := cli.InitBackend(ctx, logger, cfg)
	if err != nil {
		return fmt.Errorf("open %s backend: %w", cfg.DataBackend, err)
	}

	app.cfg = cfg
	app.scoring = scoring
	app.logger = logger
	app.backend = res
	app.engine = cli.NewEngine(res.Backend, scoring, logger)
	return nil
}

func closeApp() {
	if app.backend == nil || app.backend.Cleanup == nil {
		return
	}
	if err := app.backend.Cleanup(); err != nil {
		fmt.Fprintf(os.Stderr, "cleanup: %v\n", err)
	}
}

func currentUser() (string, error) {
	u := strings.TrimSpace(flagUser)
	if u == "" && app.cfg != nil {
		u = strings.TrimSpace(app.cfg.DefaultUser)
	}
	if u == "" {
		return "", errors.New("no user given: pass --user or set DEFAULT_USER")
	}
	return u, nil
}

func currentMonth() string {
	return core.MonthOf(time.Now()).String()
}

// printJSON writes v indented when --json is set and reports whether it did.
func printJSON(v any) (bool, error) {
	if !flagJSON {
		return false, nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return true, enc.Encode(v)
}
