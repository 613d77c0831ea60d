package backend

import (
	"context"
	"fmt"

	"fintrack/internal/log"
	"fintrack/internal/records/memory"
	"fintrack/internal/records/sheets"
	"fintrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Nop()
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("using SQLite backend", log.FieldBackend, SQLiteBackend, "db_path", config.SQLiteDBPath)

	return &Result{
		Backend: repo,
		Cleanup: func() error {
			f.logger.Info("closing SQLite repository")
			return repo.Close()
		},
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*Result, error) {
	client, err := sheets.New(ctx, sheets.Options{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		TransactionsSheet:  config.GoogleTransactionsSheet,
		BudgetsSheet:       config.GoogleBudgetsSheet,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		ServiceAccountFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("using Google Sheets backend", log.FieldBackend, SheetsBackend, "spreadsheet_id", config.GoogleSpreadsheetID)

	return &Result{
		Backend: client,
		Cleanup: func() error { return nil },
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*Result, error) {
	var store *memory.Store
	if config.SeedDir == "" {
		store = memory.New()
	} else {
		var err error
		store, err = memory.NewFromFiles(config.SeedDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load memory seed data: %w", err)
		}
	}

	txs, budgets := store.Len()
	f.logger.Info("using memory backend", log.FieldBackend, MemoryBackend, "transactions", txs, "budgets", budgets)

	return &Result{
		Backend: store,
		Cleanup: func() error { return nil },
	}, nil
}
