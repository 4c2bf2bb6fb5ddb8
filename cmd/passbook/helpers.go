package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/passbook-dev/passbook/internal/config"
	"github.com/passbook-dev/passbook/internal/localfs"
	"github.com/passbook-dev/passbook/internal/matcher"
	"github.com/passbook-dev/passbook/internal/pipeline"
	"github.com/passbook-dev/passbook/internal/service"
	"github.com/passbook-dev/passbook/internal/sheets"
	"github.com/passbook-dev/passbook/internal/storage"
)

// initEngine loads the rule file and compiles the matcher.
func initEngine(settings *config.Settings) (*matcher.Engine, error) {
	rules, err := matcher.LoadRules(settings.RulesPath)
	if err != nil {
		return nil, err
	}
	return matcher.NewEngine(rules)
}

// initSource constructs the configured data source.
func initSource(ctx context.Context, settings *config.Settings) (service.DataSource, error) {
	switch settings.SourceType {
	case config.SourceTypeLocal:
		return localfs.NewSource(settings.LocalStatementsDir, settings.LocalLedgerDir, slog.Default())
	default:
		sheetsConfig, err := config.LoadSheetsConfig()
		if err != nil {
			return nil, err
		}
		return sheets.NewSource(ctx, *sheetsConfig, slog.Default())
	}
}

// initPipeline wires the configured source, the parser config registry and
// the matcher into a ready pipeline. Loading the registry up front means a
// broken parser config fails the command before any statement is touched.
func initPipeline(ctx context.Context, settings *config.Settings, engine *matcher.Engine, progress service.ProgressReporter) (*pipeline.Pipeline, error) {
	registry, err := config.LoadRegistry(settings.ConfigsDir)
	if err != nil {
		return nil, err
	}

	source, err := initSource(ctx, settings)
	if err != nil {
		return nil, err
	}

	return pipeline.New(source, registry, engine, pipeline.Options{
		BankAccounts: settings.BankAccounts,
		CCAccounts:   settings.CCAccounts,
		Timeout:      settings.SourceTimeout,
		Progress:     progress,
	}), nil
}

// initBackupStore opens the SQLite archive with migrations applied.
func initBackupStore(ctx context.Context, settings *config.Settings) (*storage.SQLiteStore, error) {
	store, err := storage.NewSQLiteStore(settings.BackupPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		if closeErr := store.Close(); closeErr != nil {
			slog.Warn("failed to close backup store", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}
