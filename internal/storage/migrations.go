package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the archive cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents an archive schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial snapshot schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS snapshots (
					log_type TEXT NOT NULL,
					fingerprint TEXT NOT NULL,
					seq INTEGER NOT NULL,
					date TEXT NOT NULL,
					description TEXT NOT NULL,
					debit TEXT NOT NULL,
					credit TEXT NOT NULL,
					category TEXT NOT NULL DEFAULT '',
					remarks TEXT NOT NULL DEFAULT '',
					account TEXT NOT NULL DEFAULT '',
					archived_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (log_type, fingerprint)
				)`,
				`CREATE INDEX idx_snapshots_date ON snapshots(log_type, date)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Index snapshot sequence for ordered restores",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_snapshots_seq ON snapshots(log_type, seq)`)
			return err
		},
	},
	{
		Version:     3,
		Description: "Key snapshots by position so ledgers with repeated fingerprints round-trip",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE snapshots_new (
					log_type TEXT NOT NULL,
					fingerprint TEXT NOT NULL,
					seq INTEGER NOT NULL,
					date TEXT NOT NULL,
					description TEXT NOT NULL,
					debit TEXT NOT NULL,
					credit TEXT NOT NULL,
					category TEXT NOT NULL DEFAULT '',
					remarks TEXT NOT NULL DEFAULT '',
					account TEXT NOT NULL DEFAULT '',
					archived_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (log_type, seq)
				)`,
				`INSERT INTO snapshots_new
					(log_type, fingerprint, seq, date, description, debit, credit, category, remarks, account, archived_at)
				SELECT log_type, fingerprint, seq, date, description, debit, credit, category, remarks, account, archived_at
				FROM snapshots`,
				`DROP TABLE snapshots`,
				`ALTER TABLE snapshots_new RENAME TO snapshots`,
				`CREATE INDEX idx_snapshots_date ON snapshots(log_type, date)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending archive migrations.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("applied archive migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("archive schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
