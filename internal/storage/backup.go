package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/passbook-dev/passbook/internal/model"
	"github.com/shopspring/decimal"
)

// Backup replaces a log's archived snapshot with the given records. The
// whole snapshot lands in one transaction, keyed by ledger position, so
// Fetch reproduces the log's rows and order exactly even when a hand-edited
// ledger repeats a fingerprint. An empty slice archives an empty log.
func (s *SQLiteStore) Backup(ctx context.Context, logType model.LogType, txns []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(txns); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshots WHERE log_type = ?", string(logType)); err != nil {
		return fmt.Errorf("failed to drop previous %s snapshot: %w", logType, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshots
			(log_type, fingerprint, seq, date, description, debit, credit, category, remarks, account)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range txns {
		txn := &txns[i]
		if _, err := stmt.ExecContext(ctx,
			string(logType),
			txn.Fingerprint,
			i,
			txn.Date.Format(model.LedgerDateLayout),
			txn.Description,
			txn.Debit.StringFixed(2),
			txn.Credit.StringFixed(2),
			txn.Category,
			txn.Remarks,
			txn.Account,
		); err != nil {
			return fmt.Errorf("failed to archive record %d (%s): %w", i, txn.Description, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s snapshot: %w", logType, err)
	}
	return nil
}

// Fetch returns a log's archived records in their snapshot order.
func (s *SQLiteStore) Fetch(ctx context.Context, logType model.LogType) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint, date, description, debit, credit, category, remarks, account
		FROM snapshots
		WHERE log_type = ?
		ORDER BY seq`, string(logType))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s snapshot: %w", logType, err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		var (
			txn           model.Transaction
			date          string
			debit, credit string
		)
		if err := rows.Scan(&txn.Fingerprint, &date, &txn.Description, &debit, &credit,
			&txn.Category, &txn.Remarks, &txn.Account); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		if txn.Date, err = time.Parse(model.LedgerDateLayout, date); err != nil {
			return nil, fmt.Errorf("corrupt snapshot date %q: %w", date, err)
		}
		if txn.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, fmt.Errorf("corrupt snapshot debit %q: %w", debit, err)
		}
		if txn.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, fmt.Errorf("corrupt snapshot credit %q: %w", credit, err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s snapshot: %w", logType, err)
	}
	return txns, nil
}
