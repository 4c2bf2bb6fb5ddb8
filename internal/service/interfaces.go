// Package service defines the interfaces for all application collaborators.
package service

import (
	"context"
	"time"

	"github.com/passbook-dev/passbook/internal/model"
)

// DataSource is the contract for wherever statements and transaction logs
// live. Implementations return raw cell rows; decoding them into records is
// the pipeline's job. All calls honor the passed context's deadline.
type DataSource interface {
	// ListStatementFiles enumerates every raw statement the source holds.
	ListStatementFiles(ctx context.Context) ([]model.StatementFile, error)

	// GetStatementData returns a statement's raw rows, untrimmed, including
	// any preamble above the header row.
	GetStatementData(ctx context.Context, file model.StatementFile) ([][]string, error)

	// GetStatementBytes returns a statement's raw contents for formats that
	// are not cell-based (OFX/QFX).
	GetStatementBytes(ctx context.Context, file model.StatementFile) ([]byte, error)

	// GetTransactionLogData returns a log's rows: the fixed header followed
	// by data rows.
	GetTransactionLogData(ctx context.Context, logType model.LogType) ([][]string, error)

	// AppendTransactionsToLog adds data rows at the end of a log.
	AppendTransactionsToLog(ctx context.Context, logType model.LogType, rows [][]string) error

	// ClearTransactionLog removes every data row but keeps the header.
	ClearTransactionLog(ctx context.Context, logType model.LogType) error

	// WriteTransactionsToLog replaces a log's data rows, keeping the header.
	WriteTransactionsToLog(ctx context.Context, logType model.LogType, rows [][]string) error
}

// BackupStore archives ledger snapshots so a wrecked log can be rebuilt.
type BackupStore interface {
	// Backup snapshots a log's records, replacing that log's previous
	// snapshot entirely.
	Backup(ctx context.Context, logType model.LogType, txns []model.Transaction) error

	// Fetch returns a log's archived records in their snapshot order.
	Fetch(ctx context.Context, logType model.LogType) ([]model.Transaction, error)

	Close() error
}

// ProgressReporter renders the progress of a long operation for the user.
// Implementations must tolerate Increment and Finish without a prior Start.
type ProgressReporter interface {
	Start(total int, description string)
	Increment()
	Finish()
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
