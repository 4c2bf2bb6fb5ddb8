// Package localfs implements the filesystem-backed data source: raw
// statement files in one directory, transaction logs as CSV files in
// another. It mirrors the Google source's contract closely enough that the
// pipeline cannot tell them apart.
package localfs

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/passbook-dev/passbook/internal/model"
)

// ledgerRow is the gocsv codec for one transaction log line. All fields stay
// strings; decoding them into records is the parser's job.
type ledgerRow struct {
	Date        string `csv:"Date"`
	Description string `csv:"Description"`
	Debit       string `csv:"Debit"`
	Credit      string `csv:"Credit"`
	Category    string `csv:"Category"`
	Remarks     string `csv:"Remarks"`
	Account     string `csv:"Account"`
}

// Source reads statements and maintains the transaction logs on the local
// filesystem. It implements service.DataSource. Log writes go through a
// temp file and rename, so a crash never leaves a half-written ledger.
type Source struct {
	statementsDir string
	ledgerDir     string
	logger        *slog.Logger
}

// NewSource builds the local data source. The ledger directory is created
// if missing; the statements directory must already exist.
func NewSource(statementsDir, ledgerDir string, logger *slog.Logger) (*Source, error) {
	if statementsDir == "" {
		return nil, fmt.Errorf("statements directory is required")
	}
	if ledgerDir == "" {
		return nil, fmt.Errorf("ledger directory is required")
	}
	if _, err := os.Stat(statementsDir); err != nil {
		return nil, fmt.Errorf("statements directory: %w", err)
	}
	if err := os.MkdirAll(ledgerDir, 0750); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Source{
		statementsDir: statementsDir,
		ledgerDir:     ledgerDir,
		logger:        logger,
	}, nil
}

// ListStatementFiles enumerates statement files in name order.
func (s *Source) ListStatementFiles(ctx context.Context) ([]model.StatementFile, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	entries, err := os.ReadDir(s.statementsDir)
	if err != nil {
		return nil, fmt.Errorf("listing statements directory: %w", err)
	}

	var files []model.StatementFile
	for _, entry := range entries {
		if entry.IsDir() || !isStatementName(entry.Name()) {
			continue
		}
		files = append(files, model.StatementFile{
			ID:   filepath.Join(s.statementsDir, entry.Name()),
			Name: entry.Name(),
		})
	}

	slices.SortFunc(files, func(a, b model.StatementFile) int {
		return strings.Compare(a.Name, b.Name)
	})

	s.logger.Info("listed statement files", "dir", s.statementsDir, "count", len(files))
	return files, nil
}

// GetStatementData reads a CSV statement's raw rows, ragged rows included.
func (s *Source) GetStatementData(ctx context.Context, file model.StatementFile) ([][]string, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}
	if strings.ToLower(filepath.Ext(file.Name)) != ".csv" {
		return nil, fmt.Errorf("statement %s is not row-based; fetch its bytes instead", file.Name)
	}

	f, err := os.Open(file.ID) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("opening statement %s: %w", file.Name, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading statement %s: %w", file.Name, err)
	}

	s.logger.Debug("read statement data", "file", file.Name, "rows", len(rows))
	return rows, nil
}

// GetStatementBytes reads a raw statement file whole.
func (s *Source) GetStatementBytes(ctx context.Context, file model.StatementFile) ([]byte, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	data, err := os.ReadFile(file.ID) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("reading statement %s: %w", file.Name, err)
	}
	return data, nil
}

// GetTransactionLogData returns a log's header and data rows. A log file
// that does not exist yet is an empty log.
func (s *Source) GetTransactionLogData(ctx context.Context, logType model.LogType) ([][]string, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	records, err := s.readLedger(logType)
	if err != nil {
		return nil, err
	}
	if records == nil {
		return nil, nil
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, slices.Clone(model.LedgerHeader))
	for _, record := range records {
		rows = append(rows, record.cells())
	}

	s.logger.Debug("read transaction log", "log_type", logType, "rows", len(rows))
	return rows, nil
}

// AppendTransactionsToLog adds data rows at the end of a log.
func (s *Source) AppendTransactionsToLog(ctx context.Context, logType model.LogType, rows [][]string) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	if len(rows) == 0 {
		return nil
	}

	records, err := s.readLedger(logType)
	if err != nil {
		return err
	}
	for _, row := range rows {
		records = append(records, rowFromCells(row))
	}

	if err := s.writeLedger(logType, records); err != nil {
		return err
	}
	s.logger.Info("appended transactions", "log_type", logType, "rows", len(rows))
	return nil
}

// ClearTransactionLog drops every data row, leaving a header-only file.
func (s *Source) ClearTransactionLog(ctx context.Context, logType model.LogType) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}

	if err := s.writeLedger(logType, []*ledgerRow{}); err != nil {
		return err
	}
	s.logger.Info("cleared transaction log", "log_type", logType)
	return nil
}

// WriteTransactionsToLog replaces a log's data rows.
func (s *Source) WriteTransactionsToLog(ctx context.Context, logType model.LogType, rows [][]string) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}

	records := make([]*ledgerRow, 0, len(rows))
	for _, row := range rows {
		records = append(records, rowFromCells(row))
	}

	if err := s.writeLedger(logType, records); err != nil {
		return err
	}
	s.logger.Info("wrote transaction log", "log_type", logType, "rows", len(rows))
	return nil
}

func (s *Source) ledgerPath(logType model.LogType) string {
	return filepath.Join(s.ledgerDir, string(logType)+".csv")
}

// readLedger returns nil (without error) when the log file does not exist
// or is empty.
func (s *Source) readLedger(logType model.LogType) ([]*ledgerRow, error) {
	f, err := os.Open(s.ledgerPath(logType)) // #nosec G304
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s log: %w", logType, err)
	}
	defer func() { _ = f.Close() }()

	var records []*ledgerRow
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding %s log: %w", logType, err)
	}
	if records == nil {
		records = []*ledgerRow{}
	}
	return records, nil
}

// writeLedger replaces the log file in one rename.
func (s *Source) writeLedger(logType model.LogType, records []*ledgerRow) error {
	tmp, err := os.CreateTemp(s.ledgerDir, "."+string(logType)+".csv.tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp log file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	writer := gocsv.NewSafeCSVWriter(csv.NewWriter(tmp))
	if err := gocsv.MarshalCSV(records, writer); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encoding %s log: %w", logType, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp log file: %w", err)
	}

	if err := os.Rename(tmpPath, s.ledgerPath(logType)); err != nil {
		return fmt.Errorf("replacing %s log: %w", logType, err)
	}
	return nil
}

func (r *ledgerRow) cells() []string {
	return []string{r.Date, r.Description, r.Debit, r.Credit, r.Category, r.Remarks, r.Account}
}

// rowFromCells tolerates short rows; the ledger column count is fixed.
func rowFromCells(row []string) *ledgerRow {
	cells := make([]string, len(model.LedgerHeader))
	copy(cells, row)
	return &ledgerRow{
		Date:        cells[0],
		Description: cells[1],
		Debit:       cells[2],
		Credit:      cells[3],
		Category:    cells[4],
		Remarks:     cells[5],
		Account:     cells[6],
	}
}

func isStatementName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".ofx", ".qfx":
		return true
	}
	return false
}
