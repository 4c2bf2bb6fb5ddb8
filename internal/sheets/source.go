package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/passbook-dev/passbook/internal/common"
	"github.com/passbook-dev/passbook/internal/model"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"
)

// Transaction log layout inside the consolidated spreadsheet. The header row
// sits at B2 of each tab, data rows from B3 down; column A is left to the
// sheet's own notes and formulas.
const (
	bankLogTab = "Bank transactions"
	ccLogTab   = "CC Transactions"

	logDataRange  = "B2:H"
	logClearRange = "B3:H"
	logWriteCell  = "B3"

	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"
)

// Source reads statements from a Drive folder and maintains the transaction
// logs through the Sheets API. It implements service.DataSource. Retry and
// timeout policy belongs to the caller; Source only classifies failures.
type Source struct {
	sheets *sheets.Service
	drive  *drive.Service
	logger *slog.Logger
	config Config
}

// NewSource authenticates and builds the Google data source.
func NewSource(ctx context.Context, config Config, logger *slog.Logger) (*Source, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sheets config: %w", err)
	}

	sheetsSrv, driveSrv, err := newServices(ctx, config)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Source{
		config: config,
		sheets: sheetsSrv,
		drive:  driveSrv,
		logger: logger,
	}, nil
}

// ListStatementFiles enumerates the statement folder: Google Sheets uploads
// plus raw OFX/QFX/CSV files.
func (s *Source) ListStatementFiles(ctx context.Context) ([]model.StatementFile, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	query := fmt.Sprintf("'%s' in parents and trashed = false", s.config.StatementFolderID)

	var files []model.StatementFile
	pageToken := ""
	for {
		call := s.drive.Files.List().
			Q(query).
			Spaces("drive").
			Fields("nextPageToken, files(id, name, mimeType)").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, classifyAPIError(fmt.Errorf("listing statement folder: %w", err))
		}

		for _, f := range resp.Files {
			if !isStatementFile(f.Name, f.MimeType) {
				s.logger.Debug("skipping non-statement file", "name", f.Name, "mime_type", f.MimeType)
				continue
			}
			files = append(files, model.StatementFile{ID: f.Id, Name: f.Name})
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	s.logger.Info("listed statement files", "folder", s.config.StatementFolderID, "count", len(files))
	return files, nil
}

// GetStatementData reads a statement spreadsheet's first visible sheet in
// full. Rows come back exactly as the sheet holds them, preamble included.
func (s *Source) GetStatementData(ctx context.Context, file model.StatementFile) ([][]string, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	title, err := s.firstVisibleSheet(ctx, file.ID)
	if err != nil {
		return nil, err
	}

	readRange := fmt.Sprintf("%s!A:Z", quoteSheetTitle(title))
	resp, err := s.sheets.Spreadsheets.Values.Get(file.ID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, classifyAPIError(fmt.Errorf("reading statement %s: %w", file.Name, err))
	}

	rows := toStringRows(resp.Values)
	s.logger.Debug("fetched statement data", "file", file.Name, "rows", len(rows))
	return rows, nil
}

// GetStatementBytes downloads a raw (non-spreadsheet) statement file from
// Drive.
func (s *Source) GetStatementBytes(ctx context.Context, file model.StatementFile) ([]byte, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	resp, err := s.drive.Files.Get(file.ID).Context(ctx).Download()
	if err != nil {
		return nil, classifyAPIError(fmt.Errorf("downloading statement %s: %w", file.Name, err))
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("reading statement %s: %w", file.Name, err), Retryable: true}
	}

	s.logger.Debug("downloaded statement bytes", "file", file.Name, "bytes", len(data))
	return data, nil
}

// GetTransactionLogData returns a log tab's header row and data rows.
func (s *Source) GetTransactionLogData(ctx context.Context, logType model.LogType) ([][]string, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	readRange := logRange(logType, logDataRange)
	resp, err := s.sheets.Spreadsheets.Values.Get(s.config.SpreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, classifyAPIError(fmt.Errorf("reading %s log: %w", logType, err))
	}

	rows := toStringRows(resp.Values)
	s.logger.Debug("fetched transaction log", "log_type", logType, "rows", len(rows))
	return rows, nil
}

// AppendTransactionsToLog adds data rows after the last populated row of a
// log tab.
func (s *Source) AppendTransactionsToLog(ctx context.Context, logType model.LogType, rows [][]string) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	if len(rows) == 0 {
		return nil
	}

	valueRange := &sheets.ValueRange{Values: toCellRows(rows)}
	_, err := s.sheets.Spreadsheets.Values.Append(s.config.SpreadsheetID, logRange(logType, logDataRange), valueRange).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return classifyAPIError(fmt.Errorf("appending to %s log: %w", logType, err))
	}

	s.logger.Info("appended transactions", "log_type", logType, "rows", len(rows))
	return nil
}

// ClearTransactionLog drops every data row of a log tab. The header row at
// B2 stays.
func (s *Source) ClearTransactionLog(ctx context.Context, logType model.LogType) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}

	clearRange := logRange(logType, logClearRange)
	_, err := s.sheets.Spreadsheets.Values.Clear(s.config.SpreadsheetID, clearRange, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return classifyAPIError(fmt.Errorf("clearing %s log: %w", logType, err))
	}

	s.logger.Info("cleared transaction log", "log_type", logType)
	return nil
}

// WriteTransactionsToLog replaces a log tab's data rows under the existing
// header.
func (s *Source) WriteTransactionsToLog(ctx context.Context, logType model.LogType, rows [][]string) error {
	if err := s.ClearTransactionLog(ctx, logType); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	valueRange := &sheets.ValueRange{Values: toCellRows(rows)}
	_, err := s.sheets.Spreadsheets.Values.Update(s.config.SpreadsheetID, logRange(logType, logWriteCell), valueRange).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return classifyAPIError(fmt.Errorf("writing %s log: %w", logType, err))
	}

	s.logger.Info("wrote transaction log", "log_type", logType, "rows", len(rows))
	return nil
}

// firstVisibleSheet resolves the tab statements are read from. Uploaded
// statements converted to Sheets keep their data on the first visible tab.
func (s *Source) firstVisibleSheet(ctx context.Context, spreadsheetID string) (string, error) {
	meta, err := s.sheets.Spreadsheets.Get(spreadsheetID).
		Fields("sheets(properties(title,hidden))").
		Context(ctx).
		Do()
	if err != nil {
		return "", classifyAPIError(fmt.Errorf("reading spreadsheet metadata: %w", err))
	}

	for _, sheet := range meta.Sheets {
		if sheet.Properties == nil || sheet.Properties.Hidden {
			continue
		}
		if sheet.Properties.Title != "" {
			return sheet.Properties.Title, nil
		}
	}
	return "", &common.RetryableError{
		Err:       fmt.Errorf("spreadsheet %s has no visible sheets", spreadsheetID),
		Retryable: false,
	}
}

func logTab(logType model.LogType) string {
	if logType == model.LogTypeCC {
		return ccLogTab
	}
	return bankLogTab
}

func logRange(logType model.LogType, cells string) string {
	return fmt.Sprintf("%s!%s", quoteSheetTitle(logTab(logType)), cells)
}

// quoteSheetTitle wraps a tab title for use in an A1 range. Embedded quotes
// double per the Sheets grammar.
func quoteSheetTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// isStatementFile keeps folder listings down to what the pipeline can parse:
// spreadsheet uploads and raw statement downloads.
func isStatementFile(name, mimeType string) bool {
	if mimeType == spreadsheetMimeType {
		return true
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".ofx", ".qfx", ".csv":
		return true
	}
	return false
}

// toStringRows flattens the API's dynamically typed cells into strings.
// Floats render in plain notation so amounts never arrive as 1.2345E+4.
func toStringRows(values [][]any) [][]string {
	rows := make([][]string, 0, len(values))
	for _, value := range values {
		row := make([]string, 0, len(value))
		for _, cell := range value {
			row = append(row, cellString(cell))
		}
		rows = append(rows, row)
	}
	return rows
}

func cellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func toCellRows(rows [][]string) [][]any {
	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		cells := make([]any, 0, len(row))
		for _, cell := range row {
			cells = append(cells, cell)
		}
		values = append(values, cells)
	}
	return values
}

// classifyAPIError maps Google API failures onto the retry taxonomy: rate
// limits back off the full window, server errors retry, everything else
// fails the call immediately.
func classifyAPIError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", common.ErrRateLimit, err)
	case apiErr.Code >= 500:
		return &common.RetryableError{Err: err, Retryable: true}
	default:
		return &common.RetryableError{Err: err, Retryable: false}
	}
}
