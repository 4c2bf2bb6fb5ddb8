// Package parser decodes raw statement rows into canonical transaction
// records, driven by per-institution configs.
package parser

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/passbook-dev/passbook/internal/common"
	"github.com/passbook-dev/passbook/internal/config"
	"github.com/passbook-dev/passbook/internal/model"
	"github.com/shopspring/decimal"
)

// headerScanWindow caps how deep into a statement the header may sit. Real
// exports bury it under bank letterhead, but never this deep.
const headerScanWindow = 30

// binding maps canonical fields to column indexes of the detected header.
// Optional fields absent from the header stay -1.
type binding struct {
	width       int
	date        int
	description int
	debit       int
	credit      int
	amount      int
	category    int
	remarks     int
	account     int
	sign        int
}

// Parse decodes one statement's raw rows with an institution's config. The
// returned records carry the account, computed fingerprints and whatever
// category column the statement had (usually none). Errors are per-file;
// the caller skips the statement and carries on with the rest.
func Parse(rows [][]string, cfg *config.StatementConfig, account string) ([]model.Transaction, error) {
	tilde := cfg.SpecialHandling == config.SpecialHandlingTilde
	if tilde {
		rows = splitTildeRows(rows)
	}

	headerIdx, header, err := findHeader(rows, cfg.HeaderPatterns)
	if err != nil {
		return nil, err
	}

	b, err := bindColumns(header, cfg)
	if err != nil {
		return nil, err
	}

	var txns []model.Transaction
	for i, row := range rows[headerIdx+1:] {
		txn, ok, err := decodeRow(row, b, cfg, account, tilde)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", headerIdx+i+2, err)
		}
		if !ok {
			continue
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

// findHeader scans the first headerScanWindow rows for one whose trimmed
// cells exactly equal a configured pattern, cell for cell. Patterns are
// tried in config order; the first matching row wins.
func findHeader(rows [][]string, patterns [][]string) (int, []string, error) {
	limit := len(rows)
	if limit > headerScanWindow {
		limit = headerScanWindow
	}
	for i := 0; i < limit; i++ {
		for _, pattern := range patterns {
			if headerMatches(rows[i], pattern) {
				return i, rows[i], nil
			}
		}
	}
	return 0, nil, fmt.Errorf("%w: scanned %d rows against %d patterns", common.ErrHeaderNotFound, limit, len(patterns))
}

func headerMatches(row, pattern []string) bool {
	if len(row) != len(pattern) {
		return false
	}
	for i, cell := range row {
		if strings.TrimSpace(cell) != strings.TrimSpace(pattern[i]) {
			return false
		}
	}
	return true
}

func bindColumns(header []string, cfg *config.StatementConfig) (binding, error) {
	b := binding{
		width: len(header),
		date:  -1, description: -1, debit: -1, credit: -1,
		amount: -1, category: -1, remarks: -1, account: -1, sign: -1,
	}

	index := make(map[string]int, len(header))
	for i, cell := range header {
		index[normalizeHeaderCell(cell)] = i
	}

	for source, field := range cfg.ColumnMap {
		idx, ok := index[normalizeHeaderCell(source)]
		if !ok {
			// Configs may map columns for several header variants; only
			// the detected variant's columns bind.
			continue
		}
		switch field {
		case config.ColumnDate:
			b.date = idx
		case config.ColumnDescription:
			b.description = idx
		case config.ColumnDebit:
			b.debit = idx
		case config.ColumnCredit:
			b.credit = idx
		case config.ColumnAmount:
			b.amount = idx
		case config.ColumnCategory:
			b.category = idx
		case config.ColumnRemarks:
			b.remarks = idx
		case config.ColumnAccount:
			b.account = idx
		}
	}
	if cfg.AmountSignColumn != "" {
		if idx, ok := index[normalizeHeaderCell(cfg.AmountSignColumn)]; ok {
			b.sign = idx
		}
	}

	if b.date < 0 {
		return b, fmt.Errorf("%w: header has no column mapped to date", common.ErrRowShape)
	}
	if b.description < 0 {
		return b, fmt.Errorf("%w: header has no column mapped to description", common.ErrRowShape)
	}
	if b.debit < 0 && b.credit < 0 && b.amount < 0 {
		return b, fmt.Errorf("%w: header has no monetary column", common.ErrRowShape)
	}
	return b, nil
}

func normalizeHeaderCell(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func decodeRow(row []string, b binding, cfg *config.StatementConfig, account string, tilde bool) (model.Transaction, bool, error) {
	if tilde && len(row) != b.width {
		slog.Debug("discarding tilde row with unexpected width", "cells", len(row), "want", b.width)
		return model.Transaction{}, false, nil
	}
	if len(row) > b.width {
		return model.Transaction{}, false, fmt.Errorf("%w: %d cells, header has %d", common.ErrRowShape, len(row), b.width)
	}

	// Short rows are common when trailing cells are empty; missing cells
	// read as empty.
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	dateCell := cleanDateCell(cell(b.date))
	if dateCell == "" {
		// Footer and balance rows leave the date blank; layout, not data.
		return model.Transaction{}, false, nil
	}

	signed, ok, err := decodeAmount(cell, b, cfg)
	if err != nil {
		return model.Transaction{}, false, err
	}
	if !ok {
		return model.Transaction{}, false, nil
	}
	if signed.IsZero() {
		// An explicit 0.00 moves no money. The ledger renders the zero side
		// of an amount as an empty cell, so a zero-amount record could never
		// be read back; it never becomes a record in the first place.
		slog.Debug("skipping zero-amount row", "description", cell(b.description))
		return model.Transaction{}, false, nil
	}

	date, err := parseDate(dateCell, cfg.DateLayouts())
	if err != nil {
		return model.Transaction{}, false, err
	}

	txn := model.Transaction{
		Date:        date,
		Description: cell(b.description),
		Category:    cell(b.category),
		Remarks:     cell(b.remarks),
		Account:     account,
	}
	if acct := cell(b.account); acct != "" {
		txn.Account = acct
	}

	switch {
	case signed.IsNegative():
		txn.Debit = signed.Neg()
	case signed.IsPositive():
		txn.Credit = signed
	}

	txn.ComputeFingerprint()
	return txn, true, nil
}

// decodeAmount resolves a row's monetary cells into one signed amount,
// credits positive. Rows whose monetary cells are all empty are formatting
// artifacts and report ok=false.
func decodeAmount(cell func(int) string, b binding, cfg *config.StatementConfig) (decimal.Decimal, bool, error) {
	if b.amount >= 0 {
		amountCell := cell(b.amount)
		if amountCell == "" {
			return decimal.Zero, false, nil
		}
		amount, err := ParseAmount(amountCell)
		if err != nil {
			return decimal.Zero, false, err
		}
		if b.sign >= 0 {
			if strings.EqualFold(cell(b.sign), cfg.DebitValue) {
				return amount.Abs().Neg(), true, nil
			}
			return amount.Abs(), true, nil
		}
		return amount, true, nil
	}

	debitCell, creditCell := cell(b.debit), cell(b.credit)
	if debitCell == "" && creditCell == "" {
		return decimal.Zero, false, nil
	}
	debit, err := ParseAmount(debitCell)
	if err != nil {
		return decimal.Zero, false, err
	}
	credit, err := ParseAmount(creditCell)
	if err != nil {
		return decimal.Zero, false, err
	}
	// A negative value in the withdrawal column is a refund; netting the
	// two sides sorts it onto the right one.
	return credit.Sub(debit), true, nil
}

// cleanDateCell drops the leading apostrophe some exports use to force text
// cells, plus stray quotes and spaces.
func cleanDateCell(s string) string {
	return strings.Trim(s, "' \"")
}

func parseDate(s string, layouts []string) (time.Time, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q matches none of %d formats", common.ErrDateParse, s, len(layouts))
}

// splitTildeRows expands statements that arrive with every row packed into a
// single ~-joined cell.
func splitTildeRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 1 && strings.Contains(row[0], "~") {
			out = append(out, strings.Split(row[0], "~"))
			continue
		}
		out = append(out, row)
	}
	return out
}
