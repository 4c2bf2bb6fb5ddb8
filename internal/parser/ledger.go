package parser

import (
	"github.com/passbook-dev/passbook/internal/config"
	"github.com/passbook-dev/passbook/internal/model"
)

// ledgerCfg decodes transaction log rows. The log's header is fixed and its
// dates are ISO, so one pattern and one format suffice.
var ledgerCfg = mustLedgerConfig()

func mustLedgerConfig() *config.StatementConfig {
	cfg := &config.StatementConfig{
		HeaderPatterns: [][]string{model.LedgerHeader},
		ColumnMap: map[string]string{
			"Date":        config.ColumnDate,
			"Description": config.ColumnDescription,
			"Debit":       config.ColumnDebit,
			"Credit":      config.ColumnCredit,
			"Category":    config.ColumnCategory,
			"Remarks":     config.ColumnRemarks,
			"Account":     config.ColumnAccount,
		},
		DateFormats: []string{"%Y-%m-%d"},
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}

// ParseLedger decodes a transaction log's rows back into records. An empty
// slice is a brand-new log, not an error.
func ParseLedger(rows [][]string) ([]model.Transaction, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	return Parse(rows, ledgerCfg, "")
}
