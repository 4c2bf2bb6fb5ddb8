package parser

import (
	"testing"
	"time"

	"github.com/passbook-dev/passbook/internal/common"
	"github.com/passbook-dev/passbook/internal/config"
	"github.com/passbook-dev/passbook/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bankConfig(t *testing.T) *config.StatementConfig {
	t.Helper()
	cfg := &config.StatementConfig{
		HeaderPatterns: [][]string{
			{"Date", "Narration", "Withdrawal Amt.", "Deposit Amt."},
			{"Txn Date", "Description", "Debit", "Credit"},
		},
		ColumnMap: map[string]string{
			"Date":            "date",
			"Txn Date":        "date",
			"Narration":       "description",
			"Description":     "description",
			"Withdrawal Amt.": "debit",
			"Debit":           "debit",
			"Deposit Amt.":    "credit",
			"Credit":          "credit",
		},
		DateFormats: []string{"%d/%m/%y", "%Y-%m-%d"},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestParseFindsHeaderBelowPreamble(t *testing.T) {
	rows := [][]string{
		{"HDFC Bank Ltd."},
		{"Statement of account"},
		{},
		{"Date", "Narration", "Withdrawal Amt.", "Deposit Amt."},
		{"01/04/24", "UPI-SWIGGY", "450.50", ""},
		{"02/04/24", "SALARY APR", "", "50,000.00"},
	}

	txns, err := Parse(rows, bankConfig(t), "bank-hdfc-karti")
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), txns[0].Date)
	assert.Equal(t, "UPI-SWIGGY", txns[0].Description)
	assert.Equal(t, "450.5", txns[0].Debit.String())
	assert.True(t, txns[0].Credit.IsZero())
	assert.Equal(t, "bank-hdfc-karti", txns[0].Account)
	assert.NotEmpty(t, txns[0].Fingerprint)

	assert.Equal(t, "50000", txns[1].Credit.String())
	assert.True(t, txns[1].Debit.IsZero())
}

func TestParseHeaderMatchingIsExact(t *testing.T) {
	cfg := bankConfig(t)

	t.Run("whitespace around cells is ignored", func(t *testing.T) {
		rows := [][]string{
			{"  Date ", " Narration", "Withdrawal Amt.  ", "Deposit Amt."},
			{"01/04/24", "UPI-SWIGGY", "450.50", ""},
		}
		txns, err := Parse(rows, cfg, "bank-hdfc-karti")
		require.NoError(t, err)
		assert.Len(t, txns, 1)
	})

	t.Run("near miss does not match", func(t *testing.T) {
		rows := [][]string{
			{"Date", "Narration", "Withdrawal", "Deposit Amt."},
			{"01/04/24", "UPI-SWIGGY", "450.50", ""},
		}
		_, err := Parse(rows, cfg, "bank-hdfc-karti")
		assert.ErrorIs(t, err, common.ErrHeaderNotFound)
	})

	t.Run("extra column does not match", func(t *testing.T) {
		rows := [][]string{
			{"Date", "Narration", "Withdrawal Amt.", "Deposit Amt.", "Balance"},
		}
		_, err := Parse(rows, cfg, "bank-hdfc-karti")
		assert.ErrorIs(t, err, common.ErrHeaderNotFound)
	})

	t.Run("second pattern variant matches", func(t *testing.T) {
		rows := [][]string{
			{"Txn Date", "Description", "Debit", "Credit"},
			{"2024-04-03", "ATM WDL", "2000.00", ""},
		}
		txns, err := Parse(rows, cfg, "bank-hdfc-karti")
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, "2000", txns[0].Debit.String())
	})
}

func TestParseHeaderScanWindow(t *testing.T) {
	rows := make([][]string, 0, 40)
	for i := 0; i < 31; i++ {
		rows = append(rows, []string{"preamble", "junk"})
	}
	rows = append(rows, []string{"Date", "Narration", "Withdrawal Amt.", "Deposit Amt."})

	_, err := Parse(rows, bankConfig(t), "bank-hdfc-karti")
	assert.ErrorIs(t, err, common.ErrHeaderNotFound, "header beyond the scan window is not found")
}

func TestParseDateFallback(t *testing.T) {
	cfg := bankConfig(t)

	rows := [][]string{
		{"Date", "Narration", "Withdrawal Amt.", "Deposit Amt."},
		{"2024-05-01", "NEFT RENT", "15,000.00", ""},
	}
	txns, err := Parse(rows, cfg, "bank-hdfc-karti")
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC), txns[0].Date, "second configured format parses the cell")

	rows[1][0] = "05/01/2024 10:30"
	_, err = Parse(rows, cfg, "bank-hdfc-karti")
	assert.ErrorIs(t, err, common.ErrDateParse)
}

func TestParseRowShapes(t *testing.T) {
	cfg := bankConfig(t)

	t.Run("short rows pad with empty cells", func(t *testing.T) {
		rows := [][]string{
			{"Date", "Narration", "Withdrawal Amt.", "Deposit Amt."},
			{"01/04/24", "UPI-SWIGGY", "450.50"},
		}
		txns, err := Parse(rows, cfg, "bank-hdfc-karti")
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, "450.5", txns[0].Debit.String())
	})

	t.Run("long rows are malformed", func(t *testing.T) {
		rows := [][]string{
			{"Date", "Narration", "Withdrawal Amt.", "Deposit Amt."},
			{"01/04/24", "UPI-SWIGGY", "450.50", "", "extra"},
		}
		_, err := Parse(rows, cfg, "bank-hdfc-karti")
		assert.ErrorIs(t, err, common.ErrRowShape)
	})

	t.Run("unparseable amount is malformed", func(t *testing.T) {
		rows := [][]string{
			{"Date", "Narration", "Withdrawal Amt.", "Deposit Amt."},
			{"01/04/24", "UPI-SWIGGY", "N/A", ""},
		}
		_, err := Parse(rows, cfg, "bank-hdfc-karti")
		assert.ErrorIs(t, err, common.ErrRowShape)
	})
}

func TestParseSkipsFormattingArtifacts(t *testing.T) {
	rows := [][]string{
		{"Date", "Narration", "Withdrawal Amt.", "Deposit Amt."},
		{"01/04/24", "UPI-SWIGGY", "450.50", ""},
		{"", "Opening Balance", "", ""},
		{"", "", "", ""},
		{"02/04/24", "Statement continues", "", ""},
		{"03/04/24", "SALARY", "", "50000"},
	}

	txns, err := Parse(rows, bankConfig(t), "bank-hdfc-karti")
	require.NoError(t, err)
	require.Len(t, txns, 2, "blank-date and empty-amount rows are layout, not data")
	assert.Equal(t, "UPI-SWIGGY", txns[0].Description)
	assert.Equal(t, "SALARY", txns[1].Description)
}

func TestParseDropsZeroAmountRows(t *testing.T) {
	rows := [][]string{
		{"Date", "Narration", "Withdrawal Amt.", "Deposit Amt."},
		{"01/04/24", "FEE REVERSAL", "0.00", ""},
		{"01/04/24", "NETS TO NOTHING", "75.00", "75.00"},
		{"02/04/24", "SALARY", "", "50000"},
	}

	txns, err := Parse(rows, bankConfig(t), "bank-hdfc-karti")
	require.NoError(t, err)
	require.Len(t, txns, 1, "rows resolving to a zero amount never become records")
	assert.Equal(t, "SALARY", txns[0].Description)

	// A zero-amount record would render both monetary cells empty, and the
	// ledger reader treats such rows as layout. Dropping them at parse time
	// keeps appended batches equal to what the next ledger read returns.
	ledger := [][]string{model.LedgerHeader, txns[0].ToLedgerRow()}
	decoded, err := ParseLedger(ledger)
	require.NoError(t, err)
	require.Len(t, decoded, len(txns))
	assert.Equal(t, txns[0].Fingerprint, decoded[0].Fingerprint)
}

func TestParseNegativeDebitBecomesCredit(t *testing.T) {
	rows := [][]string{
		{"Date", "Narration", "Withdrawal Amt.", "Deposit Amt."},
		{"01/04/24", "REFUND REVERSAL", "-250.00", ""},
	}

	txns, err := Parse(rows, bankConfig(t), "bank-hdfc-karti")
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.True(t, txns[0].Debit.IsZero())
	assert.Equal(t, "250", txns[0].Credit.String())
}

func TestParseSingleAmountColumn(t *testing.T) {
	t.Run("signed by value", func(t *testing.T) {
		cfg := &config.StatementConfig{
			HeaderPatterns: [][]string{{"Date", "Details", "Amount"}},
			ColumnMap: map[string]string{
				"Date":    "date",
				"Details": "description",
				"Amount":  "amount",
			},
			DateFormats: []string{"%d/%m/%y"},
		}
		require.NoError(t, cfg.Validate())

		rows := [][]string{
			{"Date", "Details", "Amount"},
			{"01/04/24", "COFFEE", "-120.00"},
			{"02/04/24", "CASHBACK", "30.00"},
		}
		txns, err := Parse(rows, cfg, "cc-icici-og")
		require.NoError(t, err)
		require.Len(t, txns, 2)
		assert.Equal(t, "120", txns[0].Debit.String())
		assert.Equal(t, "30", txns[1].Credit.String())
	})

	t.Run("signed by type column", func(t *testing.T) {
		cfg := &config.StatementConfig{
			HeaderPatterns: [][]string{{"Date", "Details", "Amount", "Type"}},
			ColumnMap: map[string]string{
				"Date":    "date",
				"Details": "description",
				"Amount":  "amount",
			},
			DateFormats:      []string{"%d/%m/%y"},
			AmountSignColumn: "Type",
			DebitValue:       "DEBIT",
		}
		require.NoError(t, cfg.Validate())

		rows := [][]string{
			{"Date", "Details", "Amount", "Type"},
			{"01/04/24", "GROCERY", "899.00", "Debit"},
			{"02/04/24", "REFUND", "899.00", "Credit"},
		}
		txns, err := Parse(rows, cfg, "cc-icici-og")
		require.NoError(t, err)
		require.Len(t, txns, 2)
		assert.Equal(t, "899", txns[0].Debit.String(), "type column outranks the value's sign")
		assert.Equal(t, "899", txns[1].Credit.String())
	})
}

func TestParseTildeStatements(t *testing.T) {
	cfg := &config.StatementConfig{
		HeaderPatterns: [][]string{{"Date", "Description", "Amount", "Type"}},
		ColumnMap: map[string]string{
			"Date":        "date",
			"Description": "description",
			"Amount":      "amount",
		},
		DateFormats:      []string{"%d/%m/%Y"},
		AmountSignColumn: "Type",
		DebitValue:       "Debit",
		SpecialHandling:  "tilde",
	}
	require.NoError(t, cfg.Validate())

	rows := [][]string{
		{"Credit Card Statement"},
		{"Date~Description~Amount~Type"},
		{"01/04/2024~AMAZON PAY~1,299.00~Debit"},
		{"ignore this line"},
		{"02/04/2024~REFUND~349.00~Credit"},
	}

	txns, err := Parse(rows, cfg, "cc-hdfc-og")
	require.NoError(t, err)
	require.Len(t, txns, 2, "rows that do not split to the header width are discarded")
	assert.Equal(t, "AMAZON PAY", txns[0].Description)
	assert.Equal(t, "1299", txns[0].Debit.String())
	assert.Equal(t, "349", txns[1].Credit.String())
}

func TestParseLedgerRoundTrip(t *testing.T) {
	original := []model.Transaction{
		{
			Date:        time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
			Description: "UPI-SWIGGY",
			Debit:       mustDecimal(t, "450.50"),
			Category:    "Eating Out",
			Remarks:     "weekend",
			Account:     "bank-hdfc-karti",
		},
		{
			Date:        time.Date(2024, time.April, 3, 0, 0, 0, 0, time.UTC),
			Description: "SALARY APR",
			Credit:      mustDecimal(t, "50000.00"),
			Account:     "bank-hdfc-karti",
		},
	}
	for i := range original {
		original[i].ComputeFingerprint()
	}

	rows := [][]string{model.LedgerHeader}
	for i := range original {
		rows = append(rows, original[i].ToLedgerRow())
	}

	decoded, err := ParseLedger(rows)
	require.NoError(t, err)
	require.Len(t, decoded, len(original))

	for i := range original {
		assert.Equal(t, original[i].Fingerprint, decoded[i].Fingerprint, "fingerprints survive the ledger round trip")
		assert.Equal(t, original[i].Description, decoded[i].Description)
		assert.Equal(t, original[i].Account, decoded[i].Account)
		assert.True(t, original[i].Debit.Equal(decoded[i].Debit))
		assert.True(t, original[i].Credit.Equal(decoded[i].Credit))
	}
	assert.Equal(t, "Eating Out", decoded[0].Category)
	assert.Equal(t, model.CategoryUncategorized, decoded[1].Category)
}

func TestParseLedgerEmpty(t *testing.T) {
	txns, err := ParseLedger(nil)
	require.NoError(t, err)
	assert.Empty(t, txns)

	txns, err = ParseLedger([][]string{model.LedgerHeader})
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestParseQuotedDateCells(t *testing.T) {
	rows := [][]string{
		{"Date", "Narration", "Withdrawal Amt.", "Deposit Amt."},
		{"' 01/04/24", "UPI-SWIGGY", "450.50", ""},
	}

	txns, err := Parse(rows, bankConfig(t), "bank-hdfc-karti")
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), txns[0].Date)
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
