package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateFingerprint(t *testing.T) {
	base := func() (string, time.Time, string, decimal.Decimal, decimal.Decimal) {
		return "bank-hdfc-karti", date(2024, time.May, 1), "UPI-SWIGGY-ORDER", decimal.NewFromFloat(450.50), decimal.Zero
	}

	t.Run("deterministic across calls", func(t *testing.T) {
		a, d, desc, db, cr := base()
		first := GenerateFingerprint(a, d, desc, db, cr)
		second := GenerateFingerprint(a, d, desc, db, cr)
		assert.Equal(t, first, second)
		assert.Len(t, first, 64)
	})

	t.Run("amount scale does not matter", func(t *testing.T) {
		a, d, desc, _, _ := base()
		five := GenerateFingerprint(a, d, desc, decimal.NewFromInt(5), decimal.Zero)
		fiveExact := GenerateFingerprint(a, d, desc, decimal.RequireFromString("5.00"), decimal.Zero)
		assert.Equal(t, five, fiveExact)
	})

	t.Run("each identity field changes the fingerprint", func(t *testing.T) {
		a, d, desc, db, cr := base()
		orig := GenerateFingerprint(a, d, desc, db, cr)
		assert.NotEqual(t, orig, GenerateFingerprint("bank-axis-karti", d, desc, db, cr))
		assert.NotEqual(t, orig, GenerateFingerprint(a, d.AddDate(0, 0, 1), desc, db, cr))
		assert.NotEqual(t, orig, GenerateFingerprint(a, d, "UPI-ZOMATO-ORDER", db, cr))
		assert.NotEqual(t, orig, GenerateFingerprint(a, d, desc, decimal.NewFromInt(451), cr))
		assert.NotEqual(t, orig, GenerateFingerprint(a, d, desc, cr, db), "debit and credit are not interchangeable")
	})
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		txn     Transaction
		wantErr bool
	}{
		{
			name: "debit only",
			txn:  Transaction{Description: "coffee", Debit: decimal.NewFromInt(120)},
		},
		{
			name: "credit only",
			txn:  Transaction{Description: "salary", Credit: decimal.NewFromInt(50000)},
		},
		{
			name:    "zero amount record",
			txn:     Transaction{Description: "reversal"},
			wantErr: true,
		},
		{
			name:    "both sides set",
			txn:     Transaction{Description: "bad", Debit: decimal.NewFromInt(1), Credit: decimal.NewFromInt(1)},
			wantErr: true,
		},
		{
			name:    "negative debit",
			txn:     Transaction{Description: "bad", Debit: decimal.NewFromInt(-5)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.txn.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransactionAmount(t *testing.T) {
	debit := Transaction{Debit: decimal.NewFromFloat(99.90)}
	credit := Transaction{Credit: decimal.NewFromFloat(1200)}

	assert.True(t, debit.IsDebit())
	assert.False(t, credit.IsDebit())
	assert.Equal(t, "-99.9", debit.Amount().String())
	assert.Equal(t, "1200", credit.Amount().String())
}

func TestToLedgerRow(t *testing.T) {
	txn := Transaction{
		Date:        date(2024, time.May, 1),
		Description: "NEFT-RENT-MAY",
		Debit:       decimal.NewFromInt(15000),
		Account:     "bank-hdfc-karti",
	}

	row := txn.ToLedgerRow()
	require.Len(t, row, len(LedgerHeader))
	assert.Equal(t, []string{"2024-05-01", "NEFT-RENT-MAY", "15000.00", "", "Uncategorized", "", "bank-hdfc-karti"}, row)

	txn.Category = "Housing"
	txn.Debit = decimal.Zero
	txn.Credit = decimal.NewFromFloat(15000.5)
	row = txn.ToLedgerRow()
	assert.Equal(t, "", row[2])
	assert.Equal(t, "15000.50", row[3])
	assert.Equal(t, "Housing", row[4])
}

func TestSortTransactions(t *testing.T) {
	txns := []Transaction{
		{Date: date(2024, time.May, 2), Account: "a", Description: "later"},
		{Date: date(2024, time.May, 1), Account: "b", Description: "same day other account", Debit: decimal.NewFromInt(10)},
		{Date: date(2024, time.May, 1), Account: "a", Description: "bigger debit", Debit: decimal.NewFromInt(20)},
		{Date: date(2024, time.May, 1), Account: "a", Description: "smaller debit", Debit: decimal.NewFromInt(10)},
	}

	SortTransactions(txns)

	got := make([]string, len(txns))
	for i, txn := range txns {
		got[i] = txn.Description
	}
	// Debits sort as negative amounts, so the bigger debit comes first.
	assert.Equal(t, []string{"bigger debit", "smaller debit", "same day other account", "later"}, got)
}

func TestParseLogType(t *testing.T) {
	for _, valid := range []string{"bank", "cc"} {
		lt, err := ParseLogType(valid)
		require.NoError(t, err)
		assert.Equal(t, LogType(valid), lt)
	}

	_, err := ParseLogType("savings")
	assert.Error(t, err)
}
