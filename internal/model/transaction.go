// Package model defines the core data structures for the passbook application.
package model

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerDateLayout is the canonical date rendering used in ledger rows and
// fingerprints.
const LedgerDateLayout = "2006-01-02"

// CategoryUncategorized is written to the ledger when no rule matches a
// record's description.
const CategoryUncategorized = "Uncategorized"

// LedgerHeader is the fixed first row of every transaction log.
var LedgerHeader = []string{"Date", "Description", "Debit", "Credit", "Category", "Remarks", "Account"}

// Transaction is one canonical ledger record. Exactly one of Debit and
// Credit is non-zero; zero-amount statement rows are dropped by the parsers
// before they become records.
type Transaction struct {
	Date        time.Time
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Category    string
	Remarks     string
	Account     string
	Fingerprint string
}

// Validate checks the debit/credit invariant.
func (t *Transaction) Validate() error {
	if t.Debit.IsNegative() || t.Credit.IsNegative() {
		return fmt.Errorf("transaction %q: negative debit or credit", t.Description)
	}
	if !t.Debit.IsZero() && !t.Credit.IsZero() {
		return fmt.Errorf("transaction %q: both debit and credit set", t.Description)
	}
	if t.Debit.IsZero() && t.Credit.IsZero() {
		return fmt.Errorf("transaction %q: zero amount", t.Description)
	}
	return nil
}

// Amount returns the signed amount: credits positive, debits negative.
func (t *Transaction) Amount() decimal.Decimal {
	return t.Credit.Sub(t.Debit)
}

// IsDebit reports whether the record moves money out of the account.
func (t *Transaction) IsDebit() bool {
	return !t.Debit.IsZero()
}

// GenerateFingerprint derives a record's stable identity from account, date,
// description and the debit/credit pair. Row position, category and remarks
// never participate, so re-ingesting the same statement reproduces the same
// fingerprint on any machine. Amounts are rendered with two decimals, making
// "5", "5.0" and "5.00" identical.
func GenerateFingerprint(account string, date time.Time, description string, debit, credit decimal.Decimal) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s",
		account,
		date.Format(LedgerDateLayout),
		description,
		debit.StringFixed(2),
		credit.StringFixed(2))
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeFingerprint fills Fingerprint from the identity fields.
func (t *Transaction) ComputeFingerprint() {
	t.Fingerprint = GenerateFingerprint(t.Account, t.Date, t.Description, t.Debit, t.Credit)
}

// ToLedgerRow renders the record as a data row matching LedgerHeader. The
// zero side of the amount becomes an empty cell and an empty category is
// written as Uncategorized.
func (t *Transaction) ToLedgerRow() []string {
	category := t.Category
	if category == "" {
		category = CategoryUncategorized
	}
	return []string{
		t.Date.Format(LedgerDateLayout),
		t.Description,
		renderAmount(t.Debit),
		renderAmount(t.Credit),
		category,
		t.Remarks,
		t.Account,
	}
}

func renderAmount(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.StringFixed(2)
}

// SortTransactions orders records by date, then account, then signed amount,
// then description. Append batches are sorted this way before writing.
func SortTransactions(txns []Transaction) {
	slices.SortStableFunc(txns, func(a, b Transaction) int {
		if !a.Date.Equal(b.Date) {
			if a.Date.Before(b.Date) {
				return -1
			}
			return 1
		}
		if a.Account != b.Account {
			if a.Account < b.Account {
				return -1
			}
			return 1
		}
		if c := a.Amount().Cmp(b.Amount()); c != 0 {
			return c
		}
		if a.Description != b.Description {
			if a.Description < b.Description {
				return -1
			}
			return 1
		}
		return 0
	})
}
