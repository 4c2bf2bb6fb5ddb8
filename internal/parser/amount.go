package parser

import (
	"fmt"
	"strings"

	"github.com/passbook-dev/passbook/internal/common"
	"github.com/shopspring/decimal"
)

var currencyReplacer = strings.NewReplacer(",", "", "₹", "", "$", "", " ", "", " ", "")

// ParseAmount converts a statement's monetary cell into a signed decimal.
// Bank exports are messy: thousands separators, currency symbols,
// parenthesized negatives, "Cr"/"Dr" suffixes, stray percent signs and the
// occasional scientific-notation artifact all appear in real statements.
// Empty cells and lone dashes are zero. Anything else unparseable is a
// malformed row.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return decimal.Zero, nil
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	upper := strings.ToUpper(s)
	switch {
	case strings.HasSuffix(upper, "CR"):
		s = strings.TrimSpace(s[:len(s)-2])
	case strings.HasSuffix(upper, "DR"):
		neg = true
		s = strings.TrimSpace(s[:len(s)-2])
	}

	s = currencyReplacer.Replace(s)
	s = strings.TrimSuffix(s, "%")
	if s == "" || s == "-" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q", common.ErrRowShape, raw)
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}
