package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/passbook-dev/passbook/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransactions checks that every record can serve as a snapshot row.
// Empty slices are fine (an empty ledger is a valid snapshot); records
// missing a fingerprint or date are not, since restore depends on both.
func validateTransactions(txns []model.Transaction) error {
	for i := range txns {
		if txns[i].Fingerprint == "" {
			return fmt.Errorf("%w at index %d: missing fingerprint", ErrInvalidTransaction, i)
		}
		if txns[i].Date.IsZero() {
			return fmt.Errorf("%w at index %d: missing date", ErrInvalidTransaction, i)
		}
	}
	return nil
}
