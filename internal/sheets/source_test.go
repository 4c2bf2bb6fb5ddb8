package sheets

import (
	"errors"
	"fmt"
	"testing"

	"github.com/passbook-dev/passbook/internal/common"
	"github.com/passbook-dev/passbook/internal/model"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestLogRanges(t *testing.T) {
	assert.Equal(t, "'Bank transactions'!B2:H", logRange(model.LogTypeBank, logDataRange))
	assert.Equal(t, "'CC Transactions'!B2:H", logRange(model.LogTypeCC, logDataRange))
	assert.Equal(t, "'Bank transactions'!B3:H", logRange(model.LogTypeBank, logClearRange))
	assert.Equal(t, "'CC Transactions'!B3", logRange(model.LogTypeCC, logWriteCell))
}

func TestQuoteSheetTitle(t *testing.T) {
	assert.Equal(t, "'Sheet1'", quoteSheetTitle("Sheet1"))
	assert.Equal(t, "'Karti''s statement'", quoteSheetTitle("Karti's statement"))
}

func TestIsStatementFile(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		mimeType string
		want     bool
	}{
		{"drive spreadsheet", "bank-hdfc-karti-2024", spreadsheetMimeType, true},
		{"raw csv", "bank-hdfc-karti-2024.csv", "text/csv", true},
		{"ofx download", "cc-amex-adi-2024-03.ofx", "application/octet-stream", true},
		{"qfx download", "CC-AMEX-ADI-2024-03.QFX", "application/octet-stream", true},
		{"stray pdf", "cc-amex-adi-2024-03.pdf", "application/pdf", false},
		{"folder", "archive", "application/vnd.google-apps.folder", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isStatementFile(tt.fileName, tt.mimeType))
		})
	}
}

func TestToStringRows(t *testing.T) {
	rows := toStringRows([][]any{
		{"01/04/24", "UPI-SWIGGY", 450.5},
		{"02/04/24", "BIG AMOUNT", 12345.0, true},
		{nil, ""},
	})

	assert.Equal(t, [][]string{
		{"01/04/24", "UPI-SWIGGY", "450.5"},
		{"02/04/24", "BIG AMOUNT", "12345", "true"},
		{"", ""},
	}, rows)
}

func TestToCellRowsRoundTrip(t *testing.T) {
	rows := [][]string{
		{"2024-04-01", "UPI-SWIGGY", "450.50", "", "Eating Out", "", "bank-hdfc-karti"},
	}

	cells := toCellRows(rows)
	assert.Equal(t, rows, toStringRows(cells))
}

func TestClassifyAPIError(t *testing.T) {
	wrap := func(code int) error {
		return fmt.Errorf("call failed: %w", &googleapi.Error{Code: code})
	}

	t.Run("rate limit", func(t *testing.T) {
		err := classifyAPIError(wrap(429))
		assert.ErrorIs(t, err, common.ErrRateLimit)
		assert.True(t, common.IsRetryable(err))
	})

	t.Run("server error retries", func(t *testing.T) {
		err := classifyAPIError(wrap(503))
		var retryable *common.RetryableError
		assert.ErrorAs(t, err, &retryable)
		assert.True(t, retryable.Retryable)
	})

	t.Run("client error fails fast", func(t *testing.T) {
		err := classifyAPIError(wrap(404))
		var retryable *common.RetryableError
		assert.ErrorAs(t, err, &retryable)
		assert.False(t, retryable.Retryable)
	})

	t.Run("non api error passes through", func(t *testing.T) {
		cause := errors.New("connection reset")
		assert.Equal(t, cause, classifyAPIError(cause))
	})
}
