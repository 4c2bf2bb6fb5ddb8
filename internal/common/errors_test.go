package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "header not found", err: ErrHeaderNotFound, want: false},
		{name: "wrapped date parse", err: fmt.Errorf("row 7: %w", ErrDateParse), want: false},
		{name: "row shape", err: ErrRowShape, want: false},
		{name: "config not found", err: ErrConfigNotFound, want: false},
		{name: "config invalid", err: ErrConfigInvalid, want: false},
		{name: "rate limit", err: ErrRateLimit, want: true},
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "marked retryable", err: &RetryableError{Err: errors.New("503"), Retryable: true}, want: true},
		{name: "marked permanent", err: &RetryableError{Err: errors.New("403"), Retryable: false}, want: false},
		{name: "unknown errors are assumed transient", err: errors.New("connection reset"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestUserError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewUserError("could not reach the data source", cause)

	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "could not reach the data source", userErr.UserMessage)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}
