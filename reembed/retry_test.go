package reembed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff(t *testing.T) {
	persistent := errors.New("persistent error")

	tests := []struct {
		name        string
		failUntil   int
		maxAttempts int
		attempts    int
		wantErr     error
	}{
		{"first try", 0, 3, 1, nil},
		{"eventual success", 2, 5, 3, nil},
		{"all attempts fail", 10, 3, 3, persistent},
		{"single attempt", 10, 1, 1, persistent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := RetryWithBackoff(context.Background(), func(ctx context.Context) error {
				attempts++
				if attempts <= tt.failUntil {
					return persistent
				}
				return nil
			}, tt.maxAttempts, time.Millisecond)

			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.attempts, attempts)
		})
	}
}

func TestRetryWithBackoff_InvalidMaxAttempts(t *testing.T) {
	err := RetryWithBackoff(context.Background(), func(ctx context.Context) error { return nil }, 0, time.Millisecond)
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}

func TestRetryWithBackoff_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	err := RetryWithBackoff(ctx, func(ctx context.Context) error {
		attempts++
		cancel()
		return errors.New("temporary error")
	}, 5, time.Hour)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_ExponentialDelay(t *testing.T) {
	var times []time.Time
	_ = RetryWithBackoff(context.Background(), func(ctx context.Context) error {
		times = append(times, time.Now())
		return errors.New("fail")
	}, 3, 20*time.Millisecond)

	require.Len(t, times, 3)
	assert.GreaterOrEqual(t, times[1].Sub(times[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, times[2].Sub(times[1]), 40*time.Millisecond)
}
