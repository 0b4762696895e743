// Copyright 2026 Peter Edge
//
// All rights reserved.

package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterRetryableErrors(t *testing.T) {
	t.Parallel()
	var calls int
	result, err := Retry(
		context.Background(),
		Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
		func(_ context.Context, attempt int) (string, bool, error) {
			calls++
			if attempt < 2 {
				return "", true, errors.New("busy")
			}
			return "ok", false, nil
		},
	)
	require.NoError(t, err)
	require.Equal(t, "ok", result)
	require.Equal(t, 3, calls)
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("bad request")
	var calls int
	_, err := Retry(
		context.Background(),
		Policy{MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
		func(context.Context, int) (int, bool, error) {
			calls++
			return 0, false, sentinel
		},
	)
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 1, calls)
}

func TestRetryExhausted(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("busy")
	var calls int
	_, err := Retry(
		context.Background(),
		Policy{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
		func(context.Context, int) (int, bool, error) {
			calls++
			return 0, true, sentinel
		},
	)
	require.ErrorIs(t, err, sentinel)
	require.ErrorContains(t, err, "failed after 2 attempts")
	require.Equal(t, 2, calls)
}

func TestRetryNoRetryReturnsErrorUnchanged(t *testing.T) {
	t.Parallel()
	sentinel := errors.New("busy")
	_, err := Retry(
		context.Background(),
		NoRetry,
		func(context.Context, int) (int, bool, error) {
			return 0, true, sentinel
		},
	)
	require.Equal(t, sentinel, err)
}

func TestRetryContextCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Retry(
		ctx,
		Policy{MaxAttempts: 3, InitialDelay: time.Hour, MaxDelay: time.Hour},
		func(context.Context, int) (int, bool, error) {
			return 0, true, errors.New("busy")
		},
	)
	require.ErrorIs(t, err, context.Canceled)
}
