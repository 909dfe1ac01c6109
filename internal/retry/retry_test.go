package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithRetry_StopsOnFirstSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), RetryConfig{MaxAttempts: 3}, func(attempt int) error {
		calls++
		if attempt < 2 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestWithRetry_WrapsLastError(t *testing.T) {
	sentinel := errors.New("boom")
	var failures []int

	err := WithRetry(context.Background(), RetryConfig{
		MaxAttempts: 3,
		OnFailure:   func(attempt int, err error) { failures = append(failures, attempt) },
	}, func(attempt int) error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want wrapped sentinel", err)
	}
	if len(failures) != 2 || failures[0] != 1 || failures[1] != 2 {
		t.Errorf("OnFailure attempts = %v, want [1 2]", failures)
	}
}

func TestWithRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	err := WithRetry(ctx, RetryConfig{MaxAttempts: 5, Delay: time.Hour}, func(attempt int) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
