package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func retryableIf(target error) ErrorClassifier {
	return func(err error) ErrorClassification {
		if errors.Is(err, target) {
			return Transient
		}
		return Permanent
	}
}

func embedCall(classify ErrorClassifier) Call {
	return Call{Upstream: UpstreamEmbedding, Operation: "gemini.embed", Classify: classify}
}

func TestExecuteRetriesTemporaryFailureOnce(t *testing.T) {
	var retried []string
	exec := NewExecutor(Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
		OnRetry:             func(upstream, op string) { retried = append(retried, upstream+"/"+op) },
	})

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), embedCall(retryableIf(errTemp)), func(context.Context) error {
		attempts++
		if attempts < 2 {
			return errTemp
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
	if len(retried) != 1 || retried[0] != "embedding/gemini.embed" {
		t.Fatalf("expected one labelled retry hook call, got %v", retried)
	}
}

func TestExecuteCapsAttemptsAtOneRetry(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    5,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     1 * time.Millisecond,
	})

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), embedCall(retryableIf(errTemp)), func(context.Context) error {
		attempts++
		return errTemp
	})
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if attempts != MaxUpstreamAttempts {
		t.Fatalf("expected %d attempts, got %d", MaxUpstreamAttempts, attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: 1 * time.Millisecond,
		BreakerEnabled:      false,
	})

	attempts := 0
	errPermanent := errors.New("permanent")
	call := Call{Upstream: UpstreamCompletion, Operation: "gemini.generate", Classify: func(error) ErrorClassification { return Rejected }}
	err := exec.Execute(context.Background(), call, func(context.Context) error {
		attempts++
		return errPermanent
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteWithoutClassifierNeverRetries(t *testing.T) {
	exec := NewExecutor(Config{RetryMaxAttempts: 2, RetryInitialBackoff: time.Millisecond})

	attempts := 0
	_ = exec.Execute(context.Background(), Call{Operation: "ollama.embed"}, func(context.Context) error {
		attempts++
		return errors.New("boom")
	})
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteStopsWhenContextDone(t *testing.T) {
	exec := NewExecutor(Config{RetryMaxAttempts: 2, RetryInitialBackoff: time.Second, RetryMaxBackoff: time.Second})
	ctx, cancel := context.WithCancel(context.Background())

	errTemp := errors.New("temporary")
	start := time.Now()
	err := exec.Execute(ctx, embedCall(retryableIf(errTemp)), func(context.Context) error {
		cancel()
		return errTemp
	})
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected last error, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("expected cancellation to cut the backoff short")
	}
}

func TestExecuteSkipsRetryThatWouldOutliveDeadline(t *testing.T) {
	retries := 0
	exec := NewExecutor(Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Second,
		RetryMaxBackoff:     time.Second,
		OnRetry:             func(string, string) { retries++ },
	})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	attempts := 0
	errTemp := errors.New("temporary")
	start := time.Now()
	err := exec.Execute(ctx, embedCall(retryableIf(errTemp)), func(context.Context) error {
		attempts++
		return errTemp
	})
	if !errors.Is(err, errTemp) {
		t.Fatalf("expected last error, got %v", err)
	}
	if attempts != 1 || retries != 0 {
		t.Fatalf("expected no retry, got attempts=%d retries=%d", attempts, retries)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Fatalf("expected immediate return instead of sleeping toward the deadline")
	}
}

func TestExecuteOpensCircuitPerOperation(t *testing.T) {
	var transitions []string
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      50 * time.Millisecond,
		BreakerHalfOpenMaxCalls: 1,
		OnStateChange: func(upstream, op, to string) {
			transitions = append(transitions, upstream+"/"+op+"->"+to)
		},
	})

	errTemp := errors.New("temporary")
	generate := Call{Upstream: UpstreamCompletion, Operation: "gemini.generate", Classify: func(error) ErrorClassification { return Permanent }}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), generate, func(context.Context) error { return errTemp })
		if !errors.Is(err, errTemp) {
			t.Fatalf("expected temporary error on iteration %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), generate, func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) || !IsCircuitOpen(err) {
		t.Fatalf("expected open state error, got %v", err)
	}
	if len(transitions) != 1 || transitions[0] != "completion/gemini.generate->open" {
		t.Fatalf("unexpected transitions: %v", transitions)
	}

	embedded := false
	if err := exec.Execute(context.Background(), embedCall(nil), func(context.Context) error {
		embedded = true
		return nil
	}); err != nil || !embedded {
		t.Fatalf("open completion breaker must not block embedding, err=%v", err)
	}
}

func TestRejectedFailuresDoNotTripBreaker(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:   1,
		BreakerEnabled:     true,
		BreakerMinRequests: 2,
	})
	call := Call{Upstream: UpstreamMessaging, Operation: "nats.publish.lead", Classify: func(error) ErrorClassification { return Rejected }}

	for i := 0; i < 5; i++ {
		_ = exec.Execute(context.Background(), call, func(context.Context) error { return context.Canceled })
	}
	ran := false
	_ = exec.Execute(context.Background(), call, func(context.Context) error { ran = true; return nil })
	if !ran {
		t.Fatalf("caller faults must not open the breaker")
	}
}
