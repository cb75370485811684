package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Upstream is the kind of dependency a guarded call reaches. Logs and
// metric hooks carry it so an embedding outage is distinguishable from a
// completion or messaging one.
type Upstream string

const (
	UpstreamEmbedding  Upstream = "embedding"
	UpstreamCompletion Upstream = "completion"
	UpstreamMessaging  Upstream = "messaging"
)

type ErrorClassification struct {
	Retryable     bool
	RecordFailure bool
}

type ErrorClassifier func(err error) ErrorClassification

// Call describes one guarded operation. Every distinct Operation owns a
// circuit breaker, so a tripped completion model leaves embedding alone.
type Call struct {
	Upstream  Upstream
	Operation string
	Classify  ErrorClassifier
}

func (c Call) normalize() Call {
	c.Operation = strings.TrimSpace(c.Operation)
	if c.Operation == "" {
		c.Operation = "unknown"
	}
	if c.Upstream == "" {
		c.Upstream = "unknown"
	}
	if c.Classify == nil {
		c.Classify = func(error) ErrorClassification { return Permanent }
	}
	return c
}

type Executor struct {
	cfg Config

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

func NewExecutor(cfg Config) *Executor {
	return &Executor{
		cfg:      cfg.normalize(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

// Execute runs fn under the call's breaker with at most
// Config.RetryMaxAttempts attempts. The breaker sees one outcome per
// Execute, not one per attempt.
func (e *Executor) Execute(ctx context.Context, call Call, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("resilience: %s callback is nil", call.Operation)
	}
	call = call.normalize()

	if !e.cfg.BreakerEnabled {
		return e.attempts(ctx, call, fn)
	}
	_, err := e.breakerFor(call).Execute(func() (struct{}, error) {
		return struct{}{}, e.attempts(ctx, call, fn)
	})
	return err
}

func (e *Executor) attempts(ctx context.Context, call Call, fn func(context.Context) error) error {
	backoff := e.cfg.RetryInitialBackoff
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= e.cfg.RetryMaxAttempts || !call.Classify(err).Retryable {
			return err
		}

		wait := min(backoff, e.cfg.RetryMaxBackoff)
		// A retry that cannot start before the deadline only delays the error.
		if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= wait {
			slog.Warn("upstream_retry_skipped",
				"upstream", call.Upstream,
				"operation", call.Operation,
				"attempt", attempt,
				"error", err,
			)
			return err
		}

		slog.Warn("upstream_retry",
			"upstream", call.Upstream,
			"operation", call.Operation,
			"attempt", attempt,
			"max_attempts", e.cfg.RetryMaxAttempts,
			"backoff_ms", wait.Milliseconds(),
			"error", err,
		)
		if e.cfg.OnRetry != nil {
			e.cfg.OnRetry(string(call.Upstream), call.Operation)
		}
		if !sleepCtx(ctx, wait) {
			return err
		}
		backoff = min(time.Duration(float64(backoff)*e.cfg.RetryMultiplier), e.cfg.RetryMaxBackoff)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (e *Executor) breakerFor(call Call) *gobreaker.CircuitBreaker[struct{}] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if breaker, ok := e.breakers[call.Operation]; ok {
		return breaker
	}

	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        call.Operation,
		MaxRequests: e.cfg.BreakerHalfOpenMaxCalls,
		Timeout:     e.cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < e.cfg.BreakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= e.cfg.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !call.Classify(err).RecordFailure
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("upstream_breaker_state_change",
				"upstream", call.Upstream,
				"operation", name,
				"from", from.String(),
				"to", to.String(),
			)
			if e.cfg.OnStateChange != nil {
				e.cfg.OnStateChange(string(call.Upstream), name, to.String())
			}
		},
	})
	e.breakers[call.Operation] = breaker
	return breaker
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
