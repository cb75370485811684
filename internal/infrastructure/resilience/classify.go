package resilience

import (
	"context"
	"errors"

	"github.com/duihelp/leadgen/internal/core/domain"
)

var (
	// Transient failures are retried and count against the breaker.
	Transient = ErrorClassification{Retryable: true, RecordFailure: true}
	// Permanent failures are not retried but still count against the breaker.
	Permanent = ErrorClassification{Retryable: false, RecordFailure: true}
	// Rejected covers cancellation and caller faults: no retry, no breaker impact.
	Rejected = ErrorClassification{}
)

// ClassifyCommon handles the cases every upstream treats alike. ok is false
// when the adapter has to classify err itself.
func ClassifyCommon(err error) (ErrorClassification, bool) {
	switch {
	case err == nil:
		return Rejected, true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Rejected, true
	case IsCircuitOpen(err):
		return Transient, true
	default:
		return ErrorClassification{}, false
	}
}

// WrapTemporary tags retryable failures with domain.ErrTemporary so callers
// can tell an outage from a bad request.
func WrapTemporary(operation string, err error, classify ErrorClassifier) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classify(err).Retryable || IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return err
}
