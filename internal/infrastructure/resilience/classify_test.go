package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/duihelp/leadgen/internal/core/domain"
)

func TestClassifyCommon(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    ErrorClassification
		handled bool
	}{
		{name: "nil", err: nil, want: Rejected, handled: true},
		{name: "canceled", err: fmt.Errorf("embed: %w", context.Canceled), want: Rejected, handled: true},
		{name: "deadline", err: context.DeadlineExceeded, want: Rejected, handled: true},
		{name: "breaker open", err: gobreaker.ErrOpenState, want: Transient, handled: true},
		{name: "other", err: errors.New("boom"), handled: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, handled := ClassifyCommon(tt.err)
			if handled != tt.handled {
				t.Fatalf("handled = %v, want %v", handled, tt.handled)
			}
			if handled && got != tt.want {
				t.Fatalf("classification = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWrapTemporary(t *testing.T) {
	retryAll := func(error) ErrorClassification { return Transient }
	retryNone := func(error) ErrorClassification { return Permanent }

	err := WrapTemporary("gemini.embed", errors.New("503"), retryAll)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary kind, got %v", err)
	}
	if again := WrapTemporary("gemini.embed", err, retryAll); again != err {
		t.Fatalf("already temporary errors must not be wrapped twice")
	}
	if err := WrapTemporary("gemini.embed", errors.New("400"), retryNone); domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("permanent errors must not be temporary")
	}
	if err := WrapTemporary("gemini.embed", gobreaker.ErrOpenState, retryNone); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("open breaker must be temporary, got %v", err)
	}
	if WrapTemporary("op", nil, retryAll) != nil {
		t.Fatalf("nil stays nil")
	}
}
