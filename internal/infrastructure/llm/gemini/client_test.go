package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"

	"github.com/duihelp/leadgen/internal/core/domain"
	"github.com/duihelp/leadgen/internal/infrastructure/resilience"
)

func newTestEmbedder(opts Options, fn embedFunc) *Embedder {
	return &Embedder{client: &Client{executor: opts.ResilienceExecutor, opts: opts}, embed: fn}
}

func TestEmbedQueryUsesRetrievalQueryTask(t *testing.T) {
	var gotTask genai.TaskType
	e := newTestEmbedder(Options{}, func(_ context.Context, texts []string, task genai.TaskType) ([][]float32, error) {
		gotTask = task
		return [][]float32{{0.1, 0.2}}, nil
	})

	vec, err := e.EmbedQuery(context.Background(), "what happens at arraignment")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(vec) != 2 {
		t.Fatalf("unexpected vector: %v", vec)
	}
	if gotTask != genai.TaskTypeRetrievalQuery {
		t.Fatalf("expected retrieval query task, got %v", gotTask)
	}
}

func TestEmbedTruncatesLongInput(t *testing.T) {
	var got []string
	e := newTestEmbedder(Options{EmbedMaxChars: 4}, func(_ context.Context, texts []string, _ genai.TaskType) ([][]float32, error) {
		got = texts
		return [][]float32{{1}, {1}}, nil
	})

	if _, err := e.Embed(context.Background(), []string{"abcdefgh", "ab"}); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if got[0] != "abcd" || got[1] != "ab" {
		t.Fatalf("unexpected inputs: %v", got)
	}
}

func TestEmbedRetriesOnceOnServerError(t *testing.T) {
	calls := 0
	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
	})
	e := newTestEmbedder(Options{ResilienceExecutor: exec}, func(context.Context, []string, genai.TaskType) ([][]float32, error) {
		calls++
		return nil, &googleapi.Error{Code: http.StatusServiceUnavailable}
	})

	_, err := e.EmbedQuery(context.Background(), "q")
	if !domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestEmbedDoesNotRetryBadRequest(t *testing.T) {
	calls := 0
	exec := resilience.NewExecutor(resilience.Config{RetryMaxAttempts: 2, RetryInitialBackoff: time.Millisecond})
	e := newTestEmbedder(Options{ResilienceExecutor: exec}, func(context.Context, []string, genai.TaskType) ([][]float32, error) {
		calls++
		return nil, &googleapi.Error{Code: http.StatusBadRequest}
	})

	if _, err := e.EmbedQuery(context.Background(), "q"); err == nil {
		t.Fatalf("expected error")
	}
	if calls != 1 {
		t.Fatalf("expected 1 attempt, got %d", calls)
	}
}

func TestEmbedTimeoutIsUnavailable(t *testing.T) {
	e := newTestEmbedder(Options{EmbedTimeout: 10 * time.Millisecond}, func(ctx context.Context, _ []string, _ genai.TaskType) ([][]float32, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err := e.EmbedQuery(context.Background(), "q")
	if !domain.IsKind(err, domain.ErrEmbeddingUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected unavailable deadline error, got %v", err)
	}
}

func TestEmbedVectorCountMismatch(t *testing.T) {
	e := newTestEmbedder(Options{}, func(context.Context, []string, genai.TaskType) ([][]float32, error) {
		return [][]float32{}, nil
	})
	if _, err := e.EmbedQuery(context.Background(), "q"); !domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestEmbedRejectsWrongDimensions(t *testing.T) {
	e := newTestEmbedder(Options{Dimensions: domain.EmbeddingDimensions}, func(_ context.Context, texts []string, _ genai.TaskType) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = []float32{0.1, 0.2, 0.3}
		}
		return out, nil
	})
	if _, err := e.Embed(context.Background(), []string{"a", "b"}); !domain.IsKind(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestGenerateMapsFailureToSynthesisUnavailable(t *testing.T) {
	g := &Generator{client: &Client{}, generate: func(context.Context, string) (string, error) {
		return "", errors.New("quota exhausted")
	}}
	if _, err := g.GenerateFromPrompt(context.Background(), "p"); !domain.IsKind(err, domain.ErrSynthesisUnavailable) {
		t.Fatalf("expected ErrSynthesisUnavailable, got %v", err)
	}
}

func TestGenerateTrimsCompletion(t *testing.T) {
	g := &Generator{client: &Client{}, generate: func(context.Context, string) (string, error) {
		return "\n You should contact an attorney. \n", nil
	}}
	text, err := g.GenerateFromPrompt(context.Background(), "p")
	if err != nil {
		t.Fatalf("GenerateFromPrompt() error = %v", err)
	}
	if text != "You should contact an attorney." {
		t.Fatalf("unexpected text %q", text)
	}
}
