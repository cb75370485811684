package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/duihelp/leadgen/internal/core/domain"
	"github.com/duihelp/leadgen/internal/infrastructure/resilience"
)

type Options struct {
	EmbedTimeout    time.Duration
	GenerateTimeout time.Duration
	EmbedMaxChars   int
	// Dimensions is the expected vector width; zero disables the check.
	Dimensions         int
	Temperature        float32
	ResilienceExecutor *resilience.Executor
}

type Client struct {
	api        *genai.Client
	genModel   string
	embedModel string
	executor   *resilience.Executor
	opts       Options
}

func New(ctx context.Context, apiKey, genModel, embedModel string, opts Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is required")
	}
	api, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{
		api:        api,
		genModel:   genModel,
		embedModel: embedModel,
		executor:   opts.ResilienceExecutor,
		opts:       opts,
	}, nil
}

func (c *Client) Close() error {
	if c.api == nil {
		return nil
	}
	return c.api.Close()
}

type embedFunc func(ctx context.Context, texts []string, task genai.TaskType) ([][]float32, error)

type Embedder struct {
	client *Client
	embed  embedFunc
}

func NewEmbedder(client *Client) *Embedder {
	e := &Embedder{client: client}
	e.embed = e.batchEmbed
	return e
}

// Embed embeds knowledge chunks as retrieval documents.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return e.run(ctx, texts, genai.TaskTypeRetrievalDocument)
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.run(ctx, []string{text}, genai.TaskTypeRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *Embedder) run(ctx context.Context, texts []string, task genai.TaskType) ([][]float32, error) {
	input := make([]string, len(texts))
	for i, text := range texts {
		input[i] = truncateForEmbedding(text, e.client.opts.EmbedMaxChars)
	}

	var vectors [][]float32
	err := e.client.call(ctx, resilience.UpstreamEmbedding, "gemini.embed", e.client.opts.EmbedTimeout, func(callCtx context.Context) error {
		out, err := e.embed(callCtx, input, task)
		if err != nil {
			return err
		}
		vectors = out
		return nil
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "gemini embed", err)
	}
	if len(vectors) != len(texts) {
		return nil, domain.WrapError(
			domain.ErrEmbeddingUnavailable,
			"gemini embed",
			fmt.Errorf("expected %d vectors, got %d", len(texts), len(vectors)),
		)
	}
	if err := checkDimensions(vectors, e.client.opts.Dimensions); err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingUnavailable, "gemini embed", err)
	}
	return vectors, nil
}

func (e *Embedder) batchEmbed(ctx context.Context, texts []string, task genai.TaskType) ([][]float32, error) {
	model := e.client.api.EmbeddingModel(e.client.embedModel)
	model.TaskType = task

	batch := model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}
	resp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(resp.Embeddings))
	for _, emb := range resp.Embeddings {
		if emb == nil {
			return nil, errors.New("gemini returned a nil embedding")
		}
		out = append(out, emb.Values)
	}
	return out, nil
}

type generateFunc func(ctx context.Context, prompt string) (string, error)

type Generator struct {
	client   *Client
	generate generateFunc
}

func NewGenerator(client *Client) *Generator {
	g := &Generator{client: client}
	g.generate = g.generateContent
	return g
}

func (g *Generator) GenerateFromPrompt(ctx context.Context, prompt string) (string, error) {
	var text string
	err := g.client.call(ctx, resilience.UpstreamCompletion, "gemini.generate", g.client.opts.GenerateTimeout, func(callCtx context.Context) error {
		out, err := g.generate(callCtx, prompt)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrSynthesisUnavailable, "gemini generate", err)
	}
	return strings.TrimSpace(text), nil
}

func (g *Generator) generateContent(ctx context.Context, prompt string) (string, error) {
	model := g.client.api.GenerativeModel(g.client.genModel)
	model.SetTemperature(g.client.opts.Temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		break
	}
	return b.String(), nil
}

// call bounds the whole operation, retries included, by timeout.
func (c *Client) call(ctx context.Context, upstream resilience.Upstream, operation string, timeout time.Duration, fn func(context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, resilience.Call{Upstream: upstream, Operation: operation, Classify: classifyGeminiError}, fn)
	} else {
		err = fn(ctx)
	}
	return resilience.WrapTemporary(operation, err, classifyGeminiError)
}

func classifyGeminiError(err error) resilience.ErrorClassification {
	if class, ok := resilience.ClassifyCommon(err); ok {
		return class
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return resilience.Transient
		default:
			return resilience.Rejected
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.Transient
	}
	return resilience.Permanent
}

func truncateForEmbedding(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	slog.Warn("embedding_input_truncated", "provider", "gemini", "chars", len(runes), "max_chars", maxChars)
	return string(runes[:maxChars])
}

func checkDimensions(vectors [][]float32, want int) error {
	if want <= 0 {
		return nil
	}
	for i, v := range vectors {
		if len(v) != want {
			return fmt.Errorf("vector %d has %d dimensions, want %d", i, len(v), want)
		}
	}
	return nil
}
