package usecase

import (
	"context"

	"github.com/duihelp/leadgen/internal/core/domain"
	"github.com/duihelp/leadgen/internal/core/ports"
)

// Retriever embeds a question and ranks knowledge chunks by vector
// similarity. It never substitutes keyword matching for a failed embedding.
type Retriever struct {
	embedder  ports.Embedder
	store     ports.KnowledgeStore
	limit     int
	threshold float64
}

func NewRetriever(embedder ports.Embedder, store ports.KnowledgeStore, limit int, threshold float64) *Retriever {
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	if threshold <= 0 || threshold > 1 {
		threshold = domain.DefaultSimilarityThreshold
	}
	return &Retriever{
		embedder:  embedder,
		store:     store,
		limit:     limit,
		threshold: threshold,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, question string, filter domain.SearchFilter) ([]domain.SearchResult, error) {
	return r.RetrieveWith(ctx, question, filter, r.limit, r.threshold)
}

// RetrieveWith is Retrieve with per-call limit and threshold overrides.
func (r *Retriever) RetrieveWith(
	ctx context.Context,
	question string,
	filter domain.SearchFilter,
	limit int,
	threshold float64,
) ([]domain.SearchResult, error) {
	if limit <= 0 {
		limit = r.limit
	}
	if threshold <= 0 || threshold > 1 {
		threshold = r.threshold
	}

	vector, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, ensureKind(domain.ErrEmbeddingUnavailable, "embed query", err)
	}

	results, err := r.store.SearchSimilar(ctx, vector, filter, limit, threshold)
	if err != nil {
		return nil, ensureKind(domain.ErrStoreUnavailable, "search similar", err)
	}
	if results == nil {
		results = []domain.SearchResult{}
	}
	return results, nil
}
