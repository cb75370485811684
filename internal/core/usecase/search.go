package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/duihelp/leadgen/internal/core/domain"
	"github.com/duihelp/leadgen/internal/core/ports"
)

const maxSearchLimit = 50

// SearchUseCase serves the search endpoint in either primary (vector) or
// explicitly requested degraded (keyword) mode.
type SearchUseCase struct {
	retriever *Retriever
	store     ports.KnowledgeStore
	scope     jurisdictionScope
}

func NewSearchUseCase(retriever *Retriever, store ports.KnowledgeStore, jurisdictions ports.JurisdictionRepository) *SearchUseCase {
	return &SearchUseCase{
		retriever: retriever,
		store:     store,
		scope:     jurisdictionScope{repo: jurisdictions},
	}
}

func (uc *SearchUseCase) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResults, error) {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(req.Query) == "" {
		verr.Add("query", "query is required")
	}
	if req.Limit < 0 || req.Limit > maxSearchLimit {
		verr.Add("limit", fmt.Sprintf("limit must be between 1 and %d", maxSearchLimit))
	}
	if req.Threshold < 0 || req.Threshold > 1 {
		verr.Add("similarity_threshold", "similarity_threshold must be between 0 and 1")
	}
	switch req.Mode {
	case "", domain.ModePrimary, domain.ModeDegraded:
	default:
		verr.Add("mode", "mode must be vector or keyword")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	filter, err := uc.scope.filter(ctx, req.Filter)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit == 0 {
		limit = domain.DefaultSearchLimit
	}

	if req.Mode == domain.ModeDegraded {
		results, err := uc.store.SearchKeyword(ctx, req.Query, filter, limit)
		if err != nil {
			return nil, ensureKind(domain.ErrStoreUnavailable, "keyword search", err)
		}
		if results == nil {
			results = []domain.SearchResult{}
		}
		return &domain.SearchResults{Mode: domain.ModeDegraded, Results: results}, nil
	}

	results, err := uc.retriever.RetrieveWith(ctx, req.Query, filter, limit, req.Threshold)
	if err != nil {
		return nil, err
	}
	return &domain.SearchResults{Mode: domain.ModePrimary, Results: results}, nil
}
