package usecase

import (
	"context"
	"strings"

	"github.com/duihelp/leadgen/internal/core/domain"
	"github.com/duihelp/leadgen/internal/core/ports"
)

// AskUseCase answers a jurisdiction-scoped question over the knowledge base.
type AskUseCase struct {
	retriever   *Retriever
	synthesizer *Synthesizer
	scope       jurisdictionScope
}

func NewAskUseCase(retriever *Retriever, synthesizer *Synthesizer, jurisdictions ports.JurisdictionRepository) *AskUseCase {
	return &AskUseCase{
		retriever:   retriever,
		synthesizer: synthesizer,
		scope:       jurisdictionScope{repo: jurisdictions},
	}
}

func (uc *AskUseCase) Ask(ctx context.Context, query domain.Query) (*domain.Answer, error) {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(query.Question) == "" {
		verr.Add("question", "question is required")
	}
	if strings.TrimSpace(query.Filter.State) == "" {
		verr.Add("state", "state is required")
	}
	if strings.TrimSpace(query.Filter.County) == "" {
		verr.Add("county", "county is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	filter, err := uc.scope.filter(ctx, query.Filter)
	if err != nil {
		return nil, err
	}
	results, err := uc.retriever.Retrieve(ctx, query.Question, filter)
	if err != nil {
		return nil, err
	}
	return uc.synthesizer.Synthesize(ctx, query.Question, results)
}
