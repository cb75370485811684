package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/duihelp/leadgen/internal/core/domain"
	"github.com/duihelp/leadgen/internal/core/ports"
)

// Synthesizer turns retrieved snippets into a cited answer.
type Synthesizer struct {
	generator ports.AnswerGenerator
}

func NewSynthesizer(generator ports.AnswerGenerator) *Synthesizer {
	return &Synthesizer{generator: generator}
}

func (s *Synthesizer) Synthesize(ctx context.Context, question string, results []domain.SearchResult) (*domain.Answer, error) {
	if len(results) == 0 {
		return &domain.Answer{
			Text:       NoInformationAnswer,
			Sources:    []domain.SearchResult{},
			Confidence: domain.ConfidenceNone,
		}, nil
	}

	contextBlock := buildContext(results)
	text, err := s.generator.GenerateFromPrompt(ctx, buildAnswerPrompt(question, contextBlock))
	if err != nil {
		return nil, domain.WrapError(domain.ErrSynthesisUnavailable, "generate answer", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrSynthesisUnavailable, "generate answer", errors.New("empty completion"))
	}

	return &domain.Answer{
		Text:       text,
		Context:    contextBlock,
		Sources:    results,
		Confidence: confidenceFor(results),
	}, nil
}

func confidenceFor(results []domain.SearchResult) domain.Confidence {
	if len(results) == 0 {
		return domain.ConfidenceNone
	}
	top := results[0].Similarity
	switch {
	case top >= 0.85:
		return domain.ConfidenceHigh
	case top >= 0.78:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}
