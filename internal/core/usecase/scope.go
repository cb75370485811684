package usecase

import (
	"context"
	"strings"

	"github.com/duihelp/leadgen/internal/core/domain"
	"github.com/duihelp/leadgen/internal/core/ports"
)

// jurisdictionScope maps user-typed state and county references ("TX",
// "Texas", "Harris County") onto the directory slugs chunks are tagged with.
type jurisdictionScope struct {
	repo ports.JurisdictionRepository
}

func (s jurisdictionScope) canonical(ctx context.Context, state, county string) (string, string, error) {
	state, county = strings.TrimSpace(state), strings.TrimSpace(county)
	switch {
	case state == "" && county == "":
		return "", "", nil
	case state == "":
		verr := &domain.ValidationError{}
		verr.Add("state", "state is required when county is set")
		return "", "", verr
	case county == "":
		st, err := s.repo.ResolveState(ctx, state)
		if err != nil {
			return "", "", ensureKind(domain.ErrStoreUnavailable, "resolve state", err)
		}
		return st.Slug, "", nil
	default:
		j, err := s.repo.ResolveJurisdiction(ctx, state, county)
		if err != nil {
			return "", "", ensureKind(domain.ErrStoreUnavailable, "resolve jurisdiction", err)
		}
		return j.State.Slug, j.County.Slug, nil
	}
}

func (s jurisdictionScope) filter(ctx context.Context, f domain.SearchFilter) (domain.SearchFilter, error) {
	state, county, err := s.canonical(ctx, f.State, f.County)
	if err != nil {
		return domain.SearchFilter{}, err
	}
	return domain.SearchFilter{
		State:  state,
		County: county,
		Topic:  strings.ToLower(strings.TrimSpace(f.Topic)),
		Phase:  strings.ToLower(strings.TrimSpace(f.Phase)),
	}, nil
}
