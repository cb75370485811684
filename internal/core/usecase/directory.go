package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/duihelp/leadgen/internal/core/domain"
	"github.com/duihelp/leadgen/internal/core/ports"
)

type DirectoryUseCase struct {
	repo ports.JurisdictionRepository
}

func NewDirectoryUseCase(repo ports.JurisdictionRepository) *DirectoryUseCase {
	return &DirectoryUseCase{repo: repo}
}

func (uc *DirectoryUseCase) ListStates(ctx context.Context) ([]domain.State, error) {
	states, err := uc.repo.ListStates(ctx)
	if err != nil {
		return nil, ensureKind(domain.ErrStoreUnavailable, "list states", err)
	}
	return states, nil
}

func (uc *DirectoryUseCase) ListCounties(ctx context.Context, state string) ([]domain.County, error) {
	counties, err := uc.repo.ListCounties(ctx, domain.Slugify(state))
	if err != nil {
		return nil, ensureKind(domain.ErrStoreUnavailable, "list counties", err)
	}
	return counties, nil
}

func (uc *DirectoryUseCase) GetCounty(ctx context.Context, state, county string) (*domain.Jurisdiction, error) {
	j, err := uc.repo.ResolveJurisdiction(ctx, state, county)
	if err != nil {
		return nil, ensureKind(domain.ErrStoreUnavailable, "get county", err)
	}
	return j, nil
}

// SeedJurisdictions upserts states and their counties. It is idempotent.
func SeedJurisdictions(ctx context.Context, repo ports.JurisdictionRepository, seeds []domain.StateSeed) (int, int, error) {
	var states, counties int
	for _, seed := range seeds {
		if strings.TrimSpace(seed.Name) == "" || len(strings.TrimSpace(seed.Code)) != 2 {
			return states, counties, domain.WrapError(
				domain.ErrValidation,
				"seed jurisdictions",
				fmt.Errorf("state %q needs a name and a two-letter code", seed.Name),
			)
		}
		stateID, err := repo.UpsertState(ctx, seed)
		if err != nil {
			return states, counties, fmt.Errorf("upsert state %s: %w", seed.Code, err)
		}
		states++

		for _, c := range seed.Counties {
			if strings.TrimSpace(c.Name) == "" {
				return states, counties, domain.WrapError(domain.ErrValidation, "seed jurisdictions", errors.New("county name is required"))
			}
			if err := repo.UpsertCounty(ctx, stateID, c); err != nil {
				return states, counties, fmt.Errorf("upsert county %s/%s: %w", seed.Code, c.Name, err)
			}
			counties++
		}
	}
	return states, counties, nil
}
