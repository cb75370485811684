package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/duihelp/leadgen/internal/core/domain"
)

type seedRepoFake struct {
	intakeJurisdictionsFake
	states   []string
	counties []string
	failOn   string
}

func (f *seedRepoFake) UpsertState(_ context.Context, s domain.StateSeed) (int64, error) {
	f.states = append(f.states, s.Code)
	return int64(len(f.states)), nil
}

func (f *seedRepoFake) UpsertCounty(_ context.Context, _ int64, c domain.CountySeed) error {
	if c.Name == f.failOn {
		return errors.New("constraint violation")
	}
	f.counties = append(f.counties, c.Name)
	return nil
}

func TestSeedJurisdictionsUpsertsStatesAndCounties(t *testing.T) {
	repo := &seedRepoFake{}
	seeds := []domain.StateSeed{
		{Code: "TX", Name: "Texas", Counties: []domain.CountySeed{{Name: "Harris"}, {Name: "Travis"}}},
		{Code: "LA", Name: "Louisiana", Counties: []domain.CountySeed{{Name: "Orleans Parish"}}},
	}

	states, counties, err := SeedJurisdictions(context.Background(), repo, seeds)
	if err != nil {
		t.Fatalf("SeedJurisdictions() error = %v", err)
	}
	if states != 2 || counties != 3 {
		t.Fatalf("expected 2 states / 3 counties, got %d / %d", states, counties)
	}
}

func TestSeedJurisdictionsRejectsBadStateCode(t *testing.T) {
	_, _, err := SeedJurisdictions(context.Background(), &seedRepoFake{}, []domain.StateSeed{{Code: "Tex", Name: "Texas"}})
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSeedJurisdictionsStopsOnRepositoryError(t *testing.T) {
	repo := &seedRepoFake{failOn: "Travis"}
	_, counties, err := SeedJurisdictions(context.Background(), repo, []domain.StateSeed{
		{Code: "TX", Name: "Texas", Counties: []domain.CountySeed{{Name: "Harris"}, {Name: "Travis"}, {Name: "Dallas"}}},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if counties != 1 {
		t.Fatalf("expected 1 county before failure, got %d", counties)
	}
}

func TestDirectoryGetCountyPassesNotFoundThrough(t *testing.T) {
	uc := NewDirectoryUseCase(&intakeJurisdictionsFake{
		err: domain.WrapError(domain.ErrJurisdictionNotFound, "resolve", errors.New("texas/nowhere")),
	})
	if _, err := uc.GetCounty(context.Background(), "texas", "nowhere"); !domain.IsKind(err, domain.ErrJurisdictionNotFound) {
		t.Fatalf("expected ErrJurisdictionNotFound, got %v", err)
	}
}

func TestDirectoryStoreErrorIsUnavailable(t *testing.T) {
	uc := NewDirectoryUseCase(&intakeJurisdictionsFake{err: errors.New("conn refused")})
	if _, err := uc.GetCounty(context.Background(), "texas", "harris"); !domain.IsKind(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
