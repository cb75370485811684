package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/duihelp/leadgen/internal/core/domain"
)

type JurisdictionRepository struct {
	db *sql.DB
}

func NewJurisdictionRepository(db *sql.DB) *JurisdictionRepository {
	return &JurisdictionRepository{db: db}
}

func (r *JurisdictionRepository) ListStates(ctx context.Context) ([]domain.State, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, slug, code, name FROM states ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list states: %w", err)
	}
	defer rows.Close()

	out := make([]domain.State, 0)
	for rows.Next() {
		var s domain.State
		if err := rows.Scan(&s.ID, &s.Slug, &s.Code, &s.Name); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate states: %w", err)
	}
	return out, nil
}

// ListCounties lists the counties of a state given by slug or code.
func (r *JurisdictionRepository) ListCounties(ctx context.Context, state string) ([]domain.County, error) {
	stateID, err := r.resolveStateID(ctx, state)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, state_id, slug, name, court_name, court_address, court_phone, dmv_office, notes
FROM counties
WHERE state_id = $1
ORDER BY name
`, stateID)
	if err != nil {
		return nil, fmt.Errorf("list counties: %w", err)
	}
	defer rows.Close()

	out := make([]domain.County, 0)
	for rows.Next() {
		c, err := scanCounty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counties: %w", err)
	}
	return out, nil
}

// ResolveJurisdiction accepts a state slug, name or two-letter code and a
// county slug or name.
func (r *JurisdictionRepository) ResolveJurisdiction(ctx context.Context, state, county string) (*domain.Jurisdiction, error) {
	stateSlug, stateCode := stateKeys(state)
	countySlug := domain.Slugify(county)
	if stateSlug == "" || countySlug == "" {
		return nil, jurisdictionNotFound(state, county)
	}

	row := r.db.QueryRowContext(ctx, `
SELECT s.id, s.slug, s.code, s.name,
	c.id, c.state_id, c.slug, c.name, c.court_name, c.court_address, c.court_phone, c.dmv_office, c.notes
FROM counties c
JOIN states s ON s.id = c.state_id
WHERE (s.slug = $1 OR s.code = $2) AND c.slug = $3
`, stateSlug, stateCode, countySlug)

	var j domain.Jurisdiction
	err := row.Scan(
		&j.State.ID, &j.State.Slug, &j.State.Code, &j.State.Name,
		&j.County.ID, &j.County.StateID, &j.County.Slug, &j.County.Name, &j.County.CourtName,
		&j.County.CourtAddress, &j.County.CourtPhone, &j.County.DMVOffice, &j.County.Notes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, jurisdictionNotFound(state, county)
		}
		return nil, fmt.Errorf("resolve jurisdiction: %w", err)
	}
	return &j, nil
}

func (r *JurisdictionRepository) UpsertState(ctx context.Context, seed domain.StateSeed) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO states (slug, code, name)
VALUES ($1, $2, $3)
ON CONFLICT (code) DO UPDATE SET slug = EXCLUDED.slug, name = EXCLUDED.name
RETURNING id
`, domain.Slugify(seed.Name), strings.ToUpper(strings.TrimSpace(seed.Code)), strings.TrimSpace(seed.Name)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert state: %w", err)
	}
	return id, nil
}

func (r *JurisdictionRepository) UpsertCounty(ctx context.Context, stateID int64, seed domain.CountySeed) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO counties (state_id, slug, name, court_name, court_address, court_phone, dmv_office, notes)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (state_id, slug) DO UPDATE SET
	name = EXCLUDED.name,
	court_name = EXCLUDED.court_name,
	court_address = EXCLUDED.court_address,
	court_phone = EXCLUDED.court_phone,
	dmv_office = EXCLUDED.dmv_office,
	notes = EXCLUDED.notes
`, stateID, domain.Slugify(seed.Name), strings.TrimSpace(seed.Name), seed.CourtName, seed.CourtAddress,
		seed.CourtPhone, seed.DMVOffice, seed.Notes)
	if err != nil {
		return fmt.Errorf("upsert county: %w", err)
	}
	return nil
}

// ResolveState accepts a state slug, name or two-letter code.
func (r *JurisdictionRepository) ResolveState(ctx context.Context, state string) (*domain.State, error) {
	slug, code := stateKeys(state)
	if slug == "" {
		return nil, stateNotFound(state)
	}

	var st domain.State
	err := r.db.QueryRowContext(ctx, `SELECT id, slug, code, name FROM states WHERE slug = $1 OR code = $2`, slug, code).
		Scan(&st.ID, &st.Slug, &st.Code, &st.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, stateNotFound(state)
		}
		return nil, fmt.Errorf("resolve state: %w", err)
	}
	return &st, nil
}

func (r *JurisdictionRepository) resolveStateID(ctx context.Context, state string) (int64, error) {
	st, err := r.ResolveState(ctx, state)
	if err != nil {
		return 0, err
	}
	return st.ID, nil
}

func stateNotFound(state string) error {
	return domain.WrapError(domain.ErrJurisdictionNotFound, "resolve state", fmt.Errorf("state=%q", state))
}

func stateKeys(state string) (slug, code string) {
	return domain.Slugify(state), strings.ToUpper(strings.TrimSpace(state))
}

func jurisdictionNotFound(state, county string) error {
	return domain.WrapError(
		domain.ErrJurisdictionNotFound,
		"resolve jurisdiction",
		fmt.Errorf("state=%q county=%q", state, county),
	)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCounty(row rowScanner) (domain.County, error) {
	var c domain.County
	err := row.Scan(
		&c.ID, &c.StateID, &c.Slug, &c.Name, &c.CourtName,
		&c.CourtAddress, &c.CourtPhone, &c.DMVOffice, &c.Notes,
	)
	if err != nil {
		return domain.County{}, fmt.Errorf("scan county: %w", err)
	}
	return c, nil
}
