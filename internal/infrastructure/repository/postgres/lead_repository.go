package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/duihelp/leadgen/internal/core/domain"
)

type LeadRepository struct {
	db *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) CreateLead(ctx context.Context, lead *domain.Lead) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO leads (
	id, source, first_name, last_name, email, phone, state_id, county_id, arrest_recency,
	is_first_offense, has_accident, has_injury, has_cdl, bac_level,
	consent_to_contact, consent_to_sms, call_id, urgency_score, status, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
`,
		lead.ID, string(lead.Source), lead.FirstName, lead.LastName, lead.Email, lead.Phone,
		lead.StateID, lead.CountyID, string(lead.ArrestRecency),
		lead.IsFirstOffense, lead.HasAccident, lead.HasInjury, lead.HasCDL, lead.BACLevel,
		lead.ConsentToContact, lead.ConsentToSMS, lead.CallID, lead.UrgencyScore, string(lead.Status), lead.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}
