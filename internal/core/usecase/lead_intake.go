package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/duihelp/leadgen/internal/core/domain"
	"github.com/duihelp/leadgen/internal/core/ports"
)

// LeadIntakeUseCase validates, resolves, scores and persists a lead.
type LeadIntakeUseCase struct {
	jurisdictions ports.JurisdictionRepository
	leads         ports.LeadRepository
	events        ports.LeadEventPublisher
	validator     *LeadValidator
	now           func() time.Time
}

func NewLeadIntakeUseCase(
	jurisdictions ports.JurisdictionRepository,
	leads ports.LeadRepository,
	events ports.LeadEventPublisher,
) *LeadIntakeUseCase {
	return &LeadIntakeUseCase{
		jurisdictions: jurisdictions,
		leads:         leads,
		events:        events,
		validator:     NewLeadValidator(),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (uc *LeadIntakeUseCase) Submit(ctx context.Context, s domain.LeadSubmission) (*domain.LeadReceipt, error) {
	s = normalizeSubmission(s)
	if err := uc.validator.Validate(s); err != nil {
		return nil, err
	}

	jurisdiction, err := uc.jurisdictions.ResolveJurisdiction(ctx, s.State, s.County)
	if err != nil {
		return nil, ensureKind(domain.ErrStoreUnavailable, "resolve jurisdiction", err)
	}

	lead := &domain.Lead{
		ID:               uuid.NewString(),
		Source:           domain.LeadSource(s.Source),
		FirstName:        s.FirstName,
		LastName:         s.LastName,
		Email:            s.Email,
		Phone:            phoneDigits(s.Phone),
		StateID:          jurisdiction.State.ID,
		CountyID:         jurisdiction.County.ID,
		ArrestRecency:    domain.ArrestRecency(s.ArrestRecency),
		IsFirstOffense:   s.IsFirstOffense,
		HasAccident:      s.HasAccident,
		HasInjury:        s.HasInjury,
		HasCDL:           s.HasCDL,
		BACLevel:         s.BACLevel,
		ConsentToContact: s.ConsentToContact,
		ConsentToSMS:     s.ConsentToSMS,
		CallID:           s.CallID,
		Status:           domain.LeadStatusNew,
		CreatedAt:        uc.now(),
	}
	lead.UrgencyScore = ScoreLead(lead.CaseDetails())

	if err := uc.leads.CreateLead(ctx, lead); err != nil {
		return nil, ensureKind(domain.ErrPersistence, "create lead", err)
	}

	uc.publishCreated(ctx, lead, jurisdiction)

	return &domain.LeadReceipt{
		LeadID:       lead.ID,
		Message:      confirmationMessage(lead, jurisdiction),
		FollowUpPath: jurisdiction.FollowUpPath(),
		UrgencyScore: lead.UrgencyScore,
	}, nil
}

func (uc *LeadIntakeUseCase) publishCreated(ctx context.Context, lead *domain.Lead, j *domain.Jurisdiction) {
	if uc.events == nil {
		return
	}
	event := domain.LeadCreatedEvent{
		LeadID:       lead.ID,
		Source:       lead.Source,
		State:        j.State.Slug,
		County:       j.County.Slug,
		UrgencyScore: lead.UrgencyScore,
		CreatedAt:    lead.CreatedAt,
	}
	// The lead is already stored at this point; publish failures are logged only.
	if err := uc.events.PublishLeadCreated(ctx, event); err != nil {
		slog.Warn("lead_event_publish_failed", "lead_id", lead.ID, "error", err)
	}
}

func confirmationMessage(lead *domain.Lead, j *domain.Jurisdiction) string {
	if lead.Source == domain.SourceVoice {
		return fmt.Sprintf(
			"Thanks, %s. I've passed your information to a DUI defense attorney who handles cases in %s County. They will call you back shortly.",
			lead.FirstName, j.County.Name,
		)
	}
	return fmt.Sprintf(
		"Thank you, %s. A DUI defense attorney serving %s County, %s will contact you shortly.",
		lead.FirstName, j.County.Name, j.State.Name,
	)
}

func normalizeSubmission(s domain.LeadSubmission) domain.LeadSubmission {
	s.Source = strings.ToLower(strings.TrimSpace(s.Source))
	s.FirstName = strings.TrimSpace(s.FirstName)
	s.LastName = strings.TrimSpace(s.LastName)
	s.Email = strings.TrimSpace(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.State = strings.TrimSpace(s.State)
	s.County = strings.TrimSpace(s.County)
	s.ArrestRecency = NormalizeRecency(s.ArrestRecency)
	return s
}
