package domain

import "time"

type LeadSource string

const (
	SourceWebForm LeadSource = "web_form"
	SourcePhone   LeadSource = "phone"
	SourceVoice   LeadSource = "voice"
)

// IsVoiceChannel reports whether the lead arrived by phone or voice agent.
func (s LeadSource) IsVoiceChannel() bool {
	return s == SourcePhone || s == SourceVoice
}

type ArrestRecency string

const (
	RecencyToday     ArrestRecency = "today"
	RecencyThisWeek  ArrestRecency = "this_week"
	RecencyThisMonth ArrestRecency = "this_month"
	RecencyOlder     ArrestRecency = "older"
	RecencyUnknown   ArrestRecency = "unknown"
)

type LeadStatus string

const LeadStatusNew LeadStatus = "new"

const (
	MinUrgencyScore = 0
	MaxUrgencyScore = 10
)

type CaseDetails struct {
	Source         LeadSource    `json:"source"`
	ArrestRecency  ArrestRecency `json:"arrest_recency"`
	IsFirstOffense *bool         `json:"is_first_offense"`
	HasAccident    bool          `json:"has_accident"`
	HasInjury      bool          `json:"has_injury"`
	HasCDL         bool          `json:"has_cdl"`
}

// RepeatOffense is true only when the caller said this is not a first
// offense. An unanswered question is not evidence of a prior.
func (d CaseDetails) RepeatOffense() bool {
	return d.IsFirstOffense != nil && !*d.IsFirstOffense
}

type Lead struct {
	ID               string        `json:"id"`
	Source           LeadSource    `json:"source"`
	FirstName        string        `json:"first_name"`
	LastName         string        `json:"last_name"`
	Email            string        `json:"email,omitempty"`
	Phone            string        `json:"phone"`
	StateID          int64         `json:"state_id"`
	CountyID         int64         `json:"county_id"`
	ArrestRecency    ArrestRecency `json:"arrest_recency"`
	IsFirstOffense   *bool         `json:"is_first_offense"`
	HasAccident      bool          `json:"has_accident"`
	HasInjury        bool          `json:"has_injury"`
	HasCDL           bool          `json:"has_cdl"`
	BACLevel         *float64      `json:"bac_level,omitempty"`
	ConsentToContact bool          `json:"consent_to_contact"`
	ConsentToSMS     bool          `json:"consent_to_sms"`
	CallID           string        `json:"call_id,omitempty"`
	UrgencyScore     int           `json:"urgency_score"`
	Status           LeadStatus    `json:"status"`
	CreatedAt        time.Time     `json:"created_at"`
}

func (l Lead) CaseDetails() CaseDetails {
	return CaseDetails{
		Source:         l.Source,
		ArrestRecency:  l.ArrestRecency,
		IsFirstOffense: l.IsFirstOffense,
		HasAccident:    l.HasAccident,
		HasInjury:      l.HasInjury,
		HasCDL:         l.HasCDL,
	}
}

// LeadSubmission is the raw intake payload shared by the web form and the
// voice webhook.
type LeadSubmission struct {
	Source           string   `json:"source" validate:"required,oneof=web_form phone voice"`
	FirstName        string   `json:"first_name" validate:"required,max=100"`
	LastName         string   `json:"last_name" validate:"required,max=100"`
	Email            string   `json:"email" validate:"omitempty,email"`
	Phone            string   `json:"phone" validate:"required,phone"`
	State            string   `json:"state" validate:"required"`
	County           string   `json:"county" validate:"required"`
	ArrestRecency    string   `json:"arrest_recency" validate:"omitempty,oneof=today this_week this_month older unknown"`
	IsFirstOffense   *bool    `json:"is_first_offense"`
	HasAccident      bool     `json:"has_accident"`
	HasInjury        bool     `json:"has_injury"`
	HasCDL           bool     `json:"has_cdl"`
	BACLevel         *float64 `json:"bac_level" validate:"omitempty,gte=0,lte=1"`
	ConsentToContact bool     `json:"consent_to_contact"`
	ConsentToSMS     bool     `json:"consent_to_sms"`
	CallID           string   `json:"call_id,omitempty"`
}

type LeadReceipt struct {
	LeadID       string `json:"lead_id"`
	Message      string `json:"message"`
	FollowUpPath string `json:"follow_up_path"`
	UrgencyScore int    `json:"urgency_score"`
}

// LeadCreatedEvent is published for the downstream assignment workflow.
type LeadCreatedEvent struct {
	LeadID       string     `json:"lead_id"`
	Source       LeadSource `json:"source"`
	State        string     `json:"state"`
	County       string     `json:"county"`
	UrgencyScore int        `json:"urgency_score"`
	CreatedAt    time.Time  `json:"created_at"`
}
