package httpadapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/duihelp/leadgen/internal/core/domain"
)

const (
	voiceSecretHeader    = "X-Vapi-Secret"
	voiceSubmitLeadTool  = "submit_lead"
	voiceFunctionCallMsg = "function-call"

	voiceRetryPrompt   = "I'm sorry, I couldn't save that. Could you confirm %s?"
	voiceFailureSpoken = "I'm sorry, I wasn't able to submit your information. Please stay on the line or call back in a few minutes."
	voiceUnknownPlace  = "I'm sorry, we don't have an attorney for that location yet. Could you repeat the county and state of your arrest?"
)

// voiceWebhookRequest is the function-call envelope sent by the voice agent
// platform. Parameters may arrive as an object or as a JSON encoded string.
type voiceWebhookRequest struct {
	Message struct {
		Type string `json:"type"`
		Call struct {
			ID string `json:"id"`
		} `json:"call"`
		FunctionCall struct {
			Name       string          `json:"name"`
			Parameters json.RawMessage `json:"parameters"`
		} `json:"functionCall"`
	} `json:"message"`
}

type voiceWebhookResponse struct {
	Result string              `json:"result"`
	Error  string              `json:"error,omitempty"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

func (rt *Router) voiceWebhook(w http.ResponseWriter, r *http.Request) {
	if rt.cfg.VoiceWebhookSecret != "" && !secretsEqual(r.Header.Get(voiceSecretHeader), rt.cfg.VoiceWebhookSecret) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	var req voiceWebhookRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	// Status updates and transcripts are acknowledged without action.
	if req.Message.Type != voiceFunctionCallMsg {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	if req.Message.FunctionCall.Name != voiceSubmitLeadTool {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unsupported function: " + req.Message.FunctionCall.Name})
		return
	}

	submission, err := decodeVoiceParameters(req.Message.FunctionCall.Parameters)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid function parameters"})
		return
	}
	submission.Source = string(domain.SourceVoice)
	submission.CallID = req.Message.Call.ID

	receipt, err := rt.svc.Leads.Submit(r.Context(), submission)
	if err != nil {
		rt.recordLead(submission.Source, err, 0)
		writeVoiceError(w, r, err)
		return
	}

	rt.recordLead(submission.Source, nil, receipt.UrgencyScore)
	writeJSON(w, http.StatusOK, voiceWebhookResponse{Result: receipt.Message})
}

func decodeVoiceParameters(raw json.RawMessage) (domain.LeadSubmission, error) {
	var submission domain.LeadSubmission
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return submission, err
		}
		raw = []byte(encoded)
	}
	if len(raw) == 0 {
		return submission, nil
	}
	err := json.Unmarshal(raw, &submission)
	return submission, err
}

func writeVoiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	body := newErrorResponse(err, status, leadFailedMessage)

	resp := voiceWebhookResponse{Error: body.Error, Fields: body.Fields}
	switch {
	case len(body.Fields) > 0:
		resp.Result = spokenRetryPrompt(body.Fields)
	case domain.IsKind(err, domain.ErrJurisdictionNotFound):
		resp.Result = voiceUnknownPlace
	default:
		resp.Result = voiceFailureSpoken
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"operation", "voice lead",
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, resp)
}

// spokenRetryPrompt asks the caller about the first invalid field only.
func spokenRetryPrompt(fields []domain.FieldError) string {
	return fmt.Sprintf(voiceRetryPrompt, spokenFieldName(fields[0].Field))
}

func spokenFieldName(field string) string {
	switch field {
	case "first_name":
		return "your first name"
	case "last_name":
		return "your last name"
	case "phone":
		return "the best phone number to reach you"
	case "email":
		return "your email address"
	case "state", "county":
		return "the county and state of your arrest"
	case "consent_to_contact":
		return "that we may contact you about your case"
	default:
		return "your details"
	}
}
