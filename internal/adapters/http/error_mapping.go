package httpadapter

import (
	"errors"
	"net/http"

	"github.com/duihelp/leadgen/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrValidation):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrJurisdictionNotFound),
		domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrEmbeddingUnavailable),
		domain.IsKind(err, domain.ErrStoreUnavailable),
		domain.IsKind(err, domain.ErrSynthesisUnavailable),
		domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// newErrorResponse exposes client errors verbatim. Server side failures are
// reported with the caller supplied public message only.
func newErrorResponse(err error, status int, publicMessage string) errorResponse {
	if status >= http.StatusInternalServerError {
		return errorResponse{Error: publicMessage}
	}
	resp := errorResponse{Error: err.Error()}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Error = domain.ErrValidation.Error()
		resp.Fields = verr.Fields
	}
	return resp
}
