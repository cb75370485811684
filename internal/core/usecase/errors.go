package usecase

import (
	"fmt"

	"github.com/duihelp/leadgen/internal/core/domain"
)

var knownKinds = []error{
	domain.ErrValidation,
	domain.ErrJurisdictionNotFound,
	domain.ErrDocumentNotFound,
	domain.ErrUnauthorized,
	domain.ErrEmbeddingUnavailable,
	domain.ErrStoreUnavailable,
	domain.ErrSynthesisUnavailable,
	domain.ErrPersistence,
}

// ensureKind wraps err with kind unless an adapter already classified it.
func ensureKind(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	for _, k := range knownKinds {
		if domain.IsKind(err, k) {
			return fmt.Errorf("%s: %w", operation, err)
		}
	}
	return domain.WrapError(kind, operation, err)
}
