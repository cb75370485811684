package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/duihelp/leadgen/internal/core/domain"
	"github.com/duihelp/leadgen/internal/core/ports"
)

type IngestDocumentUseCase struct {
	repo    ports.DocumentRepository
	scope   jurisdictionScope
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	jurisdictions ports.JurisdictionRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		repo:    repo,
		scope:   jurisdictionScope{repo: jurisdictions},
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	upload domain.DocumentUpload,
	body io.Reader,
) (*domain.Document, error) {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(upload.Title) == "" {
		verr.Add("title", "title is required")
	}
	if strings.TrimSpace(upload.Filename) == "" {
		verr.Add("file", "file is required")
	}
	if upload.County != "" && upload.State == "" {
		verr.Add("state", "state is required when county is set")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	state, county, err := uc.scope.canonical(ctx, upload.State, upload.County)
	if err != nil {
		return nil, err
	}

	storageKey := fmt.Sprintf("%s_%s", uuid.NewString(), sanitizeFilename(upload.Filename))
	now := time.Now().UTC()

	if err := uc.storage.Save(ctx, storageKey, body); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		Title:       strings.TrimSpace(upload.Title),
		SourceURL:   strings.TrimSpace(upload.SourceURL),
		Filename:    upload.Filename,
		MimeType:    upload.MimeType,
		StoragePath: storageKey,
		State:       state,
		County:      county,
		Topic:       strings.ToLower(strings.TrimSpace(upload.Topic)),
		Phase:       strings.ToLower(strings.TrimSpace(upload.Phase)),
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, ensureKind(domain.ErrPersistence, "create document metadata", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		// No worker will pick the row up, so it must not stay in uploaded.
		msg := "publish ingestion event: " + err.Error()
		if markErr := uc.repo.UpdateStatus(ctx, doc.ID, domain.StatusFailed, msg); markErr != nil {
			slog.Error("document_mark_failed_error", "document_id", doc.ID, "error", markErr)
		}
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return doc, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
