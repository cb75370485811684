package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/duihelp/leadgen/internal/core/domain"
)

// DocumentRepository stores knowledge sources uploaded through the admin API.
type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO knowledge_sources (
	title, source_url, filename, mime_type, storage_path, state, county, topic, phase, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
RETURNING id
`,
		doc.Title, doc.SourceURL, doc.Filename, doc.MimeType, doc.StoragePath, doc.State, doc.County,
		doc.Topic, doc.Phase, string(doc.Status), doc.Error, doc.CreatedAt, doc.UpdatedAt,
	).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("insert knowledge source: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, title, source_url, filename, mime_type, storage_path, state, county, topic, phase, chunk_count, status, error_message, created_at, updated_at
FROM knowledge_sources
WHERE id = $1
`, id)

	var doc domain.Document
	var status string
	err := row.Scan(
		&doc.ID, &doc.Title, &doc.SourceURL, &doc.Filename, &doc.MimeType, &doc.StoragePath,
		&doc.State, &doc.County, &doc.Topic, &doc.Phase, &doc.ChunkCount, &status, &doc.Error,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%d", id))
		}
		return nil, fmt.Errorf("scan knowledge source: %w", err)
	}
	doc.Status = domain.DocumentStatus(status)
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id int64, status domain.DocumentStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE knowledge_sources
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update knowledge source status: %w", err)
	}
	return expectAffected(result, "update knowledge source status", id)
}

func (r *DocumentRepository) SetChunkCount(ctx context.Context, id int64, count int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE knowledge_sources
SET chunk_count = $2, updated_at = $3
WHERE id = $1
`, id, count, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update knowledge source chunk count: %w", err)
	}
	return expectAffected(result, "update knowledge source chunk count", id)
}

func expectAffected(result sql.Result, op string, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, op, fmt.Errorf("id=%d", id))
	}
	return nil
}
