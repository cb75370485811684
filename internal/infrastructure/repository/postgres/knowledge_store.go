package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/duihelp/leadgen/internal/core/domain"
)

// KnowledgeStore runs similarity search over pgvector chunk embeddings.
type KnowledgeStore struct {
	db      *sql.DB
	timeout time.Duration
}

func NewKnowledgeStore(db *sql.DB, timeout time.Duration) *KnowledgeStore {
	return &KnowledgeStore{db: db, timeout: timeout}
}

func (s *KnowledgeStore) SearchSimilar(
	ctx context.Context,
	vector []float32,
	filter domain.SearchFilter,
	limit int,
	threshold float64,
) ([]domain.SearchResult, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	args := []any{formatVector(vector)}
	where := scopeClause(filter, &args)
	args = append(args, threshold)
	thresholdArg := len(args)
	args = append(args, limit)
	limitArg := len(args)

	query := fmt.Sprintf(`
SELECT c.id, c.content, c.topic, c.phase, c.state, c.county, s.id, s.title, s.source_url,
	1 - (c.embedding <=> $1::vector) AS similarity
FROM knowledge_chunks c
JOIN knowledge_sources s ON s.id = c.source_id
WHERE c.embedding IS NOT NULL%s
	AND 1 - (c.embedding <=> $1::vector) >= $%d
ORDER BY c.embedding <=> $1::vector
LIMIT $%d
`, where, thresholdArg, limitArg)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SearchResult, 0, limit)
	for rows.Next() {
		var res domain.SearchResult
		var similarity float64
		if err := rows.Scan(
			&res.ChunkID, &res.Text, &res.Topic, &res.Phase,
			&res.Jurisdiction.State, &res.Jurisdiction.County,
			&res.Source.ID, &res.Source.Title, &res.Source.URL,
			&similarity,
		); err != nil {
			return nil, fmt.Errorf("scan similarity row: %w", err)
		}
		res.Similarity = domain.ClampSimilarity(similarity)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate similarity rows: %w", err)
	}
	return out, nil
}

// SearchKeyword is a case-insensitive containment match. Every hit carries
// the placeholder similarity, so callers must label the results degraded.
func (s *KnowledgeStore) SearchKeyword(
	ctx context.Context,
	text string,
	filter domain.SearchFilter,
	limit int,
) ([]domain.SearchResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	args := []any{escapeLike(strings.TrimSpace(text))}
	where := scopeClause(filter, &args)
	args = append(args, limit)

	query := fmt.Sprintf(`
SELECT c.id, c.content, c.topic, c.phase, c.state, c.county, s.id, s.title, s.source_url
FROM knowledge_chunks c
JOIN knowledge_sources s ON s.id = c.source_id
WHERE c.content ILIKE '%%' || $1::text || '%%'%s
ORDER BY c.source_id, c.chunk_index
LIMIT $%d
`, where, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SearchResult, 0, limit)
	for rows.Next() {
		var res domain.SearchResult
		if err := rows.Scan(
			&res.ChunkID, &res.Text, &res.Topic, &res.Phase,
			&res.Jurisdiction.State, &res.Jurisdiction.County,
			&res.Source.ID, &res.Source.Title, &res.Source.URL,
		); err != nil {
			return nil, fmt.Errorf("scan keyword row: %w", err)
		}
		res.Similarity = domain.DegradedSimilarity
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keyword rows: %w", err)
	}
	return out, nil
}

// IndexChunks replaces the chunks of doc. Scope fields are copied from the
// source onto every chunk.
func (s *KnowledgeStore) IndexChunks(ctx context.Context, doc *domain.Document, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch: %d/%d", len(chunks), len(vectors))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin index tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM knowledge_chunks WHERE source_id = $1`, doc.ID); err != nil {
		return fmt.Errorf("clear previous chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO knowledge_chunks (source_id, chunk_index, content, topic, phase, state, county, embedding)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8::vector)
`)
	if err != nil {
		return fmt.Errorf("prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx,
			doc.ID, i, chunk, doc.Topic, doc.Phase, doc.State, doc.County, formatVector(vectors[i]),
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit index tx: %w", err)
	}
	return nil
}

func (s *KnowledgeStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// scopeClause appends filter predicates. Chunks without a state or county
// are general content and match any jurisdiction.
func scopeClause(filter domain.SearchFilter, args *[]any) string {
	var b strings.Builder
	add := func(value, predicate string) {
		if value == "" {
			return
		}
		*args = append(*args, value)
		b.WriteString("\n\tAND ")
		b.WriteString(strings.ReplaceAll(predicate, "?", "$"+strconv.Itoa(len(*args))))
	}
	add(filter.State, "(c.state = ? OR c.state = '')")
	add(filter.County, "(c.county = ? OR c.county = '')")
	add(filter.Topic, "c.topic = ?")
	add(filter.Phase, "c.phase = ?")
	return b.String()
}

// formatVector renders the pgvector text literal, e.g. [0.1,0.2].
func formatVector(v []float32) string {
	var b strings.Builder
	b.Grow(len(v) * 10)
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
