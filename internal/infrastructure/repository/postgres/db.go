package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const schemaLockID = int64(2026031501)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the directory, knowledge and lead tables. All
// identifiers are BIGINT so vector search scans straight into int64.
func EnsureSchema(ctx context.Context, db *sql.DB, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", dimensions)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker/cli startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	query := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS states (
	id BIGSERIAL PRIMARY KEY,
	slug TEXT NOT NULL UNIQUE,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS counties (
	id BIGSERIAL PRIMARY KEY,
	state_id BIGINT NOT NULL REFERENCES states(id) ON DELETE CASCADE,
	slug TEXT NOT NULL,
	name TEXT NOT NULL,
	court_name TEXT NOT NULL DEFAULT '',
	court_address TEXT NOT NULL DEFAULT '',
	court_phone TEXT NOT NULL DEFAULT '',
	dmv_office TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	UNIQUE (state_id, slug)
);

CREATE TABLE IF NOT EXISTS knowledge_sources (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	source_url TEXT NOT NULL DEFAULT '',
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	state TEXT NOT NULL DEFAULT '',
	county TEXT NOT NULL DEFAULT '',
	topic TEXT NOT NULL DEFAULT '',
	phase TEXT NOT NULL DEFAULT '',
	chunk_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS knowledge_chunks (
	id BIGSERIAL PRIMARY KEY,
	source_id BIGINT NOT NULL REFERENCES knowledge_sources(id) ON DELETE CASCADE,
	chunk_index INTEGER NOT NULL,
	content TEXT NOT NULL,
	topic TEXT NOT NULL DEFAULT '',
	phase TEXT NOT NULL DEFAULT '',
	state TEXT NOT NULL DEFAULT '',
	county TEXT NOT NULL DEFAULT '',
	embedding vector(%d),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (source_id, chunk_index)
);

CREATE INDEX IF NOT EXISTS idx_knowledge_chunks_scope ON knowledge_chunks(state, county, topic, phase);
CREATE INDEX IF NOT EXISTS idx_knowledge_chunks_embedding ON knowledge_chunks USING hnsw (embedding vector_cosine_ops);

CREATE TABLE IF NOT EXISTS leads (
	id UUID PRIMARY KEY,
	source TEXT NOT NULL,
	first_name TEXT NOT NULL,
	last_name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL,
	state_id BIGINT NOT NULL REFERENCES states(id),
	county_id BIGINT NOT NULL REFERENCES counties(id),
	arrest_recency TEXT NOT NULL,
	is_first_offense BOOLEAN,
	has_accident BOOLEAN NOT NULL,
	has_injury BOOLEAN NOT NULL,
	has_cdl BOOLEAN NOT NULL,
	bac_level DOUBLE PRECISION,
	consent_to_contact BOOLEAN NOT NULL,
	consent_to_sms BOOLEAN NOT NULL,
	call_id TEXT NOT NULL DEFAULT '',
	urgency_score SMALLINT NOT NULL CHECK (urgency_score BETWEEN 0 AND 10),
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_leads_county ON leads(county_id);
`, dimensions)
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
