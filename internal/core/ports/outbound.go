package ports

import (
	"context"
	"io"

	"github.com/duihelp/leadgen/internal/core/domain"
)

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// KnowledgeStore reads and indexes knowledge chunks.
type KnowledgeStore interface {
	// SearchSimilar returns chunks at or above threshold ordered by
	// non-increasing similarity.
	SearchSimilar(ctx context.Context, vector []float32, filter domain.SearchFilter, limit int, threshold float64) ([]domain.SearchResult, error)
	// SearchKeyword is the degraded containment match.
	SearchKeyword(ctx context.Context, text string, filter domain.SearchFilter, limit int) ([]domain.SearchResult, error)
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []string, vectors [][]float32) error
}

// JurisdictionRepository resolves and lists states and counties.
type JurisdictionRepository interface {
	ListStates(ctx context.Context) ([]domain.State, error)
	ListCounties(ctx context.Context, stateSlug string) ([]domain.County, error)
	ResolveState(ctx context.Context, state string) (*domain.State, error)
	ResolveJurisdiction(ctx context.Context, state, county string) (*domain.Jurisdiction, error)
	UpsertState(ctx context.Context, state domain.StateSeed) (int64, error)
	UpsertCounty(ctx context.Context, stateID int64, county domain.CountySeed) error
}

// LeadRepository persists leads. There is no update or delete path here.
type LeadRepository interface {
	CreateLead(ctx context.Context, lead *domain.Lead) error
}

// DocumentRepository persists knowledge source documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id int64, status domain.DocumentStatus, errMessage string) error
	SetChunkCount(ctx context.Context, id int64, count int) error
}

// AnswerGenerator calls the completion model.
type AnswerGenerator interface {
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
}

// ObjectStorage stores uploaded source files.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID int64) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, int64) error) error
}

// LeadEventPublisher hands new leads to the downstream assignment workflow.
type LeadEventPublisher interface {
	PublishLeadCreated(ctx context.Context, event domain.LeadCreatedEvent) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits text into semantically usable chunks.
type Chunker interface {
	Split(text string) []string
}
