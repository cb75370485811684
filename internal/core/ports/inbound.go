package ports

import (
	"context"
	"io"

	"github.com/duihelp/leadgen/internal/core/domain"
)

// KnowledgeSearcher is the inbound contract for the search endpoint.
type KnowledgeSearcher interface {
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResults, error)
}

// QuestionAnswerer is the inbound contract for the RAG ask endpoint.
type QuestionAnswerer interface {
	Ask(ctx context.Context, query domain.Query) (*domain.Answer, error)
}

// LeadSubmitter is the inbound contract for lead intake from any channel.
type LeadSubmitter interface {
	Submit(ctx context.Context, submission domain.LeadSubmission) (*domain.LeadReceipt, error)
}

// JurisdictionDirectory backs the state/county informational pages.
type JurisdictionDirectory interface {
	ListStates(ctx context.Context) ([]domain.State, error)
	ListCounties(ctx context.Context, state string) ([]domain.County, error)
	GetCounty(ctx context.Context, state, county string) (*domain.Jurisdiction, error)
}

// DocumentIngestor is the inbound contract for admin document upload.
type DocumentIngestor interface {
	Upload(ctx context.Context, upload domain.DocumentUpload, body io.Reader) (*domain.Document, error)
}

// DocumentReader is the inbound read model for document state.
type DocumentReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID int64) error
}
