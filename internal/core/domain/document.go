package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// Document is an admin-uploaded knowledge source awaiting or done with indexing.
type Document struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	SourceURL   string         `json:"source_url,omitempty"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	State       string         `json:"state,omitempty"`
	County      string         `json:"county,omitempty"`
	Topic       string         `json:"topic,omitempty"`
	Phase       string         `json:"phase,omitempty"`
	ChunkCount  int            `json:"chunk_count"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type DocumentUpload struct {
	Title     string
	SourceURL string
	Filename  string
	MimeType  string
	State     string
	County    string
	Topic     string
	Phase     string
}
