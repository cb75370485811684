package domain

// EmbeddingDimensions is the vector width of stored chunk embeddings.
const EmbeddingDimensions = 768

const (
	DefaultSearchLimit         = 10
	DefaultSimilarityThreshold = 0.7

	// DegradedSimilarity is assigned to keyword matches, which carry no real
	// similarity signal.
	DegradedSimilarity = 0.5
)

// ResultMode tags how a result set was produced.
type ResultMode string

const (
	ModePrimary  ResultMode = "primary"
	ModeDegraded ResultMode = "degraded"
)

// SearchFilter scopes retrieval. Empty fields mean no restriction.
type SearchFilter struct {
	State  string `json:"state,omitempty"`
	County string `json:"county,omitempty"`
	Topic  string `json:"topic,omitempty"`
	Phase  string `json:"phase,omitempty"`
}

type Query struct {
	Question string
	Filter   SearchFilter
}

type KnowledgeChunk struct {
	ID         int64     `json:"id"`
	SourceID   int64     `json:"source_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Topic      string    `json:"topic,omitempty"`
	Phase      string    `json:"phase,omitempty"`
	State      string    `json:"state,omitempty"`
	County     string    `json:"county,omitempty"`
	Embedding  []float32 `json:"-"`
}

type SourceMeta struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

type JurisdictionMeta struct {
	State  string `json:"state,omitempty"`
	County string `json:"county,omitempty"`
}

type SearchResult struct {
	ChunkID      int64            `json:"chunk_id"`
	Text         string           `json:"text"`
	Similarity   float64          `json:"similarity"`
	Topic        string           `json:"topic,omitempty"`
	Phase        string           `json:"phase,omitempty"`
	Source       SourceMeta       `json:"source"`
	Jurisdiction JurisdictionMeta `json:"jurisdiction"`
}

// SearchResults is ordered by non-increasing similarity.
type SearchResults struct {
	Mode    ResultMode     `json:"mode"`
	Results []SearchResult `json:"results"`
}

type SearchRequest struct {
	Query     string
	Filter    SearchFilter
	Limit     int
	Threshold float64
	Mode      ResultMode
}

type Confidence string

const (
	ConfidenceNone   Confidence = "none"
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

type Answer struct {
	Text       string         `json:"answer"`
	Context    string         `json:"context"`
	Sources    []SearchResult `json:"sources"`
	Confidence Confidence     `json:"confidence"`
}

// ClampSimilarity bounds a raw cosine similarity to [0,1].
func ClampSimilarity(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
