package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/duihelp/leadgen/internal/config"
	"github.com/duihelp/leadgen/internal/core/domain"
	"github.com/duihelp/leadgen/internal/core/ports"
	"github.com/duihelp/leadgen/internal/observability/metrics"
)

const (
	serviceName = "api"

	maxJSONBodyBytes   = 1 << 20
	maxUploadBodyBytes = 32 << 20

	backpressureWait = 50 * time.Millisecond

	unableToAnswerMessage = "unable to answer right now, please try again or call us directly"
	leadFailedMessage     = "your request was not submitted, please try again or call us directly"
)

// Services groups the inbound ports the router dispatches to.
type Services struct {
	Asker     ports.QuestionAnswerer
	Searcher  ports.KnowledgeSearcher
	Leads     ports.LeadSubmitter
	Directory ports.JurisdictionDirectory
	Ingestor  ports.DocumentIngestor
	Documents ports.DocumentReader
}

type Router struct {
	cfg     config.Config
	svc     Services
	metrics *metrics.HTTPServerMetrics
}

// NewRouter builds the API router. httpMetrics may be nil.
func NewRouter(cfg config.Config, svc Services, httpMetrics *metrics.HTTPServerMetrics) *Router {
	return &Router{
		cfg:     cfg,
		svc:     svc,
		metrics: httpMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /v1/rag/ask", rt.ask)
	api.HandleFunc("POST /v1/search", rt.search)
	api.HandleFunc("POST /v1/leads", rt.submitLead)
	api.HandleFunc("POST /v1/voice/webhook", rt.voiceWebhook)
	api.HandleFunc("GET /v1/states", rt.listStates)
	api.HandleFunc("GET /v1/states/{state}/counties", rt.listCounties)
	api.HandleFunc("GET /v1/states/{state}/counties/{county}", rt.getCounty)

	admin := http.NewServeMux()
	admin.HandleFunc("POST /v1/admin/documents", rt.uploadDocument)
	admin.HandleFunc("GET /v1/admin/documents/{id}", rt.getDocument)
	api.Handle("/v1/admin/", bearerAuthMiddleware(admin, rt.cfg.AdminAPIKey))

	var guarded http.Handler = api
	guarded = rateLimitMiddleware(guarded, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	guarded = backpressureMiddleware(guarded, rt.cfg.APIMaxInFlight, backpressureWait)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		root.Handle("GET /metrics", rt.metrics.Handler())
	}
	root.Handle("/", guarded)

	var handler http.Handler = root
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askRequest struct {
	Question string `json:"question"`
	State    string `json:"state"`
	County   string `json:"county"`
	Topic    string `json:"topic"`
	Phase    string `json:"phase"`
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	start := time.Now()
	answer, err := rt.svc.Asker.Ask(r.Context(), domain.Query{
		Question: req.Question,
		Filter: domain.SearchFilter{
			State:  req.State,
			County: req.County,
			Topic:  req.Topic,
			Phase:  req.Phase,
		},
	})
	if err != nil {
		rt.writeError(w, r, "ask", err, unableToAnswerMessage)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRAGObservation(serviceName, "ask", len(answer.Sources), time.Since(start))
		rt.metrics.RecordRAGModeRequest(serviceName, "ask", string(domain.ModePrimary))
	}
	writeJSON(w, http.StatusOK, answer)
}

type searchRequest struct {
	Query               string   `json:"query"`
	State               string   `json:"state"`
	County              string   `json:"county"`
	Topic               string   `json:"topic"`
	Phase               string   `json:"phase"`
	Limit               int      `json:"limit"`
	SimilarityThreshold *float64 `json:"similarity_threshold"`
	ThresholdCamel      *float64 `json:"similarityThreshold"`
	Mode                string   `json:"mode"`
}

func (req searchRequest) threshold() float64 {
	switch {
	case req.SimilarityThreshold != nil:
		return *req.SimilarityThreshold
	case req.ThresholdCamel != nil:
		return *req.ThresholdCamel
	default:
		return 0
	}
}

// resultMode maps the public mode names onto result modes. Unknown values
// pass through so the use case reports them as invalid.
func resultMode(mode string) domain.ResultMode {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "vector":
		return domain.ModePrimary
	case "keyword":
		return domain.ModeDegraded
	default:
		return domain.ResultMode(mode)
	}
}

type searchResponse struct {
	Results []domain.SearchResult `json:"results"`
	Count   int                   `json:"count"`
	Mode    domain.ResultMode     `json:"mode"`
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = rt.cfg.SearchDefaultLimit
	}

	start := time.Now()
	out, err := rt.svc.Searcher.Search(r.Context(), domain.SearchRequest{
		Query: req.Query,
		Filter: domain.SearchFilter{
			State:  req.State,
			County: req.County,
			Topic:  req.Topic,
			Phase:  req.Phase,
		},
		Limit:     limit,
		Threshold: req.threshold(),
		Mode:      resultMode(req.Mode),
	})
	if err != nil {
		rt.writeError(w, r, "search", err, "search is temporarily unavailable")
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRAGObservation(serviceName, "search", len(out.Results), time.Since(start))
		rt.metrics.RecordRAGModeRequest(serviceName, "search", string(out.Mode))
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Results: out.Results,
		Count:   len(out.Results),
		Mode:    out.Mode,
	})
}

func (rt *Router) submitLead(w http.ResponseWriter, r *http.Request) {
	var submission domain.LeadSubmission
	if !decodeJSONBody(w, r, &submission) {
		return
	}
	if strings.TrimSpace(submission.Source) == "" {
		submission.Source = string(domain.SourceWebForm)
	}

	receipt, err := rt.svc.Leads.Submit(r.Context(), submission)
	if err != nil {
		rt.recordLead(submission.Source, err, 0)
		rt.writeError(w, r, "submit lead", err, leadFailedMessage)
		return
	}

	rt.recordLead(submission.Source, nil, receipt.UrgencyScore)
	writeJSON(w, http.StatusCreated, receipt)
}

func (rt *Router) recordLead(source string, err error, score int) {
	if rt.metrics == nil {
		return
	}
	outcome := "stored"
	switch {
	case err == nil:
	case mapErrorToHTTPStatus(err) < http.StatusInternalServerError:
		outcome = "rejected"
	default:
		outcome = "failed"
	}
	rt.metrics.RecordLeadSubmission(serviceName, source, outcome, score)
}

func (rt *Router) listStates(w http.ResponseWriter, r *http.Request) {
	states, err := rt.svc.Directory.ListStates(r.Context())
	if err != nil {
		rt.writeError(w, r, "list states", err, "directory is temporarily unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"states": states})
}

func (rt *Router) listCounties(w http.ResponseWriter, r *http.Request) {
	counties, err := rt.svc.Directory.ListCounties(r.Context(), r.PathValue("state"))
	if err != nil {
		rt.writeError(w, r, "list counties", err, "directory is temporarily unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"counties": counties})
}

func (rt *Router) getCounty(w http.ResponseWriter, r *http.Request) {
	j, err := rt.svc.Directory.GetCounty(r.Context(), r.PathValue("state"), r.PathValue("county"))
	if err != nil {
		rt.writeError(w, r, "get county", err, "directory is temporarily unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jurisdiction":   j,
		"follow_up_path": j.FollowUpPath(),
	})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBodyBytes)
	if err := r.ParseMultipartForm(maxUploadBodyBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "multipart form is required"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  domain.ErrValidation.Error(),
			Fields: []domain.FieldError{{Field: "file", Message: "multipart field 'file' is required"}},
		})
		return
	}
	defer file.Close()

	doc, err := rt.svc.Ingestor.Upload(r.Context(), domain.DocumentUpload{
		Title:     r.FormValue("title"),
		SourceURL: r.FormValue("source_url"),
		Filename:  fileHeader.Filename,
		MimeType:  fileHeader.Header.Get("Content-Type"),
		State:     r.FormValue("state"),
		County:    r.FormValue("county"),
		Topic:     r.FormValue("topic"),
		Phase:     r.FormValue("phase"),
	}, file)
	if err != nil {
		rt.writeError(w, r, "upload document", err, "document upload failed")
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "document id must be a positive integer"})
		return
	}

	doc, err := rt.svc.Documents.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, r, "get document", err, "document lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, operation string, err error, publicMessage string) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"operation", operation,
			"status", status,
			"error", err,
		)
	}
	writeJSON(w, status, newErrorResponse(err, status, publicMessage))
}

// decodeJSONBody writes a 400 and returns false when the body is not a
// single JSON object.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes))
	if err := dec.Decode(dst); err != nil {
		msg := "invalid json"
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
