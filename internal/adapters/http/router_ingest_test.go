package httpadapter

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/duihelp/leadgen/internal/config"
	"github.com/duihelp/leadgen/internal/core/domain"
)

type ingestFake struct {
	upload domain.DocumentUpload
	body   []byte
}

func (f *ingestFake) Upload(_ context.Context, upload domain.DocumentUpload, body io.Reader) (*domain.Document, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, domain.WrapError(domain.ErrValidation, "upload", io.EOF)
	}
	f.upload = upload
	f.body = raw

	now := time.Now().UTC()
	return &domain.Document{
		ID:          4294967297,
		Title:       upload.Title,
		Filename:    upload.Filename,
		MimeType:    upload.MimeType,
		StoragePath: "4294967297_guide.txt",
		State:       upload.State,
		County:      upload.County,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

const testAdminKey = "admin-key"

func newUploadRequest(t *testing.T, fields map[string]string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if content != nil {
		part, err := writer.CreateFormFile("file", "guide.txt")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/documents", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testAdminKey)
	return req
}

func TestUploadDocumentReturns202(t *testing.T) {
	deps := newTestDeps()
	handler := deps.handler(config.Config{AdminAPIKey: testAdminKey}, nil)

	req := newUploadRequest(t, map[string]string{
		"title":  "Harris County DWI guide",
		"state":  "texas",
		"county": "harris",
		"topic":  "court",
	}, []byte("First appearance is at the Harris County Criminal Justice Center."))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	if deps.ingest.upload.Title != "Harris County DWI guide" || deps.ingest.upload.County != "harris" || deps.ingest.upload.Topic != "court" {
		t.Fatalf("form fields not forwarded: %+v", deps.ingest.upload)
	}

	var doc domain.Document
	decodeBody(t, res.Body, &doc)
	if doc.ID != 4294967297 || doc.Status != domain.StatusUploaded {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestUploadDocumentRequiresAdminKey(t *testing.T) {
	handler := newTestDeps().handler(config.Config{AdminAPIKey: testAdminKey}, nil)

	req := newUploadRequest(t, map[string]string{"title": "x"}, []byte("x"))
	req.Header.Set("Authorization", "Bearer nope")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestAdminRoutesClosedWithoutConfiguredKey(t *testing.T) {
	handler := newTestDeps().handler(config.Config{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/documents/1", nil)
	req.Header.Set("Authorization", "Bearer ")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestUploadDocumentMissingFileReturns400(t *testing.T) {
	handler := newTestDeps().handler(config.Config{AdminAPIKey: testAdminKey}, nil)

	req := newUploadRequest(t, map[string]string{"title": "x"}, nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUploadDocumentEmptyFileMapsValidationTo400(t *testing.T) {
	handler := newTestDeps().handler(config.Config{AdminAPIKey: testAdminKey}, nil)

	req := newUploadRequest(t, map[string]string{"title": "x"}, []byte{})
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestGetDocumentByID(t *testing.T) {
	handler := newTestDeps().handler(config.Config{AdminAPIKey: testAdminKey}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/documents/4294967297", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminKey)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var doc domain.Document
	decodeBody(t, res.Body, &doc)
	if doc.ID != 4294967297 {
		t.Fatalf("expected 64-bit id round trip, got %d", doc.ID)
	}
}

func TestGetDocumentByIDReturns404ForNotFound(t *testing.T) {
	deps := newTestDeps()
	deps.documents = documentsFake{err: domain.WrapError(domain.ErrDocumentNotFound, "get", errors.New("id=9"))}
	handler := deps.handler(config.Config{AdminAPIKey: testAdminKey}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/documents/9", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminKey)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestGetDocumentRejectsNonNumericID(t *testing.T) {
	handler := newTestDeps().handler(config.Config{AdminAPIKey: testAdminKey}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/documents/abc", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminKey)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}
