package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/formintake/formintake/internal/config"
	"github.com/formintake/formintake/internal/fields"
	"github.com/formintake/formintake/internal/intake"
)

const sampleDocText = `Form I-485, Application to Register Permanent Residence or Adjust Status

Part 1. Information About You

1. Full Legal Name
2. Date of Birth
`

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Mode:            "http",
		Host:            "127.0.0.1",
		Port:            8080,
		IntakeDirectory: t.TempDir(),
		MaxFileSize:     1024 * 1024,
		RateLimitRPS:    100,
		RateLimitBurst:  100,
		Version:         "1.0.0",
		ServerName:      "test-server",
		LogLevel:        "info",
	}

	service, err := intake.NewService(intake.Options{
		MaxFileSize: cfg.MaxFileSize,
		IntakeDir:   cfg.IntakeDirectory,
	})
	if err != nil {
		t.Fatalf("Failed to create intake service: %v", err)
	}

	server, err := NewServer(service, cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}
	return server
}

func multipartBody(t *testing.T, fieldName, filename, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

type uploadResponse struct {
	ID         string `json:"id"`
	FormType   string `json:"form_type"`
	FieldCount int    `json:"field_count"`
}

func uploadDocument(t *testing.T, server *Server, filename, content string) uploadResponse {
	t.Helper()

	body, contentType := multipartBody(t, "document", filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp uploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode upload response: %v", err)
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("Expected ok status in body, got: %s", rec.Body.String())
	}
}

func TestUploadDocument(t *testing.T) {
	server := newTestServer(t)

	resp := uploadDocument(t, server, "i485.txt", sampleDocText)

	if resp.ID == "" {
		t.Error("Expected non-empty document id")
	}
	if resp.FormType != "I-485" {
		t.Errorf("Expected form type I-485, got %s", resp.FormType)
	}
	if resp.FieldCount != 5 {
		t.Errorf("Expected 5 fields, got %d", resp.FieldCount)
	}
}

func TestUploadMarkdownDocument(t *testing.T) {
	server := newTestServer(t)

	content := "# Form I-765, Application for Employment Authorization\n\n" +
		"1. Full Legal Name\n" +
		"2. Date of Birth\n"
	resp := uploadDocument(t, server, "i765.md", content)

	if resp.FormType != "I-765" {
		t.Errorf("Expected form type I-765, got %s", resp.FormType)
	}
	if resp.FieldCount != 5 {
		t.Errorf("Expected 5 fields, got %d", resp.FieldCount)
	}
}

func TestUploadUnsupportedType(t *testing.T) {
	server := newTestServer(t)

	body, contentType := multipartBody(t, "document", "report.png", "not a document")
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unsupported file type") {
		t.Errorf("Expected unsupported file type error, got: %s", rec.Body.String())
	}
}

func TestUploadMissingFile(t *testing.T) {
	server := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("note", "no file here"); err != nil {
		t.Fatalf("Failed to write form field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "document is required") {
		t.Errorf("Expected missing document error, got: %s", rec.Body.String())
	}
}

func TestUploadEmptyDocument(t *testing.T) {
	server := newTestServer(t)

	body, contentType := multipartBody(t, "document", "empty.txt", "")
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "document is empty") {
		t.Errorf("Expected empty document error, got: %s", rec.Body.String())
	}
}

func TestUploadTooLarge(t *testing.T) {
	server := newTestServer(t)
	server.cfg.MaxFileSize = 64

	body, contentType := multipartBody(t, "document", "big.txt", strings.Repeat("x", 200))
	req := httptest.NewRequest(http.MethodPost, "/api/documents", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "exceeds max size") {
		t.Errorf("Expected size error, got: %s", rec.Body.String())
	}
}

func TestDocumentFields(t *testing.T) {
	server := newTestServer(t)
	resp := uploadDocument(t, server, "i485.txt", sampleDocText)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+resp.ID+"/fields", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("Expected JSON content type, got %s", ct)
	}

	var export fields.Export
	if err := json.NewDecoder(rec.Body).Decode(&export); err != nil {
		t.Fatalf("Failed to decode fields response: %v", err)
	}

	if export.FormType != fields.FormTypeI485 {
		t.Errorf("Expected form type I-485, got %s", export.FormType)
	}
	if len(export.Records) != 5 {
		t.Errorf("Expected 5 field records, got %d", len(export.Records))
	}
	if len(export.Trace) != 0 {
		t.Errorf("Expected trace to be omitted by default, got %d entries", len(export.Trace))
	}
	if _, ok := export.Hierarchy["1"]; !ok {
		t.Error("Expected hierarchy entry for parent field 1")
	}
}

func TestDocumentFieldsWithTrace(t *testing.T) {
	server := newTestServer(t)
	resp := uploadDocument(t, server, "i485.txt", sampleDocText)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+resp.ID+"/fields?trace=true", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var export fields.Export
	if err := json.NewDecoder(rec.Body).Decode(&export); err != nil {
		t.Fatalf("Failed to decode fields response: %v", err)
	}
	if len(export.Trace) == 0 {
		t.Error("Expected trace entries when trace=true")
	}
}

func TestDocumentFieldsCSV(t *testing.T) {
	server := newTestServer(t)
	resp := uploadDocument(t, server, "i485.txt", sampleDocText)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+resp.ID+"/fields.csv", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/csv") {
		t.Errorf("Expected CSV content type, got %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "i485.fields.csv") {
		t.Errorf("Expected export filename in disposition, got %s", cd)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 6 {
		t.Errorf("Expected header plus 5 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "item_number,label,field_type") {
		t.Errorf("Expected CSV header, got: %s", lines[0])
	}
	if !strings.Contains(rec.Body.String(), "Family Name (Last Name)") {
		t.Error("Expected subfield labels in CSV output")
	}
}

func TestDocumentPreview(t *testing.T) {
	server := newTestServer(t)
	resp := uploadDocument(t, server, "i485.txt", sampleDocText)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+resp.ID+"/preview", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("Expected HTML content type, got %s", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "Field Extraction Report") {
		t.Error("Expected report title in preview")
	}
	if !strings.Contains(body, "I-485") {
		t.Error("Expected form type in preview")
	}
	if !strings.Contains(body, "<h1") {
		t.Error("Expected rendered HTML headings in preview")
	}
}

func TestDocumentNotFound(t *testing.T) {
	server := newTestServer(t)

	paths := []string{
		"/api/documents/nonexistent/fields",
		"/api/documents/nonexistent/fields.csv",
		"/api/documents/nonexistent/preview",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected status 404 for %s, got %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "document not found") {
			t.Errorf("Expected not found error for %s, got: %s", path, rec.Body.String())
		}
	}
}

func TestRateLimitExceeded(t *testing.T) {
	server := newTestServer(t)
	server.limiter = NewRateLimiter(1, 2)
	server.setupRoutes()

	// httptest requests share a remote address, so they count against
	// the same client budget.
	var lastCode int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/documents/nonexistent/fields", nil)
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		lastCode = rec.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Errorf("Expected status 429 after burst exhausted, got %d", lastCode)
	}

	// Health stays reachable regardless of the budget.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected health to bypass rate limiting, got %d", rec.Code)
	}
}
