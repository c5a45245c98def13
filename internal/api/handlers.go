package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/formintake/formintake/internal/fields"
)

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("document")
	if err != nil {
		jsonError(w, "document is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	engine := s.service.Engine()
	if !engine.Supports(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	// Read file data.
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxFileSize+1))
	if err != nil {
		jsonError(w, "failed to read document", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxFileSize {
		jsonError(w, fmt.Sprintf("document exceeds max size (%d bytes)", s.cfg.MaxFileSize),
			http.StatusRequestEntityTooLarge)
		return
	}
	if len(data) == 0 {
		jsonError(w, "document is empty", http.StatusBadRequest)
		return
	}

	doc, err := engine.ConvertReader(bytes.NewReader(data), filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	result := s.service.Extractor().Extract(doc.Text)
	id := s.store.Put(&StoredDocument{
		Name:   doc.Name,
		Format: doc.Format,
		Pages:  doc.Pages,
		Result: result,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"id":          id,
		"form_type":   result.FormType,
		"field_count": result.FieldCount(),
	})
}

func (s *Server) handleDocumentFields(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookupDocument(w, r)
	if !ok {
		return
	}

	includeTrace := r.URL.Query().Get("trace") == "true"
	w.Header().Set("Content-Type", "application/json")
	if err := fields.WriteJSON(w, doc.Result, includeTrace); err != nil {
		s.logger.Printf("write fields response: %v", err)
	}
}

func (s *Server) handleDocumentFieldsCSV(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookupDocument(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", exportName(doc.Name)+".fields.csv"))
	if err := fields.WriteCSV(w, doc.Result); err != nil {
		s.logger.Printf("write csv response: %v", err)
	}
}

func (s *Server) handleDocumentPreview(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookupDocument(w, r)
	if !ok {
		return
	}

	html, err := fields.RenderHTML(doc.Result)
	if err != nil {
		jsonError(w, "failed to render preview", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

// lookupDocument resolves the docID route parameter against the store,
// writing the not-found response itself
func (s *Server) lookupDocument(w http.ResponseWriter, r *http.Request) (*StoredDocument, bool) {
	docID := chi.URLParam(r, "docID")
	doc, found := s.store.Get(docID)
	if !found {
		jsonError(w, "document not found", http.StatusNotFound)
		return nil, false
	}
	return doc, true
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

// exportName strips the source extension so export filenames read
// naturally
func exportName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
