// Package convert turns supported document renderings into plain text
// for field extraction. One backend per source format, selected by file
// extension; the text heuristics downstream never see format details.
package convert

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Document is the outcome of one conversion: the extracted plain text
// plus enough provenance for callers to report on
type Document struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	Pages  int    `json:"pages,omitempty"`
	Text   string `json:"text"`
}

// Backend converts one source format into a Document
type Backend interface {
	// Name identifies the backend in errors and diagnostics.
	Name() string
	// Extensions lists the lowercase file extensions the backend
	// accepts, dot included.
	Extensions() []string
	// Convert reads the whole document from r. The filename is used
	// for provenance only; the backend must not touch the filesystem
	// path it names.
	Convert(r io.Reader, filename string) (*Document, error)
}

// FileConverter is an optional Backend upgrade for formats whose
// library wants a real file path; the engine uses it to skip the
// temp-file spill when the input already is a path
type FileConverter interface {
	ConvertFile(path string) (*Document, error)
}

// ConvertError ties a conversion failure to the backend and operation
// that produced it
type ConvertError struct {
	Backend string `json:"backend"`
	Op      string `json:"operation"`
	Err     error  `json:"error"`
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("convert %s error in %s: %v", e.Backend, e.Op, e.Err)
}

func (e *ConvertError) Unwrap() error {
	return e.Err
}

// Engine routes files to format backends by extension
type Engine struct {
	backends map[string]Backend
}

// NewEngine creates an engine with all built-in backends registered.
// maxFileSize caps what the PDF backend will read.
func NewEngine(maxFileSize int64) *Engine {
	e := &Engine{backends: make(map[string]Backend)}
	e.register(NewPDFBackend(maxFileSize))
	e.register(NewDocxBackend())
	e.register(NewHTMLBackend())
	e.register(NewMarkdownBackend())
	e.register(NewTextBackend())
	return e
}

func (e *Engine) register(b Backend) {
	for _, ext := range b.Extensions() {
		e.backends[ext] = b
	}
}

// BackendFor returns the backend registered for the filename's
// extension
func (e *Engine) BackendFor(filename string) (Backend, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	b, ok := e.backends[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension %q (supported: %s)",
			ext, strings.Join(e.SupportedExtensions(), ", "))
	}
	return b, nil
}

// Supports reports whether the filename's extension has a backend
func (e *Engine) Supports(filename string) bool {
	_, ok := e.backends[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// SupportedExtensions returns the registered extensions, sorted
func (e *Engine) SupportedExtensions() []string {
	exts := make([]string, 0, len(e.backends))
	for ext := range e.backends {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Convert converts the file at path with the backend matching its
// extension. Backends that can consume a path directly do so; the rest
// read through an opened file handle.
func (e *Engine) Convert(path string) (*Document, error) {
	backend, err := e.BackendFor(path)
	if err != nil {
		return nil, err
	}

	if fc, ok := backend.(FileConverter); ok {
		return fc.ConvertFile(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &ConvertError{Backend: backend.Name(), Op: "open", Err: err}
	}
	defer f.Close()

	return backend.Convert(f, filepath.Base(path))
}

// ConvertReader converts a document supplied as a stream, routing on
// the provided filename's extension
func (e *Engine) ConvertReader(r io.Reader, filename string) (*Document, error) {
	backend, err := e.BackendFor(filename)
	if err != nil {
		return nil, err
	}
	return backend.Convert(r, filepath.Base(filename))
}
