package intake

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/formintake/formintake/internal/convert"
)

// Validator checks that a document file is something the intake
// pipeline can work with before any conversion is attempted
type Validator struct {
	maxFileSize int64
	engine      *convert.Engine
}

// NewValidator creates a validator with the specified constraints
func NewValidator(maxFileSize int64, engine *convert.Engine) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
		engine:      engine,
	}
}

// ValidateFile performs full validation on a document file. Validation
// failures are reported in the result message; the error return is
// reserved for processing failures.
func (v *Validator) ValidateFile(req ValidateFileRequest) (*ValidateFileResult, error) {
	result := &ValidateFileResult{
		Path:  req.Path,
		Valid: false,
	}

	if err := v.validateBasics(req.Path); err != nil {
		result.Message = err.Error()
		return result, nil
	}

	// PDFs get a deep probe; other formats are judged at conversion
	// time.
	if strings.EqualFold(filepath.Ext(req.Path), ".pdf") {
		probe, err := v.probePDF(req.Path)
		if err != nil {
			result.Message = err.Error()
			return result, nil
		}
		result.Pages = probe.pages
		result.PDFVersion = probe.version
		result.Encrypted = probe.encrypted
	}

	result.Valid = true
	return result, nil
}

// IsUsable performs a quick check without the deep probe
func (v *Validator) IsUsable(path string) bool {
	return v.validateBasics(path) == nil
}

// ValidateFileInfo performs the stat-level checks against an already
// obtained FileInfo, for directory scans
func (v *Validator) ValidateFileInfo(path string, info os.FileInfo) error {
	if info.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if !v.engine.Supports(path) {
		return fmt.Errorf("unsupported document type: %s", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("file is empty: %s", path)
	}
	if info.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			info.Size(), v.maxFileSize)
	}
	return nil
}

// validateBasics runs the path-level checks shared by all formats
func (v *Validator) validateBasics(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	return v.ValidateFileInfo(path, info)
}

// pdfProbe is what the deep PDF inspection recovers
type pdfProbe struct {
	pages     int
	version   string
	encrypted bool
}

// probePDF opens the document with relaxed validation and reads the
// structural facts the intake report wants
func (v *Validator) probePDF(path string) (*pdfProbe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open file: %w", err)
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(f, conf)
	if err != nil {
		return nil, fmt.Errorf("invalid PDF file: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("cannot determine page count: %w", err)
	}

	probe := &pdfProbe{
		pages:     ctx.PageCount,
		encrypted: ctx.Encrypt != nil,
	}
	if ctx.HeaderVersion != nil {
		probe.version = ctx.HeaderVersion.String()
	}
	return probe, nil
}
