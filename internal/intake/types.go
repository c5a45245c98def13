package intake

import "github.com/formintake/formintake/internal/fields"

// FileInfo represents one supported document found during a scan
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Request Types

// ExtractFileRequest represents a request to extract form fields from a
// document
type ExtractFileRequest struct {
	Path         string `json:"path"`
	IncludeTrace bool   `json:"include_trace,omitempty"`
}

// DetectTypeRequest represents a request to identify the form a
// document renders
type DetectTypeRequest struct {
	Path string `json:"path"`
}

// ValidateFileRequest represents a request to validate a document file
type ValidateFileRequest struct {
	Path string `json:"path"`
}

// ScanDirectoryRequest represents a request to list supported documents
// in a directory
type ScanDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
}

// Response Types

// ExtractFileResult represents the result of a field extraction
type ExtractFileResult struct {
	Path     string         `json:"path"`
	Name     string         `json:"name"`
	Format   string         `json:"format"`
	Pages    int            `json:"pages,omitempty"`
	CacheHit bool           `json:"cache_hit"`
	Result   *fields.Result `json:"result"`
}

// DetectTypeResult represents the result of form type detection
type DetectTypeResult struct {
	Path      string          `json:"path"`
	FormType  fields.FormType `json:"form_type"`
	FormTitle string          `json:"form_title"`
}

// ValidateFileResult represents the result of a validation operation.
// Validation failures land in Message, not in an error.
type ValidateFileResult struct {
	Valid      bool   `json:"valid"`
	Path       string `json:"path"`
	Message    string `json:"message,omitempty"`
	Pages      int    `json:"pages,omitempty"`
	PDFVersion string `json:"pdf_version,omitempty"`
	Encrypted  bool   `json:"encrypted,omitempty"`
}

// ScanDirectoryResult represents the result of a directory scan
type ScanDirectoryResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

// ServerInfoResult represents server information and usage guidance
type ServerInfoResult struct {
	ServerName          string     `json:"server_name"`
	Version             string     `json:"version"`
	IntakeDirectory     string     `json:"intake_directory"`
	MaxFileSize         int64      `json:"max_file_size"`
	SupportedExtensions []string   `json:"supported_extensions"`
	KnownForms          []string   `json:"known_forms"`
	AvailableTools      []ToolInfo `json:"available_tools"`
	DirectoryContents   []FileInfo `json:"directory_contents"`
	UsageGuidance       string     `json:"usage_guidance"`
}

// Doctor Types

// CheckStatus classifies the outcome of one doctor check
type CheckStatus string

const (
	// CheckStatusOK means the probe ran and passed.
	CheckStatusOK CheckStatus = "ok"
	// CheckStatusFailed means the probe ran and failed.
	CheckStatusFailed CheckStatus = "failed"
	// CheckStatusStatic means the capability is reported without a
	// runtime probe.
	CheckStatusStatic CheckStatus = "static"
)

// CheckResult represents one doctor check outcome
type CheckResult struct {
	Name   string      `json:"name"`
	Status CheckStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
}

// DoctorReport aggregates all doctor checks
type DoctorReport struct {
	Healthy bool          `json:"healthy"`
	Checks  []CheckResult `json:"checks"`
}
