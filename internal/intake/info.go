package intake

import (
	"time"

	"github.com/formintake/formintake/internal/descriptions"
	"github.com/formintake/formintake/internal/fields"
)

// ServerInfo returns the server overview: capabilities, tools, a
// bounded listing of the intake directory, and usage guidance
func (s *Service) ServerInfo(serverName, version string) (*ServerInfoResult, error) {
	intakeDir := s.pathValidator.IntakeDirectory()

	// List the intake directory with a timeout so a huge or slow
	// directory cannot stall the info call. Capped at 100 entries.
	directoryContents := []FileInfo{}
	resultChan := make(chan []FileInfo, 1)
	errorChan := make(chan error, 1)

	go func() {
		files, err := s.scanner.FindDocumentsLimited(intakeDir, 100)
		if err != nil {
			errorChan <- err
			return
		}
		resultChan <- files
	}()

	select {
	case files := <-resultChan:
		directoryContents = files
	case <-errorChan:
		// A failed listing is not fatal to the info call.
	case <-time.After(5 * time.Second):
	}

	knownForms := make([]string, 0)
	for _, ft := range []fields.FormType{
		fields.FormTypeI485, fields.FormTypeI130, fields.FormTypeI765,
		fields.FormTypeI90, fields.FormTypeN400, fields.FormTypeI131,
	} {
		knownForms = append(knownForms, string(ft))
	}

	availableTools := []ToolInfo{
		{
			Name:        "form_extract_fields",
			Description: descriptions.GetToolDescription("form_extract_fields"),
			Usage: "Use this tool to recover the numbered fields, subfields, and types " +
				"from a PDF, DOCX, HTML, Markdown, or text rendering of a form.",
			Parameters: "path (required): Full absolute path to the document, " +
				"include_trace (optional): Include the extraction trace in the output",
		},
		{
			Name:        "form_detect_type",
			Description: descriptions.GetToolDescription("form_detect_type"),
			Usage:       "Use this tool for a quick form identification without the full field listing.",
			Parameters:  "path (required): Full absolute path to the document",
		},
		{
			Name:        "form_validate_file",
			Description: descriptions.GetToolDescription("form_validate_file"),
			Usage: "Use this tool to check a file before extraction. PDFs get a deep " +
				"structural probe including page count and encryption status.",
			Parameters: "path (required): Full absolute path to the document",
		},
		{
			Name:        "form_intake_directory",
			Description: descriptions.GetToolDescription("form_intake_directory"),
			Usage: "Use this tool to discover documents available for intake in the " +
				"default directory or any specified directory.",
			Parameters: "directory (optional): Directory to scan (uses default if empty), " +
				"query (optional): Fuzzy filename filter",
		},
		{
			Name:        "form_server_info",
			Description: descriptions.GetToolDescription("form_server_info"),
			Usage:       "Use this tool first to understand what the server can do.",
			Parameters:  "none",
		},
	}

	usageGuidance := `Form Intake Server Usage Guide:

1. START WITH DISCOVERY:
   - Use 'form_intake_directory' to find documents available for intake

2. VALIDATE FILES:
   - Use 'form_validate_file' to check a file before extraction
   - PDF files are probed structurally (page count, encryption, version)

3. EXTRACT FIELDS:
   - Use 'form_extract_fields' to recover the labeled field hierarchy
   - Parent items like "Full Legal Name" expand into lettered subfields
     (1.a, 1.b, ...) with inferred input types
   - Pass include_trace=true to see how each line was classified

4. IDENTIFY FORMS:
   - Use 'form_detect_type' when you only need the form identifier
   - Detection is first-match-wins over the known form patterns

NOTES:
- Repeated runs over an unchanged file are served from cache
- Scanned image renderings yield no text and therefore no fields; OCR
  is out of scope for this server`

	return &ServerInfoResult{
		ServerName:          serverName,
		Version:             version,
		IntakeDirectory:     intakeDir,
		MaxFileSize:         s.maxFileSize,
		SupportedExtensions: s.SupportedExtensions(),
		KnownForms:          knownForms,
		AvailableTools:      availableTools,
		DirectoryContents:   directoryContents,
		UsageGuidance:       usageGuidance,
	}, nil
}
