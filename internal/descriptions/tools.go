package descriptions

// Comprehensive tool descriptions with practical examples and use cases

const (
	// Extraction Tools
	FormExtractFieldsDescription = `Recover the labeled field structure from a form document rendering.

**When to use:** Need the numbered items, subfield expansions, and part headings from a PDF, DOCX, HTML, Markdown, or plain-text rendering of an immigration form.

**Why it's useful:** Turns flat document text back into structured fields: numbered items are classified, composite labels like "Full Legal Name" expand into their standard subfields (Family Name, Given Name, Middle Name), and each field gets an inferred input type.

**Examples:**
• Digitize a form: "Extract fields from i-485.pdf to seed the data-entry template"
• Audit a rendering: "Extract fields from n-400.docx and compare against the published edition"
• Build a checklist: "Get the field list from i-765.html for the applicant packet"

**Common workflows:**
1. Form Digitization: Extract fields → Review hierarchy → Generate data-entry schema
2. Edition Comparison: Extract from two renderings → Diff field lists → Flag changes
3. Intake Pipeline: Validate file → Extract fields → Export JSON or CSV records

**Best practices:** Validate the file first, set include_trace to see how each item was classified when results look off.`

	FormDetectTypeDescription = `Identify which form a document is a rendering of from its text.

**When to use:** Need to know whether a document is an I-485, I-130, I-765, I-90, N-400, or I-131 before routing it for processing.

**Why it's useful:** Scans the document text for form-number patterns so intake pipelines can route documents without relying on filenames, which are often wrong or generic.

**Examples:**
• Route uploads: "Detect the form type of upload-2831.pdf before queueing it"
• Sort an inbox: "Detect types for everything in /intake/unsorted/ to file by form"
• Sanity check: "Confirm green-card-renewal.docx is actually an I-90"

**Common workflows:**
1. Intake Routing: Detect type → Route to the form-specific queue → Extract fields
2. Inbox Triage: Scan directory → Detect each type → File into per-form folders
3. Mislabel Detection: Detect type → Compare against filename → Flag mismatches

**Best practices:** Detection reads the whole document text, so it works on renamed files; unknown means no known form number appeared.`

	FormValidateFileDescription = `Verify a document is readable and within limits before processing.

**When to use:** Before extracting fields from any document, especially user uploads or files of unknown provenance.

**Why it's useful:** Catches missing files, unsupported formats, empty and oversized files early, and for PDFs runs a structural probe that reports page count, PDF version, and encryption.

**Examples:**
• Upload verification: "Check applicant-packet.pdf is valid before extraction"
• Batch safety: "Validate all files in /intake/ before the nightly extraction run"
• Corruption triage: "Probe damaged.pdf to see whether it is worth repairing"

**Common workflows:**
1. Automated Processing: Validate → Extract if valid → Handle failures gracefully
2. Quality Control: Validate → Report issues → Reject or repair bad files
3. Pre-processing: Validate → Route by format → Choose extraction path

**Best practices:** Validation failures come back as a result with a message, not an error, so batch loops can keep going.`

	// Discovery Tools
	FormIntakeDirectoryDescription = `Discover form documents in the intake directory with optional search.

**When to use:** Need to see what documents are waiting for processing, or find specific files by partial name.

**Why it's useful:** Lists only files the converter can actually handle, skipping hidden directories, empty files, and unsupported formats, with fuzzy matching for partial names.

**Examples:**
• Inbox overview: "List everything in the intake directory to plan the day's processing"
• Find a case file: "Search the intake directory for 'martinez' to find that applicant's forms"
• Spot stragglers: "Search for 'i90' to find renewal forms scattered across subdirectories"

**Common workflows:**
1. Batch Processing: Scan directory → Validate each file → Extract in sequence
2. Case Lookup: Search by name fragment → Confirm the match → Extract fields
3. Intake Monitoring: Scan periodically → Compare counts → Alert on backlog

**Best practices:** Queries match substrings first, then word fragments, so 'i485 smith' finds 'I-485_smith_draft.docx'.`

	// Utility Tools
	FormServerInfoDescription = `Get server status, configuration, and available capabilities.

**When to use:** Starting a session with the intake server, troubleshooting missing files, or checking which formats and forms are supported.

**Why it's useful:** Reports the intake directory and its contents, supported file extensions, known form types, and every available tool in one call.

**Examples:**
• Session startup: "Check server info to confirm the intake directory before processing"
• Troubleshooting: "See server info to find out why uploaded files aren't visible"
• Capability check: "List supported extensions to know whether .docx renderings work"

**Common workflows:**
1. Session Startup: Check server info → Verify directory and limits → Plan processing
2. Debugging: Review configuration → Check directory contents → Verify tool availability
3. Onboarding: Review tools and usage guidance → Choose methods → Execute workflow

**Best practices:** Run at the start of sessions; the directory listing is capped, so use form_intake_directory for full scans.`
)

// ToolDescriptions maps tool names to their comprehensive descriptions
var ToolDescriptions = map[string]string{
	"form_extract_fields":   FormExtractFieldsDescription,
	"form_detect_type":      FormDetectTypeDescription,
	"form_validate_file":    FormValidateFileDescription,
	"form_intake_directory": FormIntakeDirectoryDescription,
	"form_server_info":      FormServerInfoDescription,
}

// GetToolDescription returns the comprehensive description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns a list of all available tool names
func GetAllToolNames() []string {
	var names []string
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	return names
}
