package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/formintake/formintake/internal/convert"
	"github.com/formintake/formintake/internal/fields"
	"github.com/formintake/formintake/internal/intake"
)

var (
	outputFormat = flag.String("format", "text", "Output format: text, json, csv")
	includeTrace = flag.Bool("trace", false, "Include the line-by-line extraction trace")
	dictPath     = flag.String("dict", "", "Path to a custom pattern dictionary (YAML)")
	maxFileSize  = flag.Int64("max-file-size", 100*1024*1024, "Maximum document size in bytes")
	doctorMode   = flag.Bool("doctor", false, "Run the environment self-check instead of extracting")
	verbose      = flag.Bool("verbose", false, "Enable verbose output")
	help         = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *help {
		printHelp()
		return
	}

	dict, err := loadDictionary()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *doctorMode {
		report, err := runDoctor(dict)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running self-check: %v\n", err)
			os.Exit(1)
		}
		if !report.Healthy {
			os.Exit(1)
		}
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Error: document path required\n\n")
		printUsage()
		os.Exit(1)
	}

	docPath := flag.Arg(0)
	if _, err := os.Stat(docPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: File not found: %s\n", docPath)
		os.Exit(1)
	}

	result, err := extractDocument(docPath, dict)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error extracting fields: %v\n", err)
		os.Exit(1)
	}

	if err := outputResults(result); err != nil {
		fmt.Fprintf(os.Stderr, "Error outputting results: %v\n", err)
		os.Exit(1)
	}

	if !result.Success {
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("Extract Fields - Recover labeled form fields from document renderings")
	fmt.Println()
	fmt.Println("This tool converts a PDF, DOCX, HTML, Markdown, or plain-text rendering of")
	fmt.Println("an immigration form into text and rebuilds the numbered field structure:")
	fmt.Println("item numbers, labels, inferred input types, and parent/subfield hierarchy.")
	fmt.Println()
	printUsage()
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -format         Output format: text (default), json, csv")
	fmt.Println("  -trace          Include the line-by-line extraction trace in the output")
	fmt.Println("  -dict           Load a custom pattern dictionary from a YAML file")
	fmt.Println("  -max-file-size  Maximum document size in bytes (default 104857600)")
	fmt.Println("  -doctor         Run the environment self-check and exit")
	fmt.Println("  -verbose        Enable verbose output")
	fmt.Println("  -help           Show this help message")
	fmt.Println()
	fmt.Println("TRACE MODE:")
	fmt.Println("  When -trace is enabled, the output includes the extractor's decisions:")
	fmt.Println("  • Which form identifier pattern matched the document")
	fmt.Println("  • Each part header encountered")
	fmt.Println("  • Which trigger phrases expanded labels into subfields")
	fmt.Println("  • The final field and parent counts")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  extract_fields i485.pdf")
	fmt.Println("  extract_fields -format json -trace i130.docx")
	fmt.Println("  extract_fields -format csv n400.html > n400-fields.csv")
	fmt.Println("  extract_fields -dict patterns.yaml form.md")
	fmt.Println("  extract_fields -doctor")
	fmt.Println()
	fmt.Println("SUPPORTED FORMATS:")
	fmt.Println("  • PDF (text-layer extraction; scanned pages without text are not readable)")
	fmt.Println("  • DOCX (paragraph text)")
	fmt.Println("  • HTML (rendered text with list numbering preserved)")
	fmt.Println("  • Markdown (ordered-list numbering preserved)")
	fmt.Println("  • Plain text")
}

func printUsage() {
	fmt.Println("USAGE:")
	fmt.Println("  extract_fields [OPTIONS] <document>")
}

// ExtractionResult represents the complete result of one extraction run
type ExtractionResult struct {
	FilePath    string         `json:"file_path"`
	Name        string         `json:"name,omitempty"`
	Format      string         `json:"format,omitempty"`
	Pages       int            `json:"pages,omitempty"`
	Success     bool           `json:"success"`
	FieldCount  int            `json:"field_count"`
	ParentCount int            `json:"parent_count"`
	Extraction  *fields.Export `json:"extraction,omitempty"`
	Error       string         `json:"error,omitempty"`

	raw *fields.Result
}

func loadDictionary() (*fields.Dictionary, error) {
	if *dictPath == "" {
		return fields.DefaultDictionary(), nil
	}
	dict, err := fields.LoadDictionary(*dictPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary %s: %w", *dictPath, err)
	}
	return dict, nil
}

func extractDocument(docPath string, dict *fields.Dictionary) (*ExtractionResult, error) {
	absPath, err := filepath.Abs(docPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	result := &ExtractionResult{
		FilePath: absPath,
		Success:  false,
	}

	if *verbose {
		fmt.Printf("🔍 Analyzing document: %s\n", absPath)
		fmt.Println()
	}

	engine := convert.NewEngine(*maxFileSize)
	doc, err := engine.Convert(absPath)
	if err != nil {
		result.Error = err.Error()
		return result, nil // Don't fail, return error in result
	}

	result.Name = doc.Name
	result.Format = doc.Format
	result.Pages = doc.Pages

	extraction := fields.NewExtractor(dict).Extract(doc.Text)

	result.Success = true
	result.FieldCount = extraction.FieldCount()
	result.ParentCount = extraction.ParentCount()
	export := fields.NewExport(extraction, *includeTrace)
	result.Extraction = &export
	result.raw = extraction

	if *verbose {
		fmt.Printf("✅ Extraction completed successfully\n")
		fmt.Printf("📊 Found %d fields (%d parents)\n", result.FieldCount, result.ParentCount)
		fmt.Println()
	}

	return result, nil
}

func outputResults(result *ExtractionResult) error {
	switch *outputFormat {
	case "json":
		return outputJSON(result)
	case "csv":
		return outputCSV(result)
	case "text":
		return outputText(result)
	default:
		return fmt.Errorf("unsupported output format: %s", *outputFormat)
	}
}

func outputJSON(result *ExtractionResult) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputCSV(result *ExtractionResult) error {
	if !result.Success {
		return fmt.Errorf("extraction failed: %s", result.Error)
	}
	return fields.WriteCSV(os.Stdout, result.raw)
}

func outputText(result *ExtractionResult) error {
	if !result.Success {
		fmt.Printf("❌ Field extraction failed: %s\n", result.Error)
		return nil
	}

	extraction := result.raw

	if result.FieldCount == 0 {
		fmt.Println("⚠️  No labeled form fields detected in the document")
		if !*includeTrace {
			fmt.Println()
			fmt.Println("TRY:")
			fmt.Println("• Re-run with -trace to see how the extractor classified each line")
			fmt.Println("• Check that the document carries numbered item labels (1., 2., ...)")
			fmt.Println("• Scanned PDFs without a text layer produce no extractable lines")
		}
		printTrace(extraction)
		return nil
	}

	fmt.Printf("✅ Successfully extracted %d form fields (%d parents)\n", result.FieldCount, result.ParentCount)
	fmt.Printf("📄 Form Type: %s (%s)\n", extraction.FormType, extraction.FormType.DisplayName())
	fmt.Println()

	if len(extraction.Parts) > 0 {
		fmt.Println("PARTS:")
		for _, p := range extraction.Parts {
			fmt.Printf("  Part %s. %s\n", p.Number, p.Title)
		}
		fmt.Println()
	}

	fmt.Println("FIELDS:")
	for i := range extraction.Fields {
		f := &extraction.Fields[i]
		switch {
		case f.IsSubfield:
			fmt.Printf("      %s %s (%s)\n", f.ItemNumber, f.Label, f.FieldType)
		case f.IsParent:
			fmt.Printf("  [%s] %s\n", f.ItemNumber, f.Label)
		default:
			fmt.Printf("  [%s] %s (%s)\n", f.ItemNumber, f.Label, f.FieldType)
		}
	}
	fmt.Println()

	printTrace(extraction)

	return nil
}

func printTrace(extraction *fields.Result) {
	if !*includeTrace || extraction == nil || len(extraction.Trace) == 0 {
		return
	}

	fmt.Println("🔍 EXTRACTION TRACE")
	fmt.Println("===================")
	for _, line := range extraction.Trace {
		fmt.Printf("  %s\n", line)
	}
	fmt.Println()
}

func runDoctor(dict *fields.Dictionary) (*intake.DoctorReport, error) {
	svc, err := intake.NewService(intake.Options{
		MaxFileSize: *maxFileSize,
		IntakeDir:   ".",
		Dictionary:  dict,
	})
	if err != nil {
		return nil, err
	}

	report := svc.Doctor()

	if *outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(report); err != nil {
			return nil, err
		}
		return report, nil
	}

	fmt.Println("📋 ENVIRONMENT SELF-CHECK")
	fmt.Println("=========================")
	for _, check := range report.Checks {
		fmt.Printf("%s %-18s %s\n", statusIcon(check.Status), check.Name, check.Detail)
	}
	fmt.Println()
	if report.Healthy {
		fmt.Println("✅ All checks passed")
	} else {
		fmt.Println("❌ One or more checks failed")
	}

	return report, nil
}

func statusIcon(status intake.CheckStatus) string {
	switch status {
	case intake.CheckStatusOK:
		return "✅"
	case intake.CheckStatusFailed:
		return "❌"
	default:
		return "ℹ️ "
	}
}

func init() {
	// Custom flag usage
	flag.Usage = func() {
		printHelp()
	}
}
