package fields

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
)

// Record is the flat serialization of one Field: one record per field,
// booleans explicit, absent parent_number rendered as an empty string
type Record struct {
	ItemNumber   string `json:"item_number"`
	Label        string `json:"label"`
	FieldType    string `json:"field_type"`
	IsParent     bool   `json:"is_parent"`
	IsSubfield   bool   `json:"is_subfield"`
	ParentNumber string `json:"parent_number"`
}

// Export is the serializable form of a Result for the presentation and
// export collaborators
type Export struct {
	FormType  FormType                  `json:"form_type"`
	FormTitle string                    `json:"form_title"`
	Records   []Record                  `json:"fields"`
	Hierarchy map[string]HierarchyEntry `json:"hierarchy"`
	Parts     []Part                    `json:"parts,omitempty"`
	Trace     []string                  `json:"trace,omitempty"`
}

// NewExport flattens a Result into its export form. The trace is
// included only on request; it is diagnostic, not part of the
// functional contract.
func NewExport(result *Result, includeTrace bool) Export {
	e := Export{
		FormType:  result.FormType,
		FormTitle: result.FormType.DisplayName(),
		Records:   make([]Record, 0, len(result.Fields)),
		Hierarchy: result.Hierarchy,
		Parts:     result.Parts,
	}
	for i := range result.Fields {
		f := &result.Fields[i]
		e.Records = append(e.Records, Record{
			ItemNumber:   f.ItemNumber,
			Label:        f.Label,
			FieldType:    string(f.FieldType),
			IsParent:     f.IsParent,
			IsSubfield:   f.IsSubfield,
			ParentNumber: f.ParentNumber,
		})
	}
	if includeTrace {
		e.Trace = result.Trace
	}
	return e
}

// WriteJSON writes the indented JSON export of a result
func WriteJSON(w io.Writer, result *Result, includeTrace bool) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(NewExport(result, includeTrace)); err != nil {
		return fmt.Errorf("encode extraction result: %w", err)
	}
	return nil
}

// csvHeader is the fixed column order of the tabular export
var csvHeader = []string{
	"item_number", "label", "field_type", "is_parent", "is_subfield", "parent_number",
}

// WriteCSV writes the tabular export: one row per field in document
// order, booleans as true/false, absent parent_number as empty string
func WriteCSV(w io.Writer, result *Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range result.Fields {
		f := &result.Fields[i]
		row := []string{
			f.ItemNumber,
			f.Label,
			string(f.FieldType),
			strconv.FormatBool(f.IsParent),
			strconv.FormatBool(f.IsSubfield),
			f.ParentNumber,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", f.ItemNumber, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// MarkdownReport renders a human-readable summary of an extraction:
// form type, counts, part headers, and the field tree with subfields
// nested under their parents
func MarkdownReport(result *Result) string {
	var b strings.Builder

	b.WriteString("# Field Extraction Report\n\n")
	fmt.Fprintf(&b, "**Form type:** %s (%s)\n\n", result.FormType, result.FormType.DisplayName())
	fmt.Fprintf(&b, "**Fields:** %d total, %d parents\n\n", result.FieldCount(), result.ParentCount())

	if len(result.Parts) > 0 {
		b.WriteString("## Parts\n\n")
		for _, p := range result.Parts {
			fmt.Fprintf(&b, "- Part %s. %s\n", p.Number, p.Title)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Fields\n\n")
	if len(result.Fields) == 0 {
		b.WriteString("No numbered fields were found in the document text.\n")
		return b.String()
	}
	for i := range result.Fields {
		f := &result.Fields[i]
		switch {
		case f.IsSubfield:
			fmt.Fprintf(&b, "  - **%s** %s `%s`\n", f.ItemNumber, f.Label, f.FieldType)
		case f.IsParent:
			fmt.Fprintf(&b, "- **%s.** %s\n", f.ItemNumber, f.Label)
		default:
			fmt.Fprintf(&b, "- **%s.** %s `%s`\n", f.ItemNumber, f.Label, f.FieldType)
		}
	}

	return b.String()
}

// RenderHTML converts the markdown report to HTML for browser preview
func RenderHTML(result *Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(MarkdownReport(result)), &buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}
