package fields

import (
	"fmt"
	"strings"
)

// Extractor drives one forward pass over document text: line
// classification, field building, and form-type detection. Each call to
// Extract owns its own accumulators, so a single Extractor is safe for
// concurrent use across documents.
type Extractor struct {
	dict       *Dictionary
	detector   *FormDetector
	classifier *LineClassifier
	builder    *FieldBuilder
}

// NewExtractor creates an extractor backed by the given dictionary
func NewExtractor(dict *Dictionary) *Extractor {
	return &Extractor{
		dict:       dict,
		detector:   NewFormDetector(dict),
		classifier: NewLineClassifier(),
		builder:    NewFieldBuilder(dict),
	}
}

// Dictionary returns the dictionary the extractor was built with
func (e *Extractor) Dictionary() *Dictionary {
	return e.dict
}

// Extract runs the full pass over the text and returns the ordered
// field sequence, the parent hierarchy, the part headers encountered,
// and the debug trace. Text with no numbered lines yields an empty
// field sequence; no input is an error.
func (e *Extractor) Extract(text string) *Result {
	result := &Result{
		FormType:  e.detector.Detect(text),
		Fields:    []Field{},
		Hierarchy: map[string]HierarchyEntry{},
	}
	result.Trace = append(result.Trace,
		fmt.Sprintf("detected form type: %s", result.FormType))

	for _, line := range strings.Split(text, "\n") {
		info := e.classifier.Classify(line)
		switch info.Class {
		case LineClassBlank:
			// Skipped entirely, not even traced.
			continue
		case LineClassPart:
			// Part headers update section context only; they never
			// become fields.
			result.Parts = append(result.Parts, Part{
				Number: info.Number,
				Title:  info.Text,
			})
			result.Trace = append(result.Trace,
				fmt.Sprintf("part %s: %s", info.Number, info.Text))
		case LineClassItem:
			built := e.builder.Build(info.Number, info.Text)
			result.Fields = append(result.Fields, built.Fields...)
			if built.Hierarchy != nil {
				// A repeated item number replaces the earlier entry,
				// matching the observed source behavior; the field
				// sequence keeps both occurrences.
				result.Hierarchy[info.Number] = *built.Hierarchy
			}
			result.Trace = append(result.Trace, built.Trace...)
		case LineClassInert:
			// Contributes nothing.
		}
	}

	result.Trace = append(result.Trace,
		fmt.Sprintf("extraction complete: %d fields, %d parents",
			result.FieldCount(), result.ParentCount()))
	return result
}
