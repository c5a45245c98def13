package fields

import (
	"regexp"
	"strings"
)

// LineClass is the outcome of classifying one line of document text
type LineClass string

const (
	// LineClassBlank marks a line that is empty after trimming; blank
	// lines are skipped before any other handling.
	LineClassBlank LineClass = "blank"
	// LineClassPart marks a "Part N. Title" section header.
	LineClassPart LineClass = "part"
	// LineClassItem marks a numbered field line ("N. Label").
	LineClassItem LineClass = "item"
	// LineClassInert marks a line that matched neither pattern.
	LineClassInert LineClass = "inert"
)

// LineInfo carries the classification of a single line plus the
// captured number and text for part headers and numbered items
type LineInfo struct {
	Class  LineClass
	Number string
	Text   string
}

var (
	// Part headers match case-insensitively.
	partPattern = regexp.MustCompile(`(?i)^part\s+(\d+)\.\s*(.+)$`)
	// Numbered items are anchored at start of line and case-sensitive;
	// the digit token must be followed by a dot and whitespace, so
	// dotted subfield numbering like "3.a" in source text never
	// re-enters as an item.
	itemPattern = regexp.MustCompile(`^(\d+)\.\s+(.+)$`)
)

// LineClassifier classifies lines one at a time, in document order,
// with no lookback or lookahead
type LineClassifier struct{}

// NewLineClassifier creates a line classifier
func NewLineClassifier() *LineClassifier {
	return &LineClassifier{}
}

// Classify inspects a single raw line. Part headers win over numbered
// items; a line that is blank after trimming is reported as blank and
// must be skipped entirely by callers.
func (lc *LineClassifier) Classify(line string) LineInfo {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return LineInfo{Class: LineClassBlank}
	}

	if m := partPattern.FindStringSubmatch(trimmed); m != nil {
		return LineInfo{
			Class:  LineClassPart,
			Number: m[1],
			Text:   strings.TrimSpace(m[2]),
		}
	}

	if m := itemPattern.FindStringSubmatch(trimmed); m != nil {
		return LineInfo{
			Class:  LineClassItem,
			Number: m[1],
			Text:   strings.TrimSpace(m[2]),
		}
	}

	return LineInfo{Class: LineClassInert}
}
