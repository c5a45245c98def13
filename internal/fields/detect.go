package fields

// FormDetector identifies which known immigration form a document is,
// by scanning its full text against the dictionary's ordered form
// patterns
type FormDetector struct {
	patterns []compiledFormPattern
}

// NewFormDetector creates a form detector backed by the given dictionary
func NewFormDetector(dict *Dictionary) *FormDetector {
	return &FormDetector{patterns: dict.forms}
}

// Detect returns the first form whose pattern matches anywhere in the
// text, or FormTypeUnknown when none match. Pattern order is fixed and
// first-match-wins, so overlapping patterns resolve deterministically.
func (fd *FormDetector) Detect(text string) FormType {
	for _, p := range fd.patterns {
		if p.re.MatchString(text) {
			return p.form
		}
	}
	return FormTypeUnknown
}
