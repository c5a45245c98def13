package fields

// FieldType represents the inferred input type of an extracted form field
type FieldType string

const (
	FieldTypeText   FieldType = "text"
	FieldTypeDate   FieldType = "date"
	FieldTypeTel    FieldType = "tel"
	FieldTypeEmail  FieldType = "email"
	FieldTypeNumber FieldType = "number"
	FieldTypeRadio  FieldType = "radio"
	FieldTypeParent FieldType = "parent"
)

// IsValid checks if the field type is one of the known types
func (ft FieldType) IsValid() bool {
	switch ft {
	case FieldTypeText, FieldTypeDate, FieldTypeTel, FieldTypeEmail,
		FieldTypeNumber, FieldTypeRadio, FieldTypeParent:
		return true
	default:
		return false
	}
}

// AllFieldTypes returns all valid field types
func AllFieldTypes() []FieldType {
	return []FieldType{
		FieldTypeText,
		FieldTypeDate,
		FieldTypeTel,
		FieldTypeEmail,
		FieldTypeNumber,
		FieldTypeRadio,
		FieldTypeParent,
	}
}

// FormType identifies a known immigration form
type FormType string

const (
	FormTypeUnknown FormType = "Unknown"
	FormTypeI485    FormType = "I-485"
	FormTypeI130    FormType = "I-130"
	FormTypeI765    FormType = "I-765"
	FormTypeI90     FormType = "I-90"
	FormTypeN400    FormType = "N-400"
	FormTypeI131    FormType = "I-131"
)

// DisplayName returns the official title of a known form
func (ft FormType) DisplayName() string {
	switch ft {
	case FormTypeI485:
		return "Application to Register Permanent Residence or Adjust Status"
	case FormTypeI130:
		return "Petition for Alien Relative"
	case FormTypeI765:
		return "Application for Employment Authorization"
	case FormTypeI90:
		return "Application to Replace Permanent Resident Card"
	case FormTypeN400:
		return "Application for Naturalization"
	case FormTypeI131:
		return "Application for Travel Document"
	default:
		return "Unknown Form"
	}
}

// Coordinates represents the position of a field on a rendered page.
// Reserved for conversion backends that report layout; the text
// heuristic never populates it.
type Coordinates struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Field is one extracted form-input unit
type Field struct {
	// Identification
	ItemNumber string    `json:"item_number"`
	Label      string    `json:"label"`
	FieldType  FieldType `json:"field_type"`

	// Hierarchy flags; a field is exactly one of top-level leaf,
	// parent, or subfield
	IsParent     bool   `json:"is_parent"`
	IsSubfield   bool   `json:"is_subfield"`
	ParentNumber string `json:"parent_number,omitempty"`

	// Reserved extension points, not populated by the heuristic
	PageNumber  int          `json:"page_number,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Value       string       `json:"value,omitempty"`
	Options     []string     `json:"options,omitempty"`
}

// HierarchyEntry records a parent field's label and the ordered labels
// of the subfields created for it
type HierarchyEntry struct {
	Label     string   `json:"label"`
	Subfields []string `json:"subfields"`
}

// Part represents a "Part N." section header encountered in the text.
// Part headers never become fields; they are kept for diagnostics.
type Part struct {
	Number string `json:"number"`
	Title  string `json:"title"`
}

// Result is the complete output of one extraction pass over a document
type Result struct {
	FormType  FormType                  `json:"form_type"`
	Fields    []Field                   `json:"fields"`
	Hierarchy map[string]HierarchyEntry `json:"hierarchy"`
	Parts     []Part                    `json:"parts,omitempty"`
	Trace     []string                  `json:"trace,omitempty"`
}

// FieldCount returns the total number of extracted fields
func (r *Result) FieldCount() int {
	return len(r.Fields)
}

// ParentCount returns the number of parent fields in the result
func (r *Result) ParentCount() int {
	n := 0
	for i := range r.Fields {
		if r.Fields[i].IsParent {
			n++
		}
	}
	return n
}
