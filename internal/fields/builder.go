package fields

import (
	"fmt"
)

// BuildResult is the output of building one numbered item: the emitted
// fields (a single leaf, or a parent followed by its subfields), the
// hierarchy entry when expansion occurred, and the trace lines
// describing what happened
type BuildResult struct {
	Fields    []Field
	Hierarchy *HierarchyEntry
	Trace     []string
}

// FieldBuilder turns (item number, label) pairs into field records,
// expanding labels that contain a trigger phrase into parent/subfield
// groups per the dictionary's templates
type FieldBuilder struct {
	dict *Dictionary
}

// NewFieldBuilder creates a field builder backed by the given dictionary
func NewFieldBuilder(dict *Dictionary) *FieldBuilder {
	return &FieldBuilder{dict: dict}
}

// Build classifies one numbered item. When the label contains a trigger
// phrase it emits one parent field followed by the template's subfields,
// numbered {n}.a, {n}.b, and so on; otherwise it emits a single field
// whose type is inferred from the label.
func (fb *FieldBuilder) Build(itemNumber, label string) BuildResult {
	trigger, ok := fb.dict.MatchTrigger(label)
	if !ok {
		fieldType := fb.dict.InferType(label)
		return BuildResult{
			Fields: []Field{{
				ItemNumber: itemNumber,
				Label:      label,
				FieldType:  fieldType,
			}},
			Trace: []string{
				fmt.Sprintf("item %s %q classified as %s", itemNumber, label, fieldType),
			},
		}
	}

	rule := fb.dict.ExpansionFor(label)

	fields := make([]Field, 0, len(rule.Template)+1)
	fields = append(fields, Field{
		ItemNumber: itemNumber,
		Label:      label,
		FieldType:  FieldTypeParent,
		IsParent:   true,
	})

	subLabels := make([]string, 0, len(rule.Template))
	for i, subLabel := range rule.Template {
		fields = append(fields, Field{
			ItemNumber:   fmt.Sprintf("%s.%s", itemNumber, subfieldLetter(i)),
			Label:        subLabel,
			FieldType:    fb.dict.InferType(subLabel),
			IsSubfield:   true,
			ParentNumber: itemNumber,
		})
		subLabels = append(subLabels, subLabel)
	}

	return BuildResult{
		Fields: fields,
		Hierarchy: &HierarchyEntry{
			Label:     label,
			Subfields: subLabels,
		},
		Trace: []string{
			fmt.Sprintf("item %s %q matched trigger %q, expanded via %s rule into %d subfields",
				itemNumber, label, trigger, rule.Name, len(rule.Template)),
		},
	}
}

// subfieldLetter returns the letter suffix for the i-th subfield:
// a..z, then aa, ab, ... for templates longer than the alphabet.
func subfieldLetter(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	return string(rune('a'+i/26-1)) + string(rune('a'+i%26))
}
