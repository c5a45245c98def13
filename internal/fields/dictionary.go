package fields

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ExpansionRule selects the canonical subfield template for a label that
// triggered expansion. Rules are evaluated strictly in list order and the
// first match wins; a rule with an empty AnyOf matches everything and
// terminates the list.
type ExpansionRule struct {
	Name     string   `json:"name" yaml:"name"`
	AnyOf    []string `json:"any_of,omitempty" yaml:"any_of,omitempty"`
	NoneOf   []string `json:"none_of,omitempty" yaml:"none_of,omitempty"`
	Template []string `json:"template" yaml:"template"`
}

// Matches reports whether the rule applies to the lower-cased label
func (r ExpansionRule) Matches(lower string) bool {
	for _, s := range r.NoneOf {
		if strings.Contains(lower, s) {
			return false
		}
	}
	if len(r.AnyOf) == 0 {
		return true
	}
	for _, s := range r.AnyOf {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// TypeRule maps label keywords to an inferred field type
type TypeRule struct {
	Type     FieldType `json:"type" yaml:"type"`
	Keywords []string  `json:"keywords" yaml:"keywords"`
}

// FormPattern ties a known form identifier to the regular expression
// that detects it in document text
type FormPattern struct {
	Form    FormType `json:"form" yaml:"form"`
	Pattern string   `json:"pattern" yaml:"pattern"`
}

// DictionarySpec is the serializable shape of a pattern dictionary.
// Custom dictionaries are YAML files of this shape, validated against
// dictionarySchema before use.
type DictionarySpec struct {
	Version      string          `json:"version,omitempty" yaml:"version,omitempty"`
	Triggers     []string        `json:"triggers" yaml:"triggers"`
	Expansion    []ExpansionRule `json:"expansion_rules" yaml:"expansion_rules"`
	TypeRules    []TypeRule      `json:"type_rules" yaml:"type_rules"`
	FormPatterns []FormPattern   `json:"form_patterns" yaml:"form_patterns"`
}

// Dictionary is the immutable pattern dictionary driving trigger
// detection, subfield expansion, type inference, and form-type
// detection. Build once at process start; safe for concurrent use.
type Dictionary struct {
	triggers  []string
	expansion []ExpansionRule
	typeRules []TypeRule
	forms     []compiledFormPattern
}

type compiledFormPattern struct {
	form FormType
	re   *regexp.Regexp
}

// Canonical subfield label templates. Subfield types are inferred from
// these labels, so wording changes shift the inferred types.
func nameTemplate() []string {
	return []string{
		"Family Name (Last Name)",
		"Given Name (First Name)",
		"Middle Name",
	}
}

func addressTemplate() []string {
	return []string{
		"Street Number and Name",
		"Apt. Ste. Flr. Number",
		"City or Town",
		"State",
		"ZIP Code",
	}
}

func mailingTemplate() []string {
	return append([]string{"Same as Physical Address (Yes/No)"}, addressTemplate()...)
}

func phoneTemplate() []string {
	return []string{
		"Daytime Telephone Number",
		"Mobile Telephone Number (if any)",
		"Email Address (if any)",
	}
}

func genericTemplate() []string {
	return []string{"Field A", "Field B", "Field C"}
}

// defaultTriggerPhrases returns the nine phrases whose presence in a
// label causes subfield expansion
func defaultTriggerPhrases() []string {
	return []string{
		"legal name", "full name", "your name",
		"physical address", "mailing address", "home address",
		"phone number", "telephone number", "daytime phone",
	}
}

// defaultExpansionRules returns the ordered template-selection rules.
// Order is significant: address must be tested before mailing so that a
// plain address label is not claimed by the mailing rule, and the
// generic rule must stay last as the catch-all.
func defaultExpansionRules() []ExpansionRule {
	return []ExpansionRule{
		{
			Name:     "name",
			AnyOf:    []string{"name"},
			Template: nameTemplate(),
		},
		{
			Name:     "address",
			AnyOf:    []string{"address"},
			NoneOf:   []string{"mailing"},
			Template: addressTemplate(),
		},
		{
			Name:     "mailing",
			AnyOf:    []string{"mailing"},
			Template: mailingTemplate(),
		},
		{
			Name:     "phone",
			AnyOf:    []string{"phone", "telephone"},
			Template: phoneTemplate(),
		},
		{
			Name:     "generic",
			Template: genericTemplate(),
		},
	}
}

// defaultTypeRules returns the keyword sets for type inference, in
// priority order; the first rule whose keyword occurs in the label wins
func defaultTypeRules() []TypeRule {
	return []TypeRule{
		{Type: FieldTypeDate, Keywords: []string{"date", "birth", "expiry"}},
		{Type: FieldTypeTel, Keywords: []string{"phone", "telephone", "mobile"}},
		{Type: FieldTypeEmail, Keywords: []string{"email"}},
		{Type: FieldTypeNumber, Keywords: []string{"number", "zip", "code"}},
		{Type: FieldTypeRadio, Keywords: []string{"yes", "no", "check"}},
	}
}

// defaultFormPatterns returns the six known form identifiers in
// detection order; first match wins
func defaultFormPatterns() []FormPattern {
	return []FormPattern{
		{Form: FormTypeI485, Pattern: `(?i)\bi-?485\b`},
		{Form: FormTypeI130, Pattern: `(?i)\bi-?130\b`},
		{Form: FormTypeI765, Pattern: `(?i)\bi-?765\b`},
		{Form: FormTypeI90, Pattern: `(?i)\bi-?90\b`},
		{Form: FormTypeN400, Pattern: `(?i)\bn-?400\b`},
		{Form: FormTypeI131, Pattern: `(?i)\bi-?131\b`},
	}
}

// DefaultSpec returns the compiled-in dictionary specification
func DefaultSpec() DictionarySpec {
	return DictionarySpec{
		Version:      "1.0",
		Triggers:     defaultTriggerPhrases(),
		Expansion:    defaultExpansionRules(),
		TypeRules:    defaultTypeRules(),
		FormPatterns: defaultFormPatterns(),
	}
}

// DefaultDictionary builds the compiled-in pattern dictionary. The
// defaults are known-good, so compilation cannot fail.
func DefaultDictionary() *Dictionary {
	d, err := BuildDictionary(DefaultSpec())
	if err != nil {
		panic(fmt.Sprintf("default dictionary is invalid: %v", err))
	}
	return d
}

// BuildDictionary compiles a specification into an immutable Dictionary
func BuildDictionary(spec DictionarySpec) (*Dictionary, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	d := &Dictionary{
		triggers:  make([]string, len(spec.Triggers)),
		expansion: make([]ExpansionRule, len(spec.Expansion)),
		typeRules: make([]TypeRule, len(spec.TypeRules)),
		forms:     make([]compiledFormPattern, 0, len(spec.FormPatterns)),
	}

	for i, t := range spec.Triggers {
		d.triggers[i] = strings.ToLower(t)
	}
	for i, rule := range spec.Expansion {
		d.expansion[i] = ExpansionRule{
			Name:     rule.Name,
			AnyOf:    lowerAll(rule.AnyOf),
			NoneOf:   lowerAll(rule.NoneOf),
			Template: append([]string(nil), rule.Template...),
		}
	}
	for i, rule := range spec.TypeRules {
		d.typeRules[i] = TypeRule{
			Type:     rule.Type,
			Keywords: lowerAll(rule.Keywords),
		}
	}
	for _, fp := range spec.FormPatterns {
		re, err := regexp.Compile(fp.Pattern)
		if err != nil {
			return nil, fmt.Errorf("form pattern %q: %w", fp.Form, err)
		}
		d.forms = append(d.forms, compiledFormPattern{form: fp.Form, re: re})
	}

	return d, nil
}

func lowerAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func validateSpec(spec DictionarySpec) error {
	if len(spec.Triggers) == 0 {
		return fmt.Errorf("dictionary has no trigger phrases")
	}
	if len(spec.Expansion) == 0 {
		return fmt.Errorf("dictionary has no expansion rules")
	}
	last := spec.Expansion[len(spec.Expansion)-1]
	if len(last.AnyOf) != 0 {
		return fmt.Errorf("last expansion rule %q must be a catch-all (empty any_of)", last.Name)
	}
	for _, rule := range spec.Expansion {
		if len(rule.Template) == 0 {
			return fmt.Errorf("expansion rule %q has an empty template", rule.Name)
		}
	}
	for _, rule := range spec.TypeRules {
		if !rule.Type.IsValid() {
			return fmt.Errorf("type rule references unknown field type %q", rule.Type)
		}
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("type rule for %q has no keywords", rule.Type)
		}
	}
	return nil
}

// LoadDictionary reads a custom dictionary from a YAML file, validates
// it against the dictionary schema, and compiles it. An invalid file is
// an error; there is no silent fallback to the defaults.
func LoadDictionary(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary file: %w", err)
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse dictionary file: %w", err)
	}

	if err := validateAgainstSchema(raw); err != nil {
		return nil, fmt.Errorf("dictionary file %s: %w", path, err)
	}

	var spec DictionarySpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("decode dictionary file: %w", err)
	}

	d, err := BuildDictionary(spec)
	if err != nil {
		return nil, fmt.Errorf("dictionary file %s: %w", path, err)
	}
	return d, nil
}

func validateAgainstSchema(doc any) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("dictionary.schema.json", strings.NewReader(dictionarySchema)); err != nil {
		return fmt.Errorf("load dictionary schema: %w", err)
	}
	schema, err := compiler.Compile("dictionary.schema.json")
	if err != nil {
		return fmt.Errorf("compile dictionary schema: %w", err)
	}

	// yaml.v3 decodes mappings as map[string]any, which round-trips
	// through JSON for schema validation.
	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("normalize dictionary for validation: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(jsonBytes, &normalized); err != nil {
		return fmt.Errorf("normalize dictionary for validation: %w", err)
	}

	if err := schema.Validate(normalized); err != nil {
		return fmt.Errorf("dictionary does not match schema: %w", err)
	}
	return nil
}

// dictionarySchema constrains custom dictionary files. Compiled rules
// get a second structural pass in validateSpec, so the schema focuses
// on shape and required keys.
const dictionarySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["triggers", "expansion_rules"],
  "properties": {
    "version": {"type": "string"},
    "triggers": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    },
    "expansion_rules": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "template"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "any_of": {"type": "array", "items": {"type": "string"}},
          "none_of": {"type": "array", "items": {"type": "string"}},
          "template": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "string", "minLength": 1}
          }
        }
      }
    },
    "type_rules": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type", "keywords"],
        "properties": {
          "type": {"type": "string"},
          "keywords": {"type": "array", "minItems": 1, "items": {"type": "string"}}
        }
      }
    },
    "form_patterns": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["form", "pattern"],
        "properties": {
          "form": {"type": "string", "minLength": 1},
          "pattern": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

// Triggers returns a copy of the trigger phrase list
func (d *Dictionary) Triggers() []string {
	return append([]string(nil), d.triggers...)
}

// MatchTrigger returns the first trigger phrase contained in the label,
// matched case-insensitively
func (d *Dictionary) MatchTrigger(label string) (string, bool) {
	lower := strings.ToLower(label)
	for _, t := range d.triggers {
		if strings.Contains(lower, t) {
			return t, true
		}
	}
	return "", false
}

// ExpansionFor returns the first expansion rule matching the label. The
// rule list always ends in a catch-all, so a rule is always found.
func (d *Dictionary) ExpansionFor(label string) ExpansionRule {
	lower := strings.ToLower(label)
	for _, rule := range d.expansion {
		if rule.Matches(lower) {
			return rule
		}
	}
	// Unreachable with a validated dictionary.
	return d.expansion[len(d.expansion)-1]
}

// InferType returns the field type for a label via ordered keyword
// lookup, defaulting to text
func (d *Dictionary) InferType(label string) FieldType {
	lower := strings.ToLower(label)
	for _, rule := range d.typeRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Type
			}
		}
	}
	return FieldTypeText
}

// ExpansionRuleCount returns the number of expansion rules, catch-all
// included
func (d *Dictionary) ExpansionRuleCount() int {
	return len(d.expansion)
}

// FormPatternCount returns the number of form detection patterns
func (d *Dictionary) FormPatternCount() int {
	return len(d.forms)
}
