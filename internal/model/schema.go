package model

import (
	_ "embed"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// FieldKind describes the value type a schema field carries.
type FieldKind string

const (
	KindString FieldKind = "string"
	KindInt    FieldKind = "int"
	KindFloat  FieldKind = "float"
	KindBool   FieldKind = "bool"
	KindDate   FieldKind = "date"
	KindList   FieldKind = "list"
)

// SchemaField describes one extractable field of a journal page.
// Path is the dot-separated location in the transcription record, for
// example "patient.age.num" or "diagnoses.top".
type SchemaField struct {
	Path        string    `yaml:"path" json:"path"`
	Kind        FieldKind `yaml:"kind" json:"kind"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Optional    bool      `yaml:"optional,omitempty" json:"optional,omitempty"`
}

// Schema is an indexed collection of journal page fields.
type Schema struct {
	Fields []SchemaField
	byPath map[string]*SchemaField
}

// NewSchema builds a Schema with indexed path lookups.
func NewSchema(fields []SchemaField) *Schema {
	s := &Schema{
		Fields: fields,
		byPath: make(map[string]*SchemaField, len(fields)),
	}
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Kind == "" {
			f.Kind = KindString
		}
		s.byPath[f.Path] = f
	}
	return s
}

// ByPath returns the schema field for the given dot path, or nil.
// List element paths like "diagnoses.top.0" resolve to their list field.
func (s *Schema) ByPath(path string) *SchemaField {
	if f, ok := s.byPath[path]; ok {
		return f
	}
	// Trailing index segment from a flattened list element.
	if i := strings.LastIndex(path, "."); i > 0 {
		if _, err := strconv.Atoi(path[i+1:]); err == nil {
			return s.byPath[path[:i]]
		}
	}
	return nil
}

// ParseValue validates and converts a reviewer-entered correction for
// the field at path. Unknown paths pass through as strings so that a
// schema drift upstream never blocks a correction.
func (s *Schema) ParseValue(path, text string) (any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	f := s.ByPath(path)
	if f == nil {
		return text, nil
	}
	switch f.Kind {
	case KindInt:
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, eris.Errorf("schema: %q is not a valid integer for %s", text, path)
		}
		return n, nil
	case KindFloat:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, eris.Errorf("schema: %q is not a valid number for %s", text, path)
		}
		return v, nil
	case KindBool:
		b, err := strconv.ParseBool(strings.ToLower(text))
		if err != nil {
			return nil, eris.Errorf("schema: %q is not a valid boolean for %s", text, path)
		}
		return b, nil
	case KindDate:
		if _, err := time.Parse("2006-01-02", text); err != nil {
			return nil, eris.Errorf("schema: %q is not a valid date (want YYYY-MM-DD) for %s", text, path)
		}
		return text, nil
	default:
		return text, nil
	}
}

//go:embed schema.yaml
var defaultSchemaYAML []byte

type schemaFile struct {
	Version float64       `yaml:"version"`
	Fields  []SchemaField `yaml:"fields"`
}

// LoadSchemaFile reads a schema definition from a YAML file.
func LoadSchemaFile(data []byte) (*Schema, error) {
	var sf schemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, eris.Wrap(err, "schema: unmarshal yaml")
	}
	if len(sf.Fields) == 0 {
		return nil, eris.New("schema: no fields defined")
	}
	return NewSchema(sf.Fields), nil
}

// DefaultSchema returns the built-in Blegdams journal page schema.
func DefaultSchema() *Schema {
	s, err := LoadSchemaFile(defaultSchemaYAML)
	if err != nil {
		// The embedded schema is fixed at build time.
		panic(err)
	}
	return s
}
