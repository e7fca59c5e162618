package field

import (
	"fmt"
	"slices"
)

// Schema is an ordered set of Fields, unique by name, describing one
// request shape. Build it once at package initialisation and share it.
type Schema struct {
	name   string
	fields []Field
	index  map[string]int
}

// NewSchema assembles fields in declaration order. It panics on an empty
// or duplicated field name: both are programming errors in a shape
// declaration, not something a caller can recover from.
func NewSchema(name string, fields ...Field) *Schema {
	s := &Schema{
		name:   name,
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		if f.Name == "" {
			panic(fmt.Sprintf("field: schema %s: field of kind %s has no name", name, f.Kind))
		}
		if _, dup := s.index[f.Name]; dup {
			panic(fmt.Sprintf("field: schema %s: duplicate field %q", name, f.Name))
		}
		s.index[f.Name] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s
}

func (s *Schema) Name() string { return s.name }

// Fields returns a copy of the fields in declaration order.
func (s *Schema) Fields() []Field { return slices.Clone(s.fields) }

// Names returns the field names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

func (s *Schema) Lookup(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

func (s *Schema) Len() int { return len(s.fields) }
