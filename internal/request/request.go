// Package request binds raw decoded JSON to a field.Schema.
//
// An Object is built once per payload and validated during construction.
// Every failing field contributes an error; construction never stops at the
// first one. Once built, an Object is read-only.
package request

import (
	"fmt"
	"time"

	"github.com/otus/scoring-api/internal/field"
)

// Rule is a shape-level check run after every field has been processed.
// It sees only the values that parsed successfully.
type Rule func(o *Object) error

// Option configures Object construction.
type Option func(*options)

type options struct {
	today time.Time
}

// WithToday sets the reference date used by BirthDay fields.
func WithToday(t time.Time) Option {
	return func(o *options) { o.today = t }
}

// Object is a schema-bound view of raw input data.
type Object struct {
	schema *field.Schema
	values map[string]any
	errors []string
}

// New validates data against schema and runs rules in order. data must be
// a map[string]any; anything else yields a single error and no field is
// processed.
func New(schema *field.Schema, data any, rules []Rule, opts ...Option) *Object {
	cfg := options{today: time.Now()}
	for _, opt := range opts {
		opt(&cfg)
	}

	o := &Object{
		schema: schema,
		values: make(map[string]any, schema.Len()),
	}

	raw, ok := data.(map[string]any)
	if !ok {
		o.errors = append(o.errors, "data must be a mapping")
		return o
	}

	for _, f := range schema.Fields() {
		value, present := raw[f.Name]
		if f.Required && !present {
			o.errors = append(o.errors, fmt.Sprintf("field %s is required", f.Name))
			continue
		}

		parsed, err := f.Parse(value, cfg.today)
		if err != nil {
			o.errors = append(o.errors, err.Error())
			o.values[f.Name] = nil
			continue
		}
		o.values[f.Name] = parsed
	}

	for _, rule := range rules {
		if err := rule(o); err != nil {
			o.errors = append(o.errors, err.Error())
		}
	}

	return o
}

// Errors returns every validation error in the order it was found. Field
// errors come before shape-level errors.
func (o *Object) Errors() []string {
	if len(o.errors) == 0 {
		return nil
	}
	out := make([]string, len(o.errors))
	copy(out, o.errors)
	return out
}

func (o *Object) Valid() bool { return len(o.errors) == 0 }

// AsDict returns every schema field's value, null for fields that were
// absent. It panics on an invalid Object.
func (o *Object) AsDict() map[string]any {
	o.mustBeValid("AsDict")
	out := make(map[string]any, o.schema.Len())
	for _, name := range o.schema.Names() {
		out[name] = o.values[name]
	}
	return out
}

// Value returns the parsed value of a schema field. It panics on an
// invalid Object or an unknown name.
func (o *Object) Value(name string) any {
	o.mustBeValid("Value(" + name + ")")
	if _, ok := o.schema.Lookup(name); !ok {
		panic(fmt.Sprintf("request: %s has no field %q", o.schema.Name(), name))
	}
	return o.values[name]
}

// IsSet reports whether a field holds a non-null value. Rules use it, so
// it works on objects that are still collecting errors: a field whose
// value failed validation is stored as null and counts as unset.
func (o *Object) IsSet(name string) bool {
	return o.values[name] != nil
}

// InitializedFields lists, in schema order, the fields holding a non-null
// value. It panics on an invalid Object.
func (o *Object) InitializedFields() []string {
	o.mustBeValid("InitializedFields")
	var names []string
	for _, name := range o.schema.Names() {
		if o.values[name] != nil {
			names = append(names, name)
		}
	}
	return names
}

// mustBeValid guards derived accessors. Reading them from an invalid
// object is a dispatcher bug, never a client error.
func (o *Object) mustBeValid(accessor string) {
	if len(o.errors) != 0 {
		panic(fmt.Sprintf("request: %s called on invalid %s", accessor, o.schema.Name()))
	}
}
