// Package field defines typed validation rules for the named attributes of
// an incoming request, and the Schema that groups them into a request shape.
//
// A Field is a plain value: once a Schema is built its Fields are never
// mutated, so one Schema can be shared by every request handled
// concurrently. Per-request values live on request.Object, never here.
package field

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/otus/scoring-api/internal/types"
)

// Kind selects the validation predicate applied to a non-null value.
type Kind int

const (
	Char Kind = iota
	Arguments
	Email
	Phone
	Date
	BirthDay
	Gender
	ClientIDs
)

func (k Kind) String() string {
	switch k {
	case Char:
		return "char"
	case Arguments:
		return "arguments"
	case Email:
		return "email"
	case Phone:
		return "phone"
	case Date:
		return "date"
	case BirthDay:
		return "birthday"
	case Gender:
		return "gender"
	case ClientIDs:
		return "client_ids"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

const (
	// DateLayout accepts one or two digit day and month, four digit year:
	// "05.05.2020" and "5.5.2020" are both valid.
	DateLayout = "2.1.2006"

	// MaxAge is the oldest accepted birthday, in calendar years.
	MaxAge = 70

	phoneTag  = "len=11,number,startswith=7"
	emailTag  = "contains=@"
	genderTag = "oneof=0 1 2"
)

// validate is safe for concurrent use and caches parsed tags, so one
// instance serves every Field.
var validate = validator.New()

// Error is a single failed check on a named field.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("field %s %s", e.Field, e.Message)
}

// Field is a validation rule bound to one attribute name.
type Field struct {
	Name     string
	Kind     Kind
	Required bool
	Nullable bool
}

// New returns a Field. Required means the key must be present in the raw
// payload; Nullable means an explicit null (or an absent optional key) is
// accepted.
func New(name string, kind Kind, required, nullable bool) Field {
	return Field{Name: name, Kind: kind, Required: required, Nullable: nullable}
}

// Validate reports whether value satisfies the field, using the current
// date as the reference for BirthDay.
func (f Field) Validate(value any) error {
	_, err := f.Parse(value, time.Now())
	return err
}

// Parse validates value and returns its coerced form:
//
//	Char, Email   string
//	Arguments     map[string]any
//	Phone         string of 11 digits
//	Date/BirthDay time.Time
//	Gender        types.Gender
//	ClientIDs     []int64
//
// A null value parses to nil when the field is nullable. today is the
// reference date for the BirthDay age limit.
//
// Checks run in order and stop at the first failure: a value of the wrong
// base type cannot be checked for format or range.
func (f Field) Parse(value any, today time.Time) (any, error) {
	if value == nil {
		if f.Nullable {
			return nil, nil
		}
		return nil, f.errorf("can't be null")
	}

	switch f.Kind {
	case Char:
		return f.parseChar(value)
	case Arguments:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, f.errorf("must be a mapping")
		}
		return m, nil
	case Email:
		return f.parseEmail(value)
	case Phone:
		return f.parsePhone(value)
	case Date:
		return f.parseDate(value)
	case BirthDay:
		return f.parseBirthDay(value, today)
	case Gender:
		return f.parseGender(value)
	case ClientIDs:
		return f.parseClientIDs(value)
	default:
		return nil, f.errorf("has unsupported kind %s", f.Kind)
	}
}

func (f Field) errorf(format string, args ...any) *Error {
	return &Error{Field: f.Name, Message: fmt.Sprintf(format, args...)}
}

func (f Field) parseChar(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", f.errorf("must be a string")
	}
	return s, nil
}

func (f Field) parseEmail(value any) (string, error) {
	s, err := f.parseChar(value)
	if err != nil {
		return "", err
	}
	if validate.Var(s, emailTag) != nil {
		return "", f.errorf("must be a valid email address")
	}
	return s, nil
}

func (f Field) parsePhone(value any) (string, error) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	default:
		n, ok := toInt(value)
		if !ok {
			return "", f.phoneError()
		}
		s = strconv.FormatInt(n, 10)
	}

	if validate.Var(s, phoneTag) != nil {
		return "", f.phoneError()
	}
	return s, nil
}

func (f Field) phoneError() *Error {
	return f.errorf("must be an integer or a string of 11 digits starting with 7")
}

func (f Field) parseDate(value any) (time.Time, error) {
	s, err := f.parseChar(value)
	if err != nil {
		return time.Time{}, err
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, f.errorf("must be a string in format DD.MM.YYYY")
	}
	return d, nil
}

func (f Field) parseBirthDay(value any, today time.Time) (time.Time, error) {
	d, err := f.parseDate(value)
	if err != nil {
		return time.Time{}, err
	}
	if today.Year()-d.Year() > MaxAge {
		return time.Time{}, f.errorf("must not be more than %d years ago", MaxAge)
	}
	return d, nil
}

func (f Field) parseGender(value any) (types.Gender, error) {
	n, ok := toInt(value)
	if !ok || validate.Var(n, genderTag) != nil {
		return 0, f.errorf("must be an integer, one of 0, 1, 2")
	}
	return types.Gender(n), nil
}

func (f Field) parseClientIDs(value any) ([]int64, error) {
	invalid := f.errorf("must be a non-empty list of non-negative integers")

	var items []any
	switch v := value.(type) {
	case []any:
		items = v
	case []int64:
		items = make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
	case []int:
		items = make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
	default:
		return nil, invalid
	}
	if len(items) == 0 {
		return nil, invalid
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		id, ok := toInt(item)
		if !ok || id < 0 {
			return nil, invalid
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// toInt accepts Go integer types and integral json.Number values. Floats
// and booleans are rejected even when they hold a whole number.
func toInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return uintToInt(uint64(v))
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return uintToInt(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func uintToInt(v uint64) (int64, bool) {
	if v > math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}
