package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSchema_KeepsDeclarationOrder(t *testing.T) {
	s := NewSchema("Shape",
		New("b", Char, false, true),
		New("a", Date, true, false),
		New("c", Gender, false, true),
	)

	assert.Equal(t, "Shape", s.Name())
	assert.Equal(t, []string{"b", "a", "c"}, s.Names())
	assert.Equal(t, 3, s.Len())

	f, ok := s.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, Date, f.Kind)
	assert.True(t, f.Required)

	_, ok = s.Lookup("missing")
	assert.False(t, ok)
}

func TestNewSchema_FieldsIsACopy(t *testing.T) {
	s := NewSchema("Shape", New("a", Char, false, true))
	fields := s.Fields()
	fields[0].Name = "changed"

	assert.Equal(t, []string{"a"}, s.Names())
}

func TestNewSchema_PanicsOnBadNames(t *testing.T) {
	assert.Panics(t, func() {
		NewSchema("Shape", New("a", Char, false, true), New("a", Email, false, true))
	})
	assert.Panics(t, func() {
		NewSchema("Shape", New("", Char, false, true))
	})
}
