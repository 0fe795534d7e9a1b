package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetRejectsUndeclaredName(t *testing.T) {
	e := NewEnvironment(Var{Name: "speed", Kind: Float, Initial: Value{Kind: Float, Float: 1.0}})
	s := NewState(e)

	ok := s.Set("unknown", Value{Kind: Float, Float: 2.0})
	assert.False(t, ok)
	v, _ := s.Get("speed")
	assert.Equal(t, 1.0, v.Float)
}

func TestSetRejectsKindMismatch(t *testing.T) {
	e := NewEnvironment(Var{Name: "speed", Kind: Float, Initial: Value{Kind: Float, Float: 1.0}})
	s := NewState(e)

	ok := s.Set("speed", Value{Kind: Int, Int: 3})
	assert.False(t, ok)
	v, _ := s.Get("speed")
	assert.Equal(t, Float, v.Kind)
	assert.Equal(t, 1.0, v.Float)
}

func TestSetAcceptsMatchingKind(t *testing.T) {
	e := NewEnvironment(Var{Name: "speed", Kind: Float, Initial: Value{Kind: Float, Float: 1.0}})
	s := NewState(e)

	ok := s.Set("speed", Value{Kind: Float, Float: 2.5})
	assert.True(t, ok)
	v, _ := s.Get("speed")
	assert.Equal(t, 2.5, v.Float)
}

func TestResetRestoresInitialValues(t *testing.T) {
	e := NewEnvironment(Var{Name: "speed", Kind: Float, Initial: Value{Kind: Float, Float: 1.0}})
	s := NewState(e)
	s.Set("speed", Value{Kind: Float, Float: 9.0})

	s.Reset()

	v, _ := s.Get("speed")
	assert.Equal(t, 1.0, v.Float)
}

func TestGetUndeclaredReportsFalse(t *testing.T) {
	e := NewEnvironment()
	s := NewState(e)
	_, ok := s.Get("missing")
	assert.False(t, ok)
}
