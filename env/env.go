// Package env implements the module-level Environment (declared variables)
// and the per-playback Env_state shadow snapshot that CONTROL events
// mutate, grounded on the reference engine's Env_var.
package env

import "kunquat/tstamp"

// Kind identifies an Env_var's value type.
type Kind int

const (
	Bool Kind = iota
	Int
	Float
	Tstamp
)

// Value is a tagged Env_var payload: exactly one field is meaningful,
// selected by Kind.
type Value struct {
	Kind   Kind
	Bool   bool
	Int    int64
	Float  float64
	Tstamp tstamp.T
}

// Var is one declared environment variable: its name, declared Kind, and
// initial value (the Module-owned, read-only default).
type Var struct {
	Name    string
	Kind    Kind
	Initial Value
}

// Environment is the module's read-only name -> Var declaration table.
type Environment struct {
	vars map[string]Var
}

// NewEnvironment builds an Environment from a set of declared variables.
func NewEnvironment(vars ...Var) *Environment {
	e := &Environment{vars: make(map[string]Var, len(vars))}
	for _, v := range vars {
		e.vars[v.Name] = v
	}
	return e
}

// Declared reports whether name is a declared variable, and its Var.
func (e *Environment) Declared(name string) (Var, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// State is the mutable, per-playback shadow of Environment: the live value
// of every declared variable, reset to the Environment's initial values at
// playback start.
type State struct {
	env    *Environment
	values map[string]Value
}

// NewState builds a State shadowing env at its declared initial values.
func NewState(e *Environment) *State {
	s := &State{env: e, values: make(map[string]Value, len(e.vars))}
	s.Reset()
	return s
}

// Reset restores every variable to its declared initial value.
func (s *State) Reset() {
	for name, v := range s.env.vars {
		s.values[name] = v.Initial
	}
}

// Get returns the live value of name. ok is false for an undeclared name.
func (s *State) Get(name string) (Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Set writes a new value for name, matching the declared Kind. It is a
// no-op (and reports false) for an undeclared name or a Kind mismatch,
// consistent with §4.3's "unknown names silently no-op" / "malformed arg
// rejected" policy.
func (s *State) Set(name string, v Value) bool {
	decl, ok := s.env.vars[name]
	if !ok || decl.Kind != v.Kind {
		return false
	}
	s.values[name] = v
	return true
}
