// Package pattern implements the immutable Trigger/Pattern/Module data
// model and a Go-code Builder that constructs a Module directly, standing
// in for the out-of-scope textual event/module format parser.
//
// The container shapes here are adapted from the teacher's internal/mml
// Score/Track/Event types, generalized to the full event taxonomy and to
// Tstamp-based scheduling instead of integer ticks.
package pattern

import (
	"kunquat/event"
	"kunquat/tstamp"
)

// Trigger is a scheduled event inside a Pattern column: (Tstamp, ch_index,
// Event). Immutable after construction.
type Trigger struct {
	Pos     tstamp.T
	Channel int
	Event   event.Event
}

// Column is one channel's ordered list of Triggers within a Pattern.
// Triggers are kept sorted by Pos, then original insertion (row) order.
type Column struct {
	Triggers []Trigger
}

// Pattern is a timed grid of Triggers across up to channel.Max columns.
type Pattern struct {
	Length   tstamp.T // pattern length in beats
	Columns  []Column
}

// NewPattern allocates a Pattern of the given channel count and length.
func NewPattern(channels int, length tstamp.T) *Pattern {
	return &Pattern{Length: length, Columns: make([]Column, channels)}
}

// PatInstRef identifies one instance of a pattern within the Track List
// (a pattern can be instanced multiple times across a song).
type PatInstRef struct {
	Pattern  int
	Instance int
}

// Track is an ordered list of pattern instances played in sequence, i.e.
// one "song" of the Song Table.
type Track struct {
	Sections []PatInstRef
	Loop     bool // is_infinite wraps to the start when true
}

// Module is the complete, read-only composition: patterns, the track list
// (Song Table), and per-pattern channel count. Everything else the engine
// needs is threaded in separately, per §6's "Module boundaries" split:
// Environment and Tuning State through Handle.LoadModule, Device Impls
// through the Handle's device graph.
type Module struct {
	Patterns []*Pattern
	Tracks   []*Track
	Channels int
}

// NewModule allocates an empty Module with the given channel count.
func NewModule(channels int) *Module {
	return &Module{Channels: channels}
}

// AddPattern appends p and returns its index.
func (m *Module) AddPattern(p *Pattern) int {
	m.Patterns = append(m.Patterns, p)
	return len(m.Patterns) - 1
}

// AddTrack appends t and returns its index.
func (m *Module) AddTrack(t *Track) int {
	m.Tracks = append(m.Tracks, t)
	return len(m.Tracks) - 1
}
