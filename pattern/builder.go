package pattern

import (
	"sort"

	"kunquat/event"
	"kunquat/tstamp"
)

// Builder constructs a Module from Go code. It is the supported
// construction path for tests and embedders, replacing the textual parser
// that spec.md explicitly excludes from core scope.
type Builder struct {
	module *Module
	pats   []*patternBuilder
}

type patternBuilder struct {
	channels int
	length   tstamp.T
	triggers []Trigger
}

// NewBuilder starts a Module builder for the given channel count.
func NewBuilder(channels int) *Builder {
	return &Builder{module: NewModule(channels)}
}

// Pattern starts a new pattern of the given beat length and returns its
// index for use in Track.
func (b *Builder) Pattern(lengthBeats int64) int {
	b.pats = append(b.pats, &patternBuilder{
		channels: b.module.Channels,
		length:   tstamp.T{Beats: lengthBeats},
	})
	return len(b.pats) - 1
}

// Trigger schedules ev at pos on ch within the pattern whose index
// (as returned by Pattern) is patIdx.
func (b *Builder) Trigger(patIdx int, pos tstamp.T, ch int, ev event.Event) {
	p := b.pats[patIdx]
	p.triggers = append(p.triggers, Trigger{Pos: pos, Channel: ch, Event: ev})
}

// Track appends a track that plays the given pattern indices in order.
// loop marks the track as is_infinite (wraps to the first section on end).
func (b *Builder) Track(loop bool, patternIndices ...int) int {
	t := &Track{Loop: loop}
	for i, p := range patternIndices {
		t.Sections = append(t.Sections, PatInstRef{Pattern: p, Instance: i})
	}
	return b.module.AddTrack(t)
}

// Build finalizes the Module: triggers are sorted per column by (Pos,
// insertion order) as §5's ordering guarantee requires, and pattern
// builders are materialized into the Module's immutable Patterns.
func (b *Builder) Build() *Module {
	for _, pb := range b.pats {
		pat := NewPattern(pb.channels, pb.length)
		for _, tr := range pb.triggers {
			pat.Columns[tr.Channel].Triggers = append(pat.Columns[tr.Channel].Triggers, tr)
		}
		for ch := range pat.Columns {
			col := pat.Columns[ch].Triggers
			sort.SliceStable(col, func(i, j int) bool {
				return tstamp.Cmp(col[i].Pos, col[j].Pos) < 0
			})
		}
		b.module.AddPattern(pat)
	}
	return b.module
}
