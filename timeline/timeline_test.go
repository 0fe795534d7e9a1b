package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kunquat/pattern"
	"kunquat/tstamp"
)

func twoSectionModule(loop bool) *pattern.Module {
	b := pattern.NewBuilder(1)
	p0 := b.Pattern(2)
	p1 := b.Pattern(3)
	b.Track(loop, p0, p1)
	return b.Build()
}

func TestCurrentPatternResolvesAndRejectsOutOfRange(t *testing.T) {
	mod := twoSectionModule(false)
	cur := Cursor{Track: 0, Section: 0, Pos: tstamp.Zero}
	assert.NotNil(t, CurrentPattern(mod, cur))

	assert.Nil(t, CurrentPattern(mod, Cursor{Track: 5, Section: 0}))
	assert.Nil(t, CurrentPattern(mod, Cursor{Track: 0, Section: 5}))
}

func TestAtEndReflectsPatternLength(t *testing.T) {
	mod := twoSectionModule(false)
	cur := Cursor{Track: 0, Section: 0, Pos: tstamp.T{Beats: 1}}
	assert.False(t, AtEnd(mod, cur))
	cur.Pos = tstamp.T{Beats: 2}
	assert.True(t, AtEnd(mod, cur))
}

func TestAdvanceMovesToNextSectionThenStops(t *testing.T) {
	mod := twoSectionModule(false)
	cur := Cursor{Track: 0, Section: 0, Pos: tstamp.T{Beats: 2}}

	next, stop := Advance(mod, cur)
	assert.False(t, stop)
	assert.Equal(t, 1, next.Section)
	assert.True(t, next.Pos.IsZero())

	_, stop = Advance(mod, next)
	assert.True(t, stop)
}

func TestAdvanceLoopsWhenTrackIsInfinite(t *testing.T) {
	mod := twoSectionModule(true)
	cur := Cursor{Track: 0, Section: 1, Pos: tstamp.T{Beats: 3}}

	next, stop := Advance(mod, cur)
	assert.False(t, stop)
	assert.Equal(t, 0, next.Section)
}

func TestJumpClampsOutOfRangeTargets(t *testing.T) {
	mod := twoSectionModule(false)
	row := tstamp.T{Beats: 1}

	cur := Jump(mod, 0, 99, row)
	assert.Equal(t, 1, cur.Section) // clamped to last section

	cur = Jump(mod, 7, 0, row)
	assert.Equal(t, 0, cur.Track) // out-of-range track clamped to 0
}
