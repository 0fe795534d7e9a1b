// Package timeline walks a Module's Track List / Song Table: converting a
// playback cursor (track, section, pattern-relative position) forward
// across pattern and section boundaries, including is_infinite wraparound.
package timeline

import (
	"kunquat/pattern"
	"kunquat/tstamp"
)

// Cursor locates a playback position within a Module: which track, which
// section (index into that track's pattern instance list), and the
// position within that section's pattern.
type Cursor struct {
	Track   int
	Section int
	Pos     tstamp.T
}

// AtEnd reports whether pos has reached or passed the current section's
// pattern length.
func AtEnd(mod *pattern.Module, cur Cursor) bool {
	pat := CurrentPattern(mod, cur)
	if pat == nil {
		return true
	}
	return tstamp.Cmp(cur.Pos, pat.Length) >= 0
}

// CurrentPattern resolves cur to its Pattern, or nil if the cursor is out
// of range.
func CurrentPattern(mod *pattern.Module, cur Cursor) *pattern.Pattern {
	if cur.Track < 0 || cur.Track >= len(mod.Tracks) {
		return nil
	}
	tr := mod.Tracks[cur.Track]
	if cur.Section < 0 || cur.Section >= len(tr.Sections) {
		return nil
	}
	ref := tr.Sections[cur.Section]
	if ref.Pattern < 0 || ref.Pattern >= len(mod.Patterns) {
		return nil
	}
	return mod.Patterns[ref.Pattern]
}

// Advance moves cur past the end of its current pattern to the next
// section. It returns the updated cursor and whether playback should stop
// (song end reached and the track is not infinite).
func Advance(mod *pattern.Module, cur Cursor) (Cursor, bool) {
	if cur.Track < 0 || cur.Track >= len(mod.Tracks) {
		return cur, true
	}
	tr := mod.Tracks[cur.Track]
	next := cur.Section + 1
	if next >= len(tr.Sections) {
		if tr.Loop && len(tr.Sections) > 0 {
			return Cursor{Track: cur.Track, Section: 0, Pos: tstamp.Zero}, false
		}
		return cur, true
	}
	return Cursor{Track: cur.Track, Section: next, Pos: tstamp.Zero}, false
}

// Jump teleports the cursor to (track, section, row), per §4.2's jump
// handling. Out-of-range targets are clamped to the track's bounds.
func Jump(mod *pattern.Module, track, section int, row tstamp.T) Cursor {
	if track < 0 || track >= len(mod.Tracks) {
		track = 0
	}
	if track < len(mod.Tracks) {
		tr := mod.Tracks[track]
		if section < 0 {
			section = 0
		}
		if len(tr.Sections) > 0 && section >= len(tr.Sections) {
			section = len(tr.Sections) - 1
		}
	}
	return Cursor{Track: track, Section: section, Pos: row}
}
