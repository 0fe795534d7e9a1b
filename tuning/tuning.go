// Package tuning implements the immutable Tuning Table and the retunable,
// per-playback Tuning State, including the retune algorithm (§4.6).
package tuning

// NotesMax bounds the number of notes a Tuning Table may declare (spec
// TUNING_TABLE_NOTES_MAX).
const NotesMax = 128

// Table is an immutable set of note-to-cents offsets plus octave width.
// Built once at module-load time and shared by every playback that uses it.
type Table struct {
	Offsets     []float64 // cents offset of note i from the table's own zero
	OctaveWidth float64   // cents per octave, e.g. 1200
}

// NewTable builds a Table. offsets must be sorted ascending within one
// octave; len(offsets) must not exceed NotesMax.
func NewTable(offsets []float64, octaveWidth float64) *Table {
	if len(offsets) > NotesMax {
		offsets = offsets[:NotesMax]
	}
	cp := make([]float64, len(offsets))
	copy(cp, offsets)
	return &Table{Offsets: cp, OctaveWidth: octaveWidth}
}

// NoteCount returns the table's note count.
func (t *Table) NoteCount() int { return len(t.Offsets) }

// PitchOffset returns the table's own (untuned) cents offset for note i,
// wrapping octaves via OctaveWidth for out-of-range indices.
func (t *Table) PitchOffset(i int) float64 {
	n := len(t.Offsets)
	if n == 0 {
		return 0
	}
	octave := 0
	for i < 0 {
		i += n
		octave--
	}
	for i >= n {
		i -= n
		octave++
	}
	return t.Offsets[i] + float64(octave)*t.OctaveWidth
}

// State is the live, retunable view of a Table for one playback: a drifted
// copy of the table's offsets, the active reference note, a global cents
// offset, and the estimated drift from the table's own tuning.
type State struct {
	table        *Table
	offsets      []float64 // live (possibly retuned) per-note cents offsets
	refNote      int
	globalOffset float64
	drift        float64
}

// NewState builds a State bound to table, starting untuned (offsets equal
// to the table's own).
func NewState(table *Table) *State {
	s := &State{table: table, offsets: make([]float64, table.NoteCount())}
	for i := range s.offsets {
		s.offsets[i] = table.Offsets[i]
	}
	return s
}

// RefNote returns the currently active reference note index.
func (s *State) RefNote() int { return s.refNote }

// Drift returns the estimated drift of the reference note from the table's
// own tuning.
func (s *State) Drift() float64 { return s.drift }

// SetGlobalOffset sets the cents offset added on top of every retuned
// pitch lookup.
func (s *State) SetGlobalOffset(cents float64) { s.globalOffset = cents }

// interval returns the live interval (cents distance) from note i to note
// i+1, wrapping through OctaveWidth at the table boundary.
func (s *State) interval(i int) float64 {
	n := len(s.offsets)
	if n == 0 {
		return 0
	}
	if i == n-1 {
		return s.offsets[0] + s.table.OctaveWidth - s.offsets[i]
	}
	return s.offsets[i+1] - s.offsets[i]
}

// Retune rotates the note-offset table so that newRef becomes the active
// reference note while the note at fixedIndex stays audibly unchanged,
// per §4.6's four-step algorithm:
//  1. shift = (note_count + new_ref_index - ref_note) % note_count
//  2. read current intervals between consecutive live offsets
//  3. propagate new offsets outward from fixed_index using those intervals
//     against the shifted indices
//  4. drift = offsets[ref_note] - table.pitch_offset(ref_note)
func (s *State) Retune(newRef, fixedIndex int) {
	n := len(s.offsets)
	if n == 0 {
		return
	}
	shift := ((newRef-s.refNote)%n + n) % n

	intervals := make([]float64, n)
	for i := 0; i < n; i++ {
		intervals[i] = s.interval(i)
	}

	newOffsets := make([]float64, n)
	newOffsets[fixedIndex] = s.offsets[fixedIndex]

	// Propagate forward from fixed_index using the shifted interval table.
	for i := fixedIndex + 1; i < n; i++ {
		si := (i - 1 + shift) % n
		newOffsets[i] = newOffsets[i-1] + intervals[si]
	}
	// Propagate backward from fixed_index. The reference engine's source
	// reads this loop as `++i`, which can never reach its own termination
	// condition going the intended direction; implemented here with `--i`,
	// the only direction that actually propagates outward.
	for i := fixedIndex - 1; i >= 0; i-- {
		si := (i + shift) % n
		newOffsets[i] = newOffsets[i+1] - intervals[si]
	}

	s.offsets = newOffsets
	s.refNote = newRef
	s.drift = s.offsets[s.refNote] - s.table.PitchOffset(s.refNote)
}

// RetuneWithSource copies offsets from a foreign table, preserving this
// State's reference note and global offset. Fails (returns false, no
// change) if note counts differ.
func (s *State) RetuneWithSource(source *Table) bool {
	if source.NoteCount() != len(s.offsets) {
		return false
	}
	for i := range s.offsets {
		s.offsets[i] = source.Offsets[i]
	}
	s.drift = s.offsets[s.refNote] - s.table.PitchOffset(s.refNote)
	return true
}

// GetRetunedPitch snaps cents to the nearest note in the immutable table,
// then returns that note's live offset plus the global offset.
func (s *State) GetRetunedPitch(cents float64) float64 {
	n := len(s.offsets)
	if n == 0 {
		return cents + s.globalOffset
	}
	best := 0
	bestDist := -1.0
	for i := 0; i < n; i++ {
		d := s.table.PitchOffset(i) - cents
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = i
		}
	}
	return s.offsets[best%n] + s.globalOffset
}
