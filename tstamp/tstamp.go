// Package tstamp implements the engine's rational beat-time representation
// and its conversions to and from frame counts at a given tempo and sample
// rate.
package tstamp

// Beat is the number of Tstamp parts per beat. It is a highly composite
// constant so that common musical subdivisions (halves, thirds, quarters,
// fifths, ...) land on exact integer Rem values.
const Beat int64 = 882161280

// T is a rational beat-time offset: Beats whole beats plus Rem parts of a
// beat, where 0 <= Rem < Beat. Beats carries the sign; Rem is always
// non-negative.
type T struct {
	Beats int64
	Rem   int32
}

// Zero is the additive identity.
var Zero = T{}

// New builds a T from a beat count and a sub-beat remainder, normalizing
// rem into [0, Beat).
func New(beats int64, rem int64) T {
	return normalize(beats, rem)
}

func normalize(beats int64, rem int64) T {
	if rem >= Beat {
		beats += rem / Beat
		rem %= Beat
	} else if rem < 0 {
		// Euclidean adjustment: push rem up into [0, Beat) and borrow from beats.
		deficit := (-rem + Beat - 1) / Beat
		beats -= deficit
		rem += deficit * Beat
	}
	return T{Beats: beats, Rem: int32(rem)}
}

// Cmp returns -1, 0, or 1 as a is less than, equal to, or greater than b.
func Cmp(a, b T) int {
	if a.Beats < b.Beats {
		return -1
	}
	if a.Beats > b.Beats {
		return 1
	}
	if a.Rem < b.Rem {
		return -1
	}
	if a.Rem > b.Rem {
		return 1
	}
	return 0
}

// Add returns a + b with Rem renormalized into [0, Beat).
func Add(a, b T) T {
	return normalize(a.Beats+b.Beats, int64(a.Rem)+int64(b.Rem))
}

// Sub returns a - b with Rem renormalized into [0, Beat).
func Sub(a, b T) T {
	return normalize(a.Beats-b.Beats, int64(a.Rem)-int64(b.Rem))
}

// Min returns the smaller of a and b.
func Min(a, b T) T {
	if Cmp(a, b) <= 0 {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b T) T {
	if Cmp(a, b) >= 0 {
		return a
	}
	return b
}

// IsZero reports whether ts is the additive identity.
func (ts T) IsZero() bool {
	return ts.Beats == 0 && ts.Rem == 0
}

// Sign returns -1, 0, or 1 matching the sign of ts.
func (ts T) Sign() int {
	if ts.Beats != 0 {
		if ts.Beats < 0 {
			return -1
		}
		return 1
	}
	if ts.Rem != 0 {
		return 1
	}
	return 0
}

// ToFrames converts ts to a frame count at the given tempo (BPM) and sample
// rate. ts must represent a non-negative duration; tempo and rate must be
// positive.
func ToFrames(ts T, tempo float64, rate uint32) float64 {
	return (float64(ts.Beats) + float64(ts.Rem)/float64(Beat)) * 60 * float64(rate) / tempo
}

// FromFrames converts a frame count to a Tstamp at the given tempo and
// sample rate. tempo and rate must be positive.
func FromFrames(frames float64, tempo float64, rate uint32) T {
	val := frames * tempo / float64(rate) / 60
	beats := int64(val)
	if val < 0 && float64(beats) != val {
		beats--
	}
	rem := int64((val - float64(beats)) * float64(Beat))
	return normalize(beats, rem)
}
