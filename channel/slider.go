package channel

// Slider is the generic linear interpolation primitive driving every
// channel slide (force, pitch, panning, tremolo, vibrato, autowah) and, in
// package master, the tempo and volume slides — same shape throughout the
// engine per §4.3.
type Slider struct {
	Target      float64
	Current     float64
	SliceUpdate float64
	FramesLeft  int64
	Direction   int // -1, 0, or +1
}

// SetTarget (re)targets the slider to reach target over the given number of
// frames, recomputing SliceUpdate and Direction. A non-positive frame count
// snaps Current to Target immediately.
func (s *Slider) SetTarget(target float64, frames int64) {
	s.Target = target
	delta := target - s.Current
	if frames <= 0 {
		s.Current = target
		s.FramesLeft = 0
		s.Direction = 0
		s.SliceUpdate = 0
		return
	}
	s.FramesLeft = frames
	s.SliceUpdate = delta / float64(frames)
	switch {
	case delta > 0:
		s.Direction = 1
	case delta < 0:
		s.Direction = -1
	default:
		s.Direction = 0
	}
}

// Step advances the slider by n frames' worth of updates, clamping to
// Target when Direction crosses zero (i.e. Current has passed Target).
func (s *Slider) Step(n int64) {
	if s.Direction == 0 || s.FramesLeft == 0 {
		return
	}
	if n > s.FramesLeft {
		n = s.FramesLeft
	}
	s.Current += s.SliceUpdate * float64(n)
	s.FramesLeft -= n
	crossed := (s.Direction > 0 && s.Current >= s.Target) ||
		(s.Direction < 0 && s.Current <= s.Target)
	if crossed || s.FramesLeft == 0 {
		s.Current = s.Target
		s.Direction = 0
		s.FramesLeft = 0
		s.SliceUpdate = 0
	}
}

// Done reports whether the slide has completed.
func (s *Slider) Done() bool { return s.Direction == 0 }
