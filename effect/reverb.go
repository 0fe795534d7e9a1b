package effect

import "kunquat/device"

// Reverb is a Schroeder-style reverb with four comb filters and two
// allpass filters, adapted from the teacher's internal/effects.Reverb.
type Reverb struct {
	id       string
	roomSize float64
	feedback float64
	wet      float64
}

type combFilter struct {
	buf []float64
	pos int
	fb  float64
}

type allpassFilter struct {
	buf []float64
	pos int
	fb  float64
}

// ReverbPState holds the comb/allpass filter banks.
type ReverbPState struct {
	combs   [4]combFilter
	allpass [2]allpassFilter
}

// NewReverb returns a Reverb Device Impl.
func NewReverb(id string, roomSize, feedback, wet float64) *Reverb {
	return &Reverb{id: id, roomSize: roomSize, feedback: clamp(feedback, 0, 0.95), wet: clamp(wet, 0, 1)}
}

func (r *Reverb) ID() string { return r.id }

func (r *Reverb) CreatePState(audioRate int, bufferSize int) device.PState {
	base := int(float64(audioRate) * r.roomSize * 0.05)
	if base < 10 {
		base = 10
	}
	ps := &ReverbPState{}
	combLens := [4]int{base, base * 1117 / 1000, base * 1271 / 1000, base * 1437 / 1000}
	for i := range ps.combs {
		ps.combs[i] = combFilter{buf: make([]float64, combLens[i]), fb: r.feedback}
	}
	apLens := [2]int{base * 347 / 1000, base * 213 / 1000}
	for i := range ps.allpass {
		ps.allpass[i] = allpassFilter{buf: make([]float64, maxInt(apLens[i], 1)), fb: 0.5}
	}
	return ps
}

func (c *combFilter) process(in float64) float64 {
	out := c.buf[c.pos]
	c.buf[c.pos] = in + out*c.fb
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (a *allpassFilter) process(in float64) float64 {
	bufOut := a.buf[a.pos]
	out := -in + bufOut
	a.buf[a.pos] = in + bufOut*a.fb
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}

func (r *Reverb) RenderMixed(pstate device.PState, wbs *device.WorkBuffers, bufStart, bufStop int, tempo float64) {
	ps := pstate.(*ReverbPState)
	left, right := stereoBuffers(wbs)

	for n := bufStart; n < bufStop; n++ {
		l, rr := left.At(n), right.At(n)
		mono := (l + rr) * 0.5
		var out float64
		for i := range ps.combs {
			out += ps.combs[i].process(mono)
		}
		out *= 0.25
		for i := range ps.allpass {
			out = ps.allpass[i].process(out)
		}
		left.Set(n, l*(1-r.wet)+out*r.wet)
		right.Set(n, rr*(1-r.wet)+out*r.wet)
	}
}
