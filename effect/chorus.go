package effect

import (
	"math"

	"kunquat/device"
)

// Chorus is a modulated-delay chorus/flanger, adapted from the teacher's
// internal/effects.Chorus.
type Chorus struct {
	id       string
	delayMs  float64
	depthMs  float64
	rateHz   float64
	feedback float64
	wet      float64
}

// ChorusPState holds the modulated delay line and LFO phase.
type ChorusPState struct {
	bufL, bufR []float64
	pos        int
	size       int
	depth      float64
	rate       float64
	phase      float64
}

// NewChorus returns a Chorus Device Impl.
func NewChorus(id string, delayMs, feedback, depthMs, rateHz, wet float64) *Chorus {
	return &Chorus{
		id: id, delayMs: delayMs, depthMs: depthMs, rateHz: rateHz,
		feedback: clamp(feedback, 0, 0.9), wet: clamp(wet, 0, 1),
	}
}

func (c *Chorus) ID() string { return c.id }

func (c *Chorus) CreatePState(audioRate int, bufferSize int) device.PState {
	baseSamples := int(c.delayMs * float64(audioRate) / 1000.0)
	depthSamples := c.depthMs * float64(audioRate) / 1000.0
	size := baseSamples + int(depthSamples) + 2
	if size < 4 {
		size = 4
	}
	return &ChorusPState{
		bufL:  make([]float64, size),
		bufR:  make([]float64, size),
		size:  size,
		depth: depthSamples,
		rate:  2.0 * math.Pi * c.rateHz / float64(audioRate),
	}
}

func (c *Chorus) RenderMixed(pstate device.PState, wbs *device.WorkBuffers, bufStart, bufStop int, tempo float64) {
	ps := pstate.(*ChorusPState)
	left, right := stereoBuffers(wbs)

	for n := bufStart; n < bufStop; n++ {
		l, r := left.At(n), right.At(n)

		mod := math.Sin(ps.phase) * ps.depth
		ps.phase += ps.rate
		if ps.phase > 2*math.Pi {
			ps.phase -= 2 * math.Pi
		}

		ps.bufL[ps.pos] = l
		ps.bufR[ps.pos] = r

		delay := float64(ps.size/2) + mod
		readPos := float64(ps.pos) - delay
		for readPos < 0 {
			readPos += float64(ps.size)
		}
		idx := int(readPos)
		frac := readPos - float64(idx)
		idx2 := idx + 1
		if idx2 >= ps.size {
			idx2 = 0
		}
		delL := ps.bufL[idx]*(1-frac) + ps.bufL[idx2]*frac
		delR := ps.bufR[idx]*(1-frac) + ps.bufR[idx2]*frac

		ps.bufL[ps.pos] += delL * c.feedback
		ps.bufR[ps.pos] += delR * c.feedback

		ps.pos++
		if ps.pos >= ps.size {
			ps.pos = 0
		}

		left.Set(n, l*(1-c.wet)+delL*c.wet)
		right.Set(n, r*(1-c.wet)+delR*c.wet)
	}
}
