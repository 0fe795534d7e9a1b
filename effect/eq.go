package effect

import (
	"math"

	"kunquat/device"
)

// EQ3Band is a 3-band (low/mid/high) shelving equalizer built from two
// one-pole filters, adapted from the teacher's internal/effects.EQ3Band.
type EQ3Band struct {
	id                           string
	lowGain, midGain, highGain   float64
	lowFreq, highFreq            float64
}

// EQ3PState holds the low/high one-pole filter coefficients and state.
type EQ3PState struct {
	lpAlpha, hpAlpha float64
	lpL, lpR         float64
	hpL, hpR         float64
}

// NewEQ3Band returns an EQ3Band Device Impl.
func NewEQ3Band(id string, lowGain, midGain, highGain, lowFreq, highFreq float64) *EQ3Band {
	return &EQ3Band{id: id, lowGain: lowGain, midGain: midGain, highGain: highGain, lowFreq: lowFreq, highFreq: highFreq}
}

func (eq *EQ3Band) ID() string { return eq.id }

func (eq *EQ3Band) CreatePState(audioRate int, bufferSize int) device.PState {
	lpRC := 1.0 / (2.0 * math.Pi * eq.lowFreq)
	hpRC := 1.0 / (2.0 * math.Pi * eq.highFreq)
	dt := 1.0 / float64(audioRate)
	return &EQ3PState{lpAlpha: dt / (lpRC + dt), hpAlpha: dt / (hpRC + dt)}
}

func (eq *EQ3Band) RenderMixed(pstate device.PState, wbs *device.WorkBuffers, bufStart, bufStop int, tempo float64) {
	ps := pstate.(*EQ3PState)
	left, right := stereoBuffers(wbs)

	for n := bufStart; n < bufStop; n++ {
		l, r := left.At(n), right.At(n)

		ps.lpL += ps.lpAlpha * (l - ps.lpL)
		ps.lpR += ps.lpAlpha * (r - ps.lpR)
		lowL, lowR := ps.lpL, ps.lpR

		ps.hpL += ps.hpAlpha * (l - ps.hpL)
		ps.hpR += ps.hpAlpha * (r - ps.hpR)
		highL := l - ps.hpL
		highR := r - ps.hpR

		midL := l - lowL - highL
		midR := r - lowR - highR

		left.Set(n, lowL*eq.lowGain+midL*eq.midGain+highL*eq.highGain)
		right.Set(n, lowR*eq.lowGain+midR*eq.midGain+highR*eq.highGain)
	}
}
