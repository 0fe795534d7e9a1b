package effect

import (
	"math"

	"kunquat/device"
)

// Distortion is tanh waveshaping with pre/post gain and an optional
// one-pole lowpass, adapted from the teacher's internal/effects.Distortion.
type Distortion struct {
	id        string
	preGain   float64
	postGain  float64
	lpfCutoff float64
}

// DistortionPState holds the one-pole lowpass filter state.
type DistortionPState struct {
	alpha    float64
	lpL, lpR float64
}

// NewDistortion returns a Distortion Device Impl.
func NewDistortion(id string, preGain, postGain, lpfCutoff float64) *Distortion {
	return &Distortion{id: id, preGain: preGain, postGain: postGain, lpfCutoff: lpfCutoff}
}

func (d *Distortion) ID() string { return d.id }

func (d *Distortion) CreatePState(audioRate int, bufferSize int) device.PState {
	ps := &DistortionPState{}
	if d.lpfCutoff > 0 && d.lpfCutoff < float64(audioRate)/2 {
		rc := 1.0 / (2.0 * math.Pi * d.lpfCutoff)
		dt := 1.0 / float64(audioRate)
		ps.alpha = dt / (rc + dt)
	}
	return ps
}

func (d *Distortion) RenderMixed(pstate device.PState, wbs *device.WorkBuffers, bufStart, bufStop int, tempo float64) {
	ps := pstate.(*DistortionPState)
	left, right := stereoBuffers(wbs)

	for n := bufStart; n < bufStop; n++ {
		l := left.At(n) * d.preGain
		r := right.At(n) * d.preGain
		l = math.Tanh(l)
		r = math.Tanh(r)
		l *= d.postGain
		r *= d.postGain
		if ps.alpha > 0 {
			ps.lpL += ps.alpha * (l - ps.lpL)
			ps.lpR += ps.alpha * (r - ps.lpR)
			l, r = ps.lpL, ps.lpR
		}
		left.Set(n, l)
		right.Set(n, r)
	}
}
