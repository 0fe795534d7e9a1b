package effect

import "kunquat/device"

// Delay is a stereo delay with feedback and cross-channel mixing, adapted
// from the teacher's internal/effects.Delay.
type Delay struct {
	id string

	sampleRate int
	delayMs    float64
	feedback   float64
	cross      float64
	wet        float64
}

// DelayPState is the per-device runtime buffer state.
type DelayPState struct {
	bufL, bufR []float64
	pos        int
}

// NewDelay returns a Delay Device Impl. feedback/cross/wet are clamped to
// their valid ranges at construction, matching the teacher.
func NewDelay(id string, delayMs, feedback, cross, wet float64) *Delay {
	return &Delay{
		id:       id,
		delayMs:  delayMs,
		feedback: clamp(feedback, 0, 0.95),
		cross:    clamp(cross, 0, 1),
		wet:      clamp(wet, 0, 1),
	}
}

func (d *Delay) ID() string { return d.id }

func (d *Delay) CreatePState(audioRate int, bufferSize int) device.PState {
	samples := int(d.delayMs * float64(audioRate) / 1000.0)
	if samples < 1 {
		samples = 1
	}
	return &DelayPState{bufL: make([]float64, samples), bufR: make([]float64, samples)}
}

func (d *Delay) RenderMixed(pstate device.PState, wbs *device.WorkBuffers, bufStart, bufStop int, tempo float64) {
	ps := pstate.(*DelayPState)
	left, right := stereoBuffers(wbs)

	for n := bufStart; n < bufStop; n++ {
		l, r := left.At(n), right.At(n)
		delL := ps.bufL[ps.pos]
		delR := ps.bufR[ps.pos]
		fbL := delL*d.feedback*(1-d.cross) + delR*d.feedback*d.cross
		fbR := delR*d.feedback*(1-d.cross) + delL*d.feedback*d.cross
		ps.bufL[ps.pos] = l + fbL
		ps.bufR[ps.pos] = r + fbR
		ps.pos++
		if ps.pos >= len(ps.bufL) {
			ps.pos = 0
		}
		left.Set(n, l*(1-d.wet)+delL*d.wet)
		right.Set(n, r*(1-d.wet)+delR*d.wet)
	}
}
