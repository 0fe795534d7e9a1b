package effect

import (
	"math"

	"kunquat/device"
)

// Compressor is an envelope-follower dynamics compressor, adapted from the
// teacher's internal/effects.Compressor.
type Compressor struct {
	id                              string
	thresholdDB, ratio              float64
	attackMs, releaseMs, makeupDB   float64
}

// CompressorPState holds the threshold/attack/release coefficients
// (derived at create_pstate time from the configured sample rate) plus the
// stereo envelope followers.
type CompressorPState struct {
	threshold, ratio   float64
	attack, release    float64
	makeup             float64
	envL, envR         float64
}

// NewCompressor returns a Compressor Device Impl.
func NewCompressor(id string, thresholdDB, ratio, attackMs, releaseMs, makeupDB float64) *Compressor {
	return &Compressor{id: id, thresholdDB: thresholdDB, ratio: ratio, attackMs: attackMs, releaseMs: releaseMs, makeupDB: makeupDB}
}

func (c *Compressor) ID() string { return c.id }

func (c *Compressor) CreatePState(audioRate int, bufferSize int) device.PState {
	sr := float64(audioRate)
	return &CompressorPState{
		threshold: math.Pow(10, c.thresholdDB/20),
		ratio:     c.ratio,
		attack:    1.0 - math.Exp(-1.0/(c.attackMs*sr/1000.0)),
		release:   1.0 - math.Exp(-1.0/(c.releaseMs*sr/1000.0)),
		makeup:    math.Pow(10, c.makeupDB/20),
	}
}

func (c *Compressor) RenderMixed(pstate device.PState, wbs *device.WorkBuffers, bufStart, bufStop int, tempo float64) {
	ps := pstate.(*CompressorPState)
	left, right := stereoBuffers(wbs)

	for n := bufStart; n < bufStop; n++ {
		l, r := left.At(n), right.At(n)
		absL, absR := math.Abs(l), math.Abs(r)

		if absL > ps.envL {
			ps.envL += ps.attack * (absL - ps.envL)
		} else {
			ps.envL += ps.release * (absL - ps.envL)
		}
		if absR > ps.envR {
			ps.envR += ps.attack * (absR - ps.envR)
		} else {
			ps.envR += ps.release * (absR - ps.envR)
		}

		gainL := ps.computeGain(ps.envL)
		gainR := ps.computeGain(ps.envR)
		left.Set(n, l*gainL*ps.makeup)
		right.Set(n, r*gainR*ps.makeup)
	}
}

func (ps *CompressorPState) computeGain(env float64) float64 {
	if env <= ps.threshold || ps.threshold <= 0 {
		return 1.0
	}
	over := env / ps.threshold
	return math.Pow(over, 1.0/ps.ratio-1)
}
