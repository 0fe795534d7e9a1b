package effect

import (
	"math"
	"sync/atomic"

	"kunquat/device"
)

// EQ5Band is a 5-band equalizer with runtime-adjustable gains, split at
// 200Hz/800Hz/2.5kHz/8kHz, adapted from the teacher's
// internal/effects.EQ5Band. Gains are stored as atomic float32 bit
// patterns so a host can call SetGain from outside render() — the render
// loop itself stays single-threaded per the engine's concurrency model —
// without introducing a lock on the hot path.
type EQ5Band struct {
	id    string
	gains [5]atomic.Uint32
}

var eq5Crossovers = [4]float64{200, 800, 2500, 8000}

// EQ5PState holds the crossover filter coefficients and per-channel state.
type EQ5PState struct {
	alphas   [4]float64
	lpL, lpR [4]float64
}

// NewEQ5Band returns an EQ5Band Device Impl with all bands at unity gain.
func NewEQ5Band(id string) *EQ5Band {
	eq := &EQ5Band{id: id}
	for i := range eq.gains {
		eq.gains[i].Store(math.Float32bits(1.0))
	}
	return eq
}

func (eq *EQ5Band) ID() string { return eq.id }

// SetGain sets the gain for band (0-4). 1.0 = unity, 0.0 = silence.
func (eq *EQ5Band) SetGain(band int, gain float32) {
	if band >= 0 && band < 5 {
		eq.gains[band].Store(math.Float32bits(gain))
	}
}

// Gain returns the current gain for band (0-4).
func (eq *EQ5Band) Gain(band int) float32 {
	if band >= 0 && band < 5 {
		return math.Float32frombits(eq.gains[band].Load())
	}
	return 1.0
}

func (eq *EQ5Band) CreatePState(audioRate int, bufferSize int) device.PState {
	ps := &EQ5PState{}
	dt := 1.0 / float64(audioRate)
	for i, freq := range eq5Crossovers {
		rc := 1.0 / (2.0 * math.Pi * freq)
		ps.alphas[i] = dt / (rc + dt)
	}
	return ps
}

func (eq *EQ5Band) RenderMixed(pstate device.PState, wbs *device.WorkBuffers, bufStart, bufStop int, tempo float64) {
	ps := pstate.(*EQ5PState)
	left, right := stereoBuffers(wbs)

	for n := bufStart; n < bufStop; n++ {
		var bandL, bandR [5]float64
		remL, remR := left.At(n), right.At(n)
		for i := 0; i < 4; i++ {
			ps.lpL[i] += ps.alphas[i] * (remL - ps.lpL[i])
			ps.lpR[i] += ps.alphas[i] * (remR - ps.lpR[i])
			bandL[i] = ps.lpL[i]
			bandR[i] = ps.lpR[i]
			remL -= bandL[i]
			remR -= bandR[i]
		}
		bandL[4] = remL
		bandR[4] = remR

		var outL, outR float64
		for i := 0; i < 5; i++ {
			g := float64(math.Float32frombits(eq.gains[i].Load()))
			outL += bandL[i] * g
			outR += bandR[i] * g
		}
		left.Set(n, outL)
		right.Set(n, outR)
	}
}
