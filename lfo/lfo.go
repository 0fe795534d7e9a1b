// Package lfo implements the shared low-frequency oscillator sub-state
// backing the channel sliders that need periodic rather than linear
// modulation: vibrato (pitch), tremolo (force), and autowah (filter cutoff).
package lfo

import "math"

// Waveform selects the oscillator shape.
type Waveform int

const (
	WaveTriangle Waveform = iota
	WaveSaw
	WaveSquare
	WaveRandom
)

// LFO produces per-frame modulation in [-Depth, +Depth] once configured via
// Set. Each channel slider (vibrato/tremolo/autowah) owns an independent
// LFO instance.
type LFO struct {
	depth   float64
	rateHz  float64
	wave    Waveform
	phase   float64
	randVal float64
}

// Set configures speed (oscillation rate in Hz) and depth (modulation
// amplitude in the slider's own units — cents for vibrato, a gain factor
// for tremolo, a cutoff-fraction for autowah) and the waveform. An
// out-of-range waveform falls back to WaveTriangle.
func (l *LFO) Set(speedHz, depth float64, wave Waveform) {
	l.rateHz = speedHz
	l.depth = depth
	if wave < WaveTriangle || wave > WaveRandom {
		wave = WaveTriangle
	}
	l.wave = wave
}

// SetSpeed retargets only the oscillation rate, leaving depth/waveform.
func (l *LFO) SetSpeed(speedHz float64) { l.rateHz = speedHz }

// SetDepth retargets only the modulation amplitude.
func (l *LFO) SetDepth(depth float64) { l.depth = depth }

// Sample advances the oscillator by one frame at sampleRate and returns the
// modulation value for that frame. Returns 0 when depth, rate, or
// sampleRate is zero (an inactive slider costs nothing beyond the check).
func (l *LFO) Sample(sampleRate float64) float64 {
	if l.depth == 0 || l.rateHz == 0 || sampleRate == 0 {
		return 0
	}

	var wave float64
	switch l.wave {
	case WaveSaw:
		wave = 1.0 - 2.0*l.phase
	case WaveSquare:
		if l.phase < 0.5 {
			wave = 1.0
		} else {
			wave = -1.0
		}
	case WaveRandom:
		wave = l.randVal
	default: // WaveTriangle
		if l.phase < 0.5 {
			wave = 4.0*l.phase - 1.0
		} else {
			wave = 3.0 - 4.0*l.phase
		}
	}

	oldPhase := l.phase
	l.phase += l.rateHz / sampleRate
	for l.phase >= 1.0 {
		l.phase -= 1.0
	}

	if l.wave == WaveRandom && l.phase < oldPhase {
		l.randVal = math.Sin(l.phase*12345.6789 + l.randVal*67890.1234)
		l.randVal -= math.Floor(l.randVal)
		l.randVal = l.randVal*2.0 - 1.0
	}

	return wave * l.depth
}

// Active reports whether the oscillator currently produces non-zero
// modulation.
func (l *LFO) Active() bool {
	return l.depth != 0 && l.rateHz != 0
}

// Reset zeros phase and held random state.
func (l *LFO) Reset() {
	l.phase = 0
	l.randVal = 0
}
