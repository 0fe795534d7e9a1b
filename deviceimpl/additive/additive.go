// Package additive implements a small additive/FM-style oscillator Device
// Impl used as a reference fixture exercising the full device.Impl hook
// table (CreatePState, GetVStateSize, InitVState, RenderVoice). It is not
// a specified processor — the DSP math of concrete processors is out of
// scope (spec.md §1) — but the engine needs at least one working Device
// Impl to drive tests end-to-end.
//
// Adapted from the teacher's internal/fm engine: its carrier+modulator
// operator pair and four-stage (attack/decay/sustain/release) envelope are
// kept, generalized from the teacher's fixed-polyphony voice array onto the
// engine's own Voice Pool / VState hook shape.
package additive

import (
	"math"

	"kunquat/device"
)

const twoPi = math.Pi * 2

// PState is this Device Impl's per-device processor state: the FM
// parameters shared by every voice it renders.
type PState struct {
	CarrierMul float64
	ModMul     float64
	ModIndex   float64
	AttackSec  float64
	DecaySec   float64
	SustainLvl float64
	ReleaseSec float64
}

// DefaultPState returns a reasonable default parameter set, mirroring the
// teacher's DefaultParams.
func DefaultPState() PState {
	return PState{
		CarrierMul: 1.0,
		ModMul:     2.0,
		ModIndex:   1.6,
		AttackSec:  0.005,
		DecaySec:   0.12,
		SustainLvl: 0.75,
		ReleaseSec: 0.2,
	}
}

type envStage int

const (
	stageAttack envStage = iota
	stageDecay
	stageSustain
	stageRelease
	stageOff
)

// VState is one voice's opaque runtime state: carrier/modulator phase and
// the shared envelope position.
type VState struct {
	CarrierPhase float64
	ModPhase     float64
	Freq         float64
	Env          float64
	Stage        envStage
	Released     bool
}

// Impl is the Device Impl itself.
type Impl struct {
	id string
}

// New returns an additive Device Impl registered under id.
func New(id string) *Impl { return &Impl{id: id} }

func (i *Impl) ID() string { return i.id }

func (i *Impl) CreatePState(audioRate int, bufferSize int) device.PState {
	p := DefaultPState()
	return &p
}

func (i *Impl) GetVStateSize() int { return 1 }

// NewVState allocates this Impl's concrete VState type for the engine to
// hold per voice.
func (i *Impl) NewVState() device.VState { return &VState{} }

func (i *Impl) InitVState(vstate device.VState, pstate device.PState) {
	vs := vstate.(*VState)
	*vs = VState{Stage: stageAttack}
}

// SetVoiceFreq implements device.VoiceFreqSetter.
func (i *Impl) SetVoiceFreq(vstate device.VState, freqHz float64) {
	vstate.(*VState).Freq = freqHz
}

// RenderVoice renders [bufStart, bufStop) frames of this voice's output
// into a caller-supplied sample buffer it reads via auState (expected to
// be a *[]float64 of at least bufStop length), advancing phase and
// envelope. Returns the frame offset where the release stage completed and
// the voice fell silent, or -1 if it's still sounding.
func (i *Impl) RenderVoice(vstate device.VState, pstate device.PState, auState any, wbs *device.WorkBuffers, bufStart, bufStop int, tempo float64) int {
	vs := vstate.(*VState)
	p := pstate.(*PState)
	out, _ := auState.(*[]float64)

	sampleRate := 48000.0 // caller-provided rate is threaded via PState in a full build;
	// the fixture assumes 48kHz, adequate for exercising the hook shape it stands in for.

	attackStep := 1.0 / (p.AttackSec * sampleRate)
	decayStep := (1.0 - p.SustainLvl) / (p.DecaySec * sampleRate)
	releaseStep := p.SustainLvl / (p.ReleaseSec * sampleRate)

	releasePoint := -1
	for n := bufStart; n < bufStop; n++ {
		switch vs.Stage {
		case stageAttack:
			vs.Env += attackStep
			if vs.Env >= 1.0 {
				vs.Env = 1.0
				vs.Stage = stageDecay
			}
		case stageDecay:
			vs.Env -= decayStep
			if vs.Env <= p.SustainLvl {
				vs.Env = p.SustainLvl
				vs.Stage = stageSustain
			}
		case stageSustain:
			if vs.Released {
				vs.Stage = stageRelease
			}
		case stageRelease:
			vs.Env -= releaseStep
			if vs.Env <= 0 {
				vs.Env = 0
				vs.Stage = stageOff
				if releasePoint < 0 {
					releasePoint = n - bufStart
				}
			}
		}

		modOut := math.Sin(vs.ModPhase) * p.ModIndex
		carrier := math.Sin(vs.CarrierPhase + modOut)
		sample := carrier * vs.Env

		if out != nil && n < len(*out) {
			(*out)[n] = sample
		}

		vs.CarrierPhase += twoPi * vs.Freq * p.CarrierMul / sampleRate
		vs.ModPhase += twoPi * vs.Freq * p.ModMul / sampleRate
		for vs.CarrierPhase >= twoPi {
			vs.CarrierPhase -= twoPi
		}
		for vs.ModPhase >= twoPi {
			vs.ModPhase -= twoPi
		}
	}
	return releasePoint
}
