// Package master implements Master Params (the global playback cursor,
// tempo/volume sliders, jump bookkeeping) and the Event Dispatcher that
// routes triggers to the right state per §4.3's band taxonomy.
package master

import (
	"kunquat/channel"
	"kunquat/tstamp"
)

// PlaybackState mirrors spec §3's Master Params playback_state enum.
type PlaybackState int

const (
	Stopped PlaybackState = iota
	Pattern
	Song
	Module
)

// TempoSlideSliceParts is the musical-time granularity a tempo slide
// advances by, expressed in Tstamp parts (not beats), grounded on the
// reference engine's `TEMPO_SLIDE_SLICE_LEN = KQT_TSTAMP_BEAT / 24`.
const TempoSlideSliceParts = tstamp.Beat / 24

// MaxCondDepth bounds if/else/endif nesting (§9 Open Question, resolved).
const MaxCondDepth = 32

// Params is the engine's global playback state.
type Params struct {
	PlaybackID    uint64
	State         PlaybackState
	IsInfinite    bool
	CurTrack      int
	CurSection    int
	CurPos        tstamp.T
	CurChannel    int
	CurTrigger    int
	DelayLeft     tstamp.T

	Tempo       float64
	TempoSlider Slider

	Volume       float64
	VolumeSlider Slider

	DoJump          bool
	JumpCounter     int
	JumpTargetTrack int
	JumpTargetRow   tstamp.T

	ActiveVoices int

	General GeneralState
}

// NewParams returns Params at a sane default (120 BPM, unity volume,
// stopped).
func NewParams() *Params {
	return &Params{State: Stopped, Tempo: 120, Volume: 1.0}
}

// GeneralState is the conditional-execution context shared across GENERAL
// events: a single active-condition slot plus a bounded nesting stack for
// if/else/endif, per §4.3.
type GeneralState struct {
	CondExecEnabled bool
	CondForExec     bool
	EvaluatedCond   bool

	stack []bool // saved CondForExec values across nested if/else
}

// EventsEnabled reports whether state-mutating events should currently
// apply, per §4.3's gating formula.
func (g *GeneralState) EventsEnabled() bool {
	return !g.CondExecEnabled || g.CondForExec == g.EvaluatedCond
}

// PushIf enters a new conditional scope. Exceeding MaxCondDepth is a
// dispatch-level rejection (§7: malformed/unsupported argument, never
// fatal), signaled by returning false.
func (g *GeneralState) PushIf(cond bool) bool {
	if len(g.stack) >= MaxCondDepth {
		return false
	}
	g.stack = append(g.stack, g.CondForExec)
	g.CondExecEnabled = true
	g.CondForExec = cond
	return true
}

// Else flips the active branch.
func (g *GeneralState) Else() {
	g.CondForExec = !g.CondForExec
}

// EndIf exits the current conditional scope, restoring the parent's state.
func (g *GeneralState) EndIf() {
	if len(g.stack) == 0 {
		g.CondExecEnabled = false
		return
	}
	g.CondForExec = g.stack[len(g.stack)-1]
	g.stack = g.stack[:len(g.stack)-1]
	if len(g.stack) == 0 {
		g.CondExecEnabled = false
	}
}

// Slider is re-exported from channel so master's tempo/volume slides share
// the exact same generic (target, current, slice_update, direction) shape
// §4.3 specifies for every slide in the engine.
type Slider = channel.Slider
