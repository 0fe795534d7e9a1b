// Package channel implements per-channel mutable playback state: selectors,
// the force/pitch/panning/tremolo/vibrato/autowah sliders, mute, and the
// named control-variable map with carry semantics.
package channel

import (
	"kunquat/lfo"
	"kunquat/voice"
)

// Max is the module-wide channel limit (spec CHANNELS_MAX).
const Max = 64

// CVValue is the value type carried by a channel control variable. Exactly
// one field is meaningful, selected by Kind (holding the env.Kind value
// env.Bool, env.Int or env.Float).
type CVValue struct {
	Kind  int
	Bool  bool
	Int   int64
	Float float64
}

// CVState is one named control variable's live value plus its carry flag
// and declared default (restored at note-on when Carry is false).
type CVState struct {
	Value   CVValue
	Default CVValue
	Carry   bool
}

// State is one channel's full mutable state.
type State struct {
	Index int

	AudioUnit string // selected instrument/audio-unit id; "" if none
	Muted     bool

	Force   Slider
	Pitch   Slider
	Panning Slider

	Tremolo Slider
	TremLFO lfo.LFO
	Vibrato Slider
	VibLFO  lfo.LFO
	Autowah Slider
	AwahLFO lfo.LFO

	CarryForce bool
	CarryPitch bool

	CV map[string]*CVState

	activeCVName     string // name-set/value-set idiom (§4.3)
	activeStreamName string

	Foreground voice.Handle
	hasFG      bool

	ArpNotes []float64
	ArpIndex int
	ArpSpeed float64
	ArpOn    bool
}

// NewState returns a fresh channel State with an empty CV map.
func NewState(index int) *State {
	return &State{Index: index, CV: make(map[string]*CVState)}
}

// SetActiveCVName implements the name-set half of the CV name/value idiom.
func (s *State) SetActiveCVName(name string) { s.activeCVName = name }

// ActiveCVName returns the most recently set active CV name.
func (s *State) ActiveCVName() string { return s.activeCVName }

// SetActiveStreamName implements the name-set half of the stream idiom.
func (s *State) SetActiveStreamName(name string) { s.activeStreamName = name }

// ActiveStreamName returns the most recently set active stream name.
func (s *State) ActiveStreamName() string { return s.activeStreamName }

// SetCV writes v to the named CV, creating the entry (with the given value
// as both Value and Default) if it doesn't exist yet.
func (s *State) SetCV(name string, v CVValue) {
	cv, ok := s.CV[name]
	if !ok {
		cv = &CVState{Default: v}
		s.CV[name] = cv
	}
	cv.Value = v
}

// SetCVCarry toggles the carry flag for the named CV, creating it if absent.
func (s *State) SetCVCarry(name string, carry bool) {
	cv, ok := s.CV[name]
	if !ok {
		cv = &CVState{}
		s.CV[name] = cv
	}
	cv.Carry = carry
}

// ApplyNoteOnCarry resets every non-carrying CV to its declared default,
// and resets the Force and Pitch sliders whose carry flag is off, per §4.7.
func (s *State) ApplyNoteOnCarry() {
	for _, cv := range s.CV {
		if !cv.Carry {
			cv.Value = cv.Default
		}
	}
	if !s.CarryForce {
		s.Force = Slider{}
	}
	if !s.CarryPitch {
		s.Pitch = Slider{}
	}
}

// SetForeground records the channel's current foreground voice handle.
func (s *State) SetForeground(h voice.Handle) {
	s.Foreground = h
	s.hasFG = true
}

// ClearForeground drops the channel's foreground voice reference (e.g. on
// note-off once the voice has been handed to the pool's release path).
func (s *State) ClearForeground() {
	s.hasFG = false
}

// ForegroundHandle returns the channel's current foreground voice handle,
// if any.
func (s *State) ForegroundHandle() (voice.Handle, bool) {
	return s.Foreground, s.hasFG
}

// StepSliders advances every slider and its paired LFO by n frames at
// sampleRate, called once per rendered segment from the render loop.
func (s *State) StepSliders(n int64, sampleRate float64) {
	s.Force.Step(n)
	s.Pitch.Step(n)
	s.Panning.Step(n)
	s.Tremolo.Step(n)
	s.Vibrato.Step(n)
	s.Autowah.Step(n)
	for i := int64(0); i < n; i++ {
		s.TremLFO.Sample(sampleRate)
		s.VibLFO.Sample(sampleRate)
		s.AwahLFO.Sample(sampleRate)
	}
}
