package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kunquat/voice"
)

func TestApplyNoteOnCarryResetsNonCarryingSliders(t *testing.T) {
	s := NewState(0)
	s.Force.SetTarget(5, 0)
	s.Pitch.SetTarget(7, 0)

	s.ApplyNoteOnCarry()

	assert.Equal(t, Slider{}, s.Force)
	assert.Equal(t, Slider{}, s.Pitch)
}

func TestApplyNoteOnCarryPreservesCarryingSliders(t *testing.T) {
	s := NewState(0)
	s.CarryForce = true
	s.CarryPitch = true
	s.Force.SetTarget(5, 0)
	s.Pitch.SetTarget(7, 0)

	s.ApplyNoteOnCarry()

	assert.Equal(t, 5.0, s.Force.Current)
	assert.Equal(t, 7.0, s.Pitch.Current)
}

func TestApplyNoteOnCarryRestoresNonCarryingCVDefault(t *testing.T) {
	s := NewState(0)
	s.SetActiveCVName("cutoff")
	s.SetCV("cutoff", CVValue{Kind: 2, Float: 0.5})
	s.SetCV("cutoff", CVValue{Kind: 2, Float: 0.9})

	s.ApplyNoteOnCarry()

	assert.Equal(t, 0.5, s.CV["cutoff"].Value.Float)
}

func TestApplyNoteOnCarryKeepsCarryingCVValue(t *testing.T) {
	s := NewState(0)
	s.SetCVCarry("cutoff", true)
	s.SetCV("cutoff", CVValue{Kind: 2, Float: 0.5})
	s.SetCV("cutoff", CVValue{Kind: 2, Float: 0.9})

	s.ApplyNoteOnCarry()

	assert.Equal(t, 0.9, s.CV["cutoff"].Value.Float)
}

func TestForegroundHandleLifecycle(t *testing.T) {
	s := NewState(0)
	_, ok := s.ForegroundHandle()
	assert.False(t, ok)

	h := voice.Handle{PoolIndex: 2, ID: 9}
	s.SetForeground(h)
	got, ok := s.ForegroundHandle()
	assert.True(t, ok)
	assert.Equal(t, h, got)

	s.ClearForeground()
	_, ok = s.ForegroundHandle()
	assert.False(t, ok)
}

func TestStepSlidersAdvancesEverySliderAndLFO(t *testing.T) {
	s := NewState(0)
	s.Force.SetTarget(10, 100)
	s.Vibrato.SetTarget(1, 100)
	s.VibLFO.SetSpeed(4)
	s.VibLFO.SetDepth(1)

	s.StepSliders(50, 48000)

	assert.InDelta(t, 5.0, s.Force.Current, 1e-9)
	assert.InDelta(t, 0.5, s.Vibrato.Current, 1e-9)
}
