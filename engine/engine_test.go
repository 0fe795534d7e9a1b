package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kunquat/deviceimpl/additive"
	"kunquat/event"
	"kunquat/pattern"
	"kunquat/tstamp"
)

const testDeviceID = "au0"

func newTestHandle(t *testing.T) *Handle {
	t.Helper()
	h, err := NewHandle(48000, 8, 4)
	require.NoError(t, err)

	impl := additive.New(testDeviceID)
	h.Graph().AddNode(impl)
	h.Devices().Ensure(impl, 48000, 256)
	return h
}

func oneBeatModule(build func(b *pattern.Builder)) *pattern.Module {
	b := pattern.NewBuilder(4)
	build(b)
	return b.Build()
}

// TestSilentModuleRendersZero covers S1: a pattern with no triggers
// produces exactly silence.
func TestSilentModuleRendersZero(t *testing.T) {
	h := newTestHandle(t)
	mod := oneBeatModule(func(b *pattern.Builder) {
		pat := b.Pattern(4)
		b.Track(false, pat)
	})
	h.LoadModule(mod, nil, nil)
	h.Play(0)

	left := make([]float64, 256)
	right := make([]float64, 256)
	n := h.Render(left, right)
	assert.Equal(t, 256, n)
	for i := range left {
		assert.Zero(t, left[i])
		assert.Zero(t, right[i])
	}
}

// TestSingleNoteProducesSoundAndAllocatesVoice covers S2: a single note-on
// allocates exactly one voice and the rendered output is non-silent.
func TestSingleNoteProducesSoundAndAllocatesVoice(t *testing.T) {
	h := newTestHandle(t)
	mod := oneBeatModule(func(b *pattern.Builder) {
		pat := b.Pattern(4)
		b.Trigger(pat, tstamp.Zero, 0, event.Event{Type: event.TypeSetAUInput, Arg: event.IntArg(0)})
		b.Trigger(pat, tstamp.Zero, 0, event.Event{Type: event.TypeNoteOn, Arg: event.FloatArg(0)})
		b.Track(false, pat)
	})
	h.LoadModule(mod, nil, nil)
	h.Play(0)

	left := make([]float64, 512)
	right := make([]float64, 512)
	h.Render(left, right)

	nonZero := false
	for i := range left {
		if left[i] != 0 || right[i] != 0 {
			nonZero = true
			break
		}
	}
	assert.True(t, nonZero)

	ms := h.GetMixState()
	assert.Equal(t, 1, ms.Voices)
}

// TestActiveVoicesMatchesMasterAccounting covers invariant 4: the pool's
// active voice count equals what GetMixState reports after note-on/off.
func TestActiveVoicesMatchesMasterAccounting(t *testing.T) {
	h := newTestHandle(t)
	mod := oneBeatModule(func(b *pattern.Builder) {
		pat := b.Pattern(4)
		b.Trigger(pat, tstamp.Zero, 0, event.Event{Type: event.TypeSetAUInput, Arg: event.IntArg(0)})
		b.Trigger(pat, tstamp.Zero, 0, event.Event{Type: event.TypeNoteOn, Arg: event.FloatArg(0)})
		b.Trigger(pat, tstamp.New(1, 0), 0, event.Event{Type: event.TypeNoteOff})
		b.Track(false, pat)
	})
	h.LoadModule(mod, nil, nil)
	h.Play(0)

	left := make([]float64, 4096)
	right := make([]float64, 4096)
	h.Render(left, right)

	assert.Equal(t, h.voices.ActiveVoices(), h.GetMixState().Voices)
}

func TestGetEventsReflectsDispatchedTriggers(t *testing.T) {
	h := newTestHandle(t)
	mod := oneBeatModule(func(b *pattern.Builder) {
		pat := b.Pattern(4)
		b.Trigger(pat, tstamp.Zero, 0, event.Event{Type: event.TypeNoteOn, Arg: event.FloatArg(0)})
		b.Track(false, pat)
	})
	h.LoadModule(mod, nil, nil)
	h.Play(0)

	left := make([]float64, 256)
	right := make([]float64, 256)
	h.Render(left, right)

	assert.Contains(t, h.GetEvents(), `"n+"`)
	h.ResetEvents()
	assert.Equal(t, "[]", h.GetEvents())
}

// TestMultipleSimultaneousVoicesRenderIndependently exercises the
// fork/join voice render path (§5's optional parallel device-graph
// rendering): four channels each allocate their own voice at distinct
// pitches in the same segment, and every one must still be accounted for
// and contribute to the mix without corrupting another voice's state.
func TestMultipleSimultaneousVoicesRenderIndependently(t *testing.T) {
	h := newTestHandle(t)
	mod := oneBeatModule(func(b *pattern.Builder) {
		pat := b.Pattern(4)
		for ch := 0; ch < 4; ch++ {
			b.Trigger(pat, tstamp.Zero, ch, event.Event{Type: event.TypeSetAUInput, Arg: event.IntArg(0)})
			b.Trigger(pat, tstamp.Zero, ch, event.Event{Type: event.TypeNoteOn, Arg: event.FloatArg(float64(ch * 200))})
		}
		b.Track(false, pat)
	})
	h.LoadModule(mod, nil, nil)
	h.Play(0)

	left := make([]float64, 1024)
	right := make([]float64, 1024)
	h.Render(left, right)

	assert.Equal(t, 4, h.voices.ActiveVoices())
	assert.Equal(t, 4, h.GetMixState().Voices)

	nonZero := false
	for i := range left {
		if left[i] != 0 {
			nonZero = true
			break
		}
	}
	assert.True(t, nonZero)
}

func TestFakeOutOfMemoryIsPerHandle(t *testing.T) {
	h1, err := NewHandle(48000, 4, 2)
	require.NoError(t, err)
	h2, err := NewHandle(48000, 4, 2)
	require.NoError(t, err)

	h1.FakeOutOfMemory(0)
	assert.Equal(t, 1, h2.GetMemoryAllocCount())
}
