package eventbuf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"kunquat/event"
)

func TestEmptyBufferIsEmptyArray(t *testing.T) {
	b := New(4096)
	assert.Equal(t, "[]", b.String())
}

func TestAddEncodesChannelNameValue(t *testing.T) {
	b := New(4096)
	b.Add(2, event.Event{Type: event.TypeNoteOn, Arg: event.FloatArg(0)})
	assert.Equal(t, `[[2,["n+",0]]]`, b.String())
}

// TestOverflowEntersSkippingMode exercises scenario S4: 10,000 note events
// in one chunk, with a buffer sized to hold most but not all of them, so
// that events_added ends up greater than events_skipped while still
// overflowing before the chunk ends.
func TestOverflowEntersSkippingMode(t *testing.T) {
	b := New(110_000)
	for i := 0; i < 10_000; i++ {
		b.Add(0, event.Event{Type: event.TypeNoteOn, Arg: event.FloatArg(float64(i))})
	}
	assert.True(t, b.IsFull())
	assert.True(t, b.IsSkipping())
	assert.Greater(t, b.EventsAdded(), 0)
	assert.Greater(t, b.EventsSkipped(), 0)
	assert.Greater(t, b.EventsAdded(), b.EventsSkipped())

	s := b.String()
	assert.True(t, strings.HasPrefix(s, "["))
	assert.True(t, strings.HasSuffix(s, "]"))
}

func TestResetClearsState(t *testing.T) {
	b := New(4096)
	b.Add(0, event.Event{Type: event.TypeNoteOff})
	b.Reset()
	assert.Equal(t, "[]", b.String())
	assert.Equal(t, 0, b.EventsAdded())
	assert.False(t, b.IsFull())
}

func TestEncodedLengthNeverExceedsSize(t *testing.T) {
	b := New(512)
	for i := 0; i < 1000; i++ {
		b.Add(0, event.Event{Type: event.TypeSetStreamName, Arg: event.StringArg("some moderately long stream name value")})
	}
	assert.LessOrEqual(t, len(b.String()), 512)
}
