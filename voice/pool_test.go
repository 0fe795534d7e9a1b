package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kunquat/tstamp"
)

func tstampAt(beats int64) tstamp.T {
	return tstamp.T{Beats: beats}
}

func TestNewVoiceUsesInactiveSlotFirst(t *testing.T) {
	p := NewPool(4)
	h := p.NewVoice(1, "dev")
	v, ok := p.Get(h)
	require.True(t, ok)
	assert.Equal(t, FG, v.Prio)
	assert.Equal(t, 1, p.ActiveVoices())
}

func TestStealLowestPriorityOldest(t *testing.T) {
	// S5: 4-voice pool, 5 note-ons with distinct group ids at the same
	// timestamp. Exactly one voice is stolen; its prior handle goes stale.
	p := NewPool(4)
	var handles []Handle
	for g := uint64(1); g <= 4; g++ {
		handles = append(handles, p.NewVoice(g, "dev"))
	}
	assert.Equal(t, 4, p.ActiveVoices())

	fifth := p.NewVoice(5, "dev")
	assert.Equal(t, 4, p.ActiveVoices(), "capacity stays at 4 after a steal")

	stolen := handles[0]
	_, ok := p.Get(stolen)
	assert.False(t, ok, "stale handle must fail generation check")

	_, ok = p.Get(fifth)
	assert.True(t, ok)
}

func TestGetRejectsStaleGeneration(t *testing.T) {
	p := NewPool(1)
	h := p.NewVoice(1, "dev")
	p.Release(h, true)
	h2 := p.NewVoice(2, "dev")
	assert.Equal(t, h.PoolIndex, h2.PoolIndex)
	assert.NotEqual(t, h.ID, h2.ID)

	_, ok := p.Get(h)
	assert.False(t, ok)
	_, ok = p.Get(h2)
	assert.True(t, ok)
}

func TestStealGroupDeactivatesWholeGroup(t *testing.T) {
	p := NewPool(4)
	h1 := p.NewVoice(7, "dev")
	h2 := p.NewVoice(7, "dev")
	p.StealGroup(7)
	_, ok := p.Get(h1)
	assert.False(t, ok)
	_, ok = p.Get(h2)
	assert.False(t, ok)
	assert.Equal(t, 0, p.ActiveVoices())
}

func TestMarkUnreachedDeactivatesUntouchedVoices(t *testing.T) {
	p := NewPool(2)
	h := p.NewVoice(1, "dev")
	p.ResetUpdated()
	v, _ := p.Get(h)
	v.Updated = true
	p.MarkUnreached()
	_, ok := p.Get(h)
	assert.True(t, ok, "voice marked Updated survives the sweep")

	h2 := p.NewVoice(2, "dev")
	p.ResetUpdated()
	p.MarkUnreached()
	_, ok = p.Get(h2)
	assert.False(t, ok, "voice left Updated=false is deactivated")
}

func TestVoiceEventQueueOrdering(t *testing.T) {
	v := &Voice{}
	ok := v.Enqueue(QueuedEvent{Pos: tstampAt(2)}, 8)
	require.True(t, ok)
	v.Enqueue(QueuedEvent{Pos: tstampAt(1)}, 8)
	v.Enqueue(QueuedEvent{Pos: tstampAt(3)}, 8)

	first, ok := v.Dequeue()
	require.True(t, ok)
	assert.Equal(t, int64(1), first.Pos.Beats)

	second, _ := v.Dequeue()
	assert.Equal(t, int64(2), second.Pos.Beats)
}
