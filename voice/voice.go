// Package voice implements the polyphonic voice pool: a fixed-capacity array
// of rendering slots referenced by generation-counted (pool_index, id)
// handles, a priority heap for steal selection, voice groups that are
// stolen together, and a bounded per-voice event queue.
package voice

import (
	"container/heap"

	"kunquat/tstamp"
)

// Priority classifies a voice's eligibility for stealing.
type Priority int

const (
	Inactive Priority = iota
	BG
	FG
)

// MaxVoices is the hard cap on pool capacity (spec MAX_VOICES).
const MaxVoices = 1024

// EventsPerTick bounds the per-voice event queue's typical depth; the queue
// itself can grow to the configured capacity but insertion-sort cost is
// O(n) and n is expected to stay small (<=8) in practice.
const EventsPerTick = 8

// State is the per-voice DSP-facing render state (phase/position/envelope
// sub-states live behind an opaque vstate owned by the bound Device Impl;
// this struct carries only the fields the engine itself inspects).
type State struct {
	Active      bool
	Freq        float64
	Pos         int64
	PosPart     int32
	RelPos      int64
	RelPosPart  int32
	SilenceEst  float64 // used by the priority-inversion silence threshold
}

// QueuedEvent is a timed update enqueued against a specific voice (e.g.
// note-off, a slide tick) to be applied when the render loop reaches Pos.
type QueuedEvent struct {
	Pos     tstamp.T
	Channel int
	Kind    int
	Arg     float64
}

// Voice is one rendering slot. PoolIndex is stable for the slot's lifetime;
// ID increments every time the slot is reused by a steal or a fresh
// allocation, which is what makes a stale (PoolIndex, ID) pair detectable.
type Voice struct {
	PoolIndex int
	ID        uint64
	GroupID   uint64
	Prio      Priority
	DeviceID  string // bound Device Impl / audio unit identifier
	State     State
	Updated   bool // §4.5 reachability marking

	queue []QueuedEvent
	qHead int
}

// Handle is the generation-counted reference a Channel stores instead of a
// pointer, per spec §9.
type Handle struct {
	PoolIndex int
	ID        uint64
}

// Enqueue inserts ev into the voice's bounded queue in position order
// (earliest Pos first), mirroring Event_queue.c's insertion-sort-into-ring
// behavior. When full, ev itself is rejected (Enqueue returns false and
// the queue is unchanged), matching the "bounded per tick" invariant.
func (v *Voice) Enqueue(ev QueuedEvent, capacity int) bool {
	if len(v.queue)-v.qHead >= capacity {
		return false
	}
	i := len(v.queue)
	for i > v.qHead && tstamp.Cmp(v.queue[i-1].Pos, ev.Pos) > 0 {
		i--
	}
	v.queue = append(v.queue, QueuedEvent{})
	copy(v.queue[i+1:], v.queue[i:])
	v.queue[i] = ev
	return true
}

// Dequeue removes and returns the earliest queued event. ok is false when
// the queue is empty.
func (v *Voice) Dequeue() (QueuedEvent, bool) {
	if v.qHead >= len(v.queue) {
		return QueuedEvent{}, false
	}
	ev := v.queue[v.qHead]
	v.qHead++
	if v.qHead == len(v.queue) {
		v.queue = v.queue[:0]
		v.qHead = 0
	}
	return ev, true
}

// PeekPos reports the position of the earliest queued event, if any.
func (v *Voice) PeekPos() (tstamp.T, bool) {
	if v.qHead >= len(v.queue) {
		return tstamp.T{}, false
	}
	return v.queue[v.qHead].Pos, true
}

// ClearQueue empties the voice's event queue.
func (v *Voice) ClearQueue() {
	v.queue = v.queue[:0]
	v.qHead = 0
}

func (v *Voice) reset() {
	v.State = State{}
	v.Updated = false
	v.ClearQueue()
}
