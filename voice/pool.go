package voice

import "container/heap"

// SilenceThreshold is the SilenceEst value below which a BG voice is
// considered eligible for stealing ahead of louder BG voices regardless of
// age (§4.4 priority inversion).
const SilenceThreshold = 1e-4

// Pool is a fixed-capacity array of Voices plus a priority heap used to pick
// a steal target in O(log n).
type Pool struct {
	voices []Voice
	active stealHeap // heap of pool indices currently BG or FG
	inHeap []bool
	nextID uint64
}

// NewPool allocates a Pool with the given capacity (1 <= capacity <=
// MaxVoices).
func NewPool(capacity int) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	if capacity > MaxVoices {
		capacity = MaxVoices
	}
	p := &Pool{
		voices: make([]Voice, capacity),
		inHeap: make([]bool, capacity),
	}
	for i := range p.voices {
		p.voices[i] = Voice{PoolIndex: i, Prio: Inactive}
	}
	return p
}

// Capacity returns the pool's configured voice count.
func (p *Pool) Capacity() int { return len(p.voices) }

// stealHeap orders pool indices by (silence-eligible BG first, prio
// ascending, id ascending, pool_index ascending) — the lowest-priority
// oldest voice sorts first, per §4.4's steal policy and §9's tie-break.
type stealHeap struct {
	pool *Pool
	idx  []int
}

func (h stealHeap) Len() int { return len(h.idx) }

func (h stealHeap) Less(i, j int) bool {
	a := &h.pool.voices[h.idx[i]]
	b := &h.pool.voices[h.idx[j]]
	aSilent := a.Prio == BG && a.State.SilenceEst < SilenceThreshold
	bSilent := b.Prio == BG && b.State.SilenceEst < SilenceThreshold
	if aSilent != bSilent {
		return aSilent
	}
	if a.Prio != b.Prio {
		return a.Prio < b.Prio
	}
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	return a.PoolIndex < b.PoolIndex
}

func (h stealHeap) Swap(i, j int) {
	h.idx[i], h.idx[j] = h.idx[j], h.idx[i]
}

func (h *stealHeap) Push(x any) { h.idx = append(h.idx, x.(int)) }

func (h *stealHeap) Pop() any {
	old := h.idx
	n := len(old)
	v := old[n-1]
	h.idx = old[:n-1]
	return v
}

func (p *Pool) trackActive(i int) {
	if p.inHeap[i] {
		return
	}
	p.inHeap[i] = true
	if p.active.pool == nil {
		p.active.pool = p
	}
	heap.Push(&p.active, i)
}

func (p *Pool) untrackActive(i int) {
	if !p.inHeap[i] {
		return
	}
	for slot, idx := range p.active.idx {
		if idx == i {
			heap.Remove(&p.active, slot)
			break
		}
	}
	p.inHeap[i] = false
}

// findInactive returns the pool index of an Inactive slot, or -1.
func (p *Pool) findInactive() int {
	for i := range p.voices {
		if p.voices[i].Prio == Inactive {
			return i
		}
	}
	return -1
}

// NewVoice allocates a voice for groupID bound to deviceID. It reuses an
// inactive slot if one exists, otherwise steals the heap minimum (and its
// whole group, per §4.4's "stolen together" rule).
func (p *Pool) NewVoice(groupID uint64, deviceID string) Handle {
	idx := p.findInactive()
	if idx < 0 {
		idx = p.stealOne()
	}
	p.nextID++
	v := &p.voices[idx]
	v.reset()
	v.ID = p.nextID
	v.GroupID = groupID
	v.DeviceID = deviceID
	v.Prio = FG
	p.trackActive(idx)
	return Handle{PoolIndex: idx, ID: v.ID}
}

// stealOne evicts the heap's minimum-priority voice and the rest of its
// group, returning the pool index freed for the new allocation's own use.
func (p *Pool) stealOne() int {
	if p.active.Len() == 0 {
		// Degenerate: pool capacity 0 voices active and none inactive found
		// means capacity is exhausted by a bug elsewhere; fall back to slot 0.
		return 0
	}
	victim := p.active.idx[0]
	group := p.voices[victim].GroupID
	target := victim
	for i := range p.voices {
		if p.voices[i].GroupID == group && p.voices[i].Prio != Inactive {
			if i != victim {
				p.deactivate(i)
			}
		}
	}
	p.untrackActive(target)
	p.voices[target].Prio = Inactive
	return target
}

// StealGroup forcibly deactivates every voice sharing groupID, per the
// original engine's Voice_group steal-together semantics.
func (p *Pool) StealGroup(groupID uint64) {
	for i := range p.voices {
		if p.voices[i].GroupID == groupID && p.voices[i].Prio != Inactive {
			p.deactivate(i)
		}
	}
}

func (p *Pool) deactivate(i int) {
	p.untrackActive(i)
	p.voices[i].Prio = Inactive
	p.voices[i].reset()
}

// Get resolves a Handle to its Voice, generation-checked: a stale handle
// (one whose slot has since been reused) yields ok == false.
func (p *Pool) Get(h Handle) (*Voice, bool) {
	if h.PoolIndex < 0 || h.PoolIndex >= len(p.voices) {
		return nil, false
	}
	v := &p.voices[h.PoolIndex]
	if v.ID != h.ID || v.Prio == Inactive {
		return nil, false
	}
	return v, true
}

// Release moves the voice to BG (release phase entered) or Inactive
// (release complete / silent) depending on toInactive.
func (p *Pool) Release(h Handle, toInactive bool) {
	v, ok := p.Get(h)
	if !ok {
		return
	}
	if toInactive {
		p.deactivate(v.PoolIndex)
		return
	}
	v.Prio = BG
	if p.inHeap[v.PoolIndex] {
		for slot := range p.active.idx {
			if p.active.idx[slot] == v.PoolIndex {
				heap.Fix(&p.active, slot)
				break
			}
		}
	}
}

// ActiveVoices reports the number of voices currently FG or BG, matching
// Master.active_voices (spec invariant 4).
func (p *Pool) ActiveVoices() int {
	n := 0
	for i := range p.voices {
		if p.voices[i].Prio != Inactive {
			n++
		}
	}
	return n
}

// IterActive calls fn for every FG or BG voice in pool_index order.
func (p *Pool) IterActive(fn func(*Voice)) {
	for i := range p.voices {
		if p.voices[i].Prio != Inactive {
			fn(&p.voices[i])
		}
	}
}

// MarkUnreached deactivates every active voice whose Updated flag is still
// false, per §4.5's device-graph reachability sweep. Call after setting
// Updated=false on all active voices and walking the device graph.
func (p *Pool) MarkUnreached() {
	for i := range p.voices {
		if p.voices[i].Prio != Inactive && !p.voices[i].Updated {
			p.deactivate(i)
		}
	}
}

// ResetUpdated clears the Updated flag on every active voice, to be called
// before each chunk's device-graph walk.
func (p *Pool) ResetUpdated() {
	for i := range p.voices {
		if p.voices[i].Prio != Inactive {
			p.voices[i].Updated = false
		}
	}
}
