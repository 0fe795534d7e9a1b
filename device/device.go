// Package device implements the processor capability interface ("Device
// Impl"), the Device State Collection keyed by device id, and guard-padded
// Work Buffers.
//
// The reference engine dispatched through a struct whose first field was a
// shared "parent" header — per the tagged-variant/capability-interface
// design direction, this package instead exposes a plain Go interface with
// optional hooks: a Device Impl that doesn't need a given hook simply
// doesn't implement it, detected via type assertion.
package device

// PState is the opaque per-device processor state created by
// PStateCreator.CreatePState (delay lines, filter memory, ...).
type PState any

// VState is the opaque per-voice runtime state allocated by
// VStateAllocator.NewVState and initialized by VStateInitializer.InitVState
// (phase, envelope position, ...).
type VState any

// Impl is the minimal capability every Device Impl must support: an
// identity. The optional hooks below are detected by type assertion, so a
// Device Impl implements only the subset it needs.
type Impl interface {
	ID() string
}

// PStateCreator is implemented by Device Impls that keep per-device state
// across chunks (most mixers/effects).
type PStateCreator interface {
	Impl
	CreatePState(audioRate int, bufferSize int) PState
}

// VStateSizer/VStateInitializer are implemented by Device Impls that
// produce voices (instruments): they report how large a voice's opaque
// state is and initialize it at note-on.
type VStateSizer interface {
	Impl
	GetVStateSize() int
}

type VStateInitializer interface {
	Impl
	InitVState(vstate VState, pstate PState)
}

// VStateAllocator is implemented by Device Impls that produce voices: it
// allocates a freshly zeroed VState of the impl's own concrete type, which
// the engine then passes to InitVState and every subsequent RenderVoice
// call for that voice's lifetime.
type VStateAllocator interface {
	Impl
	NewVState() VState
}

// VoiceFreqSetter is implemented by Device Impls that need the voice's
// note frequency (derived from the channel's pitch at note-on) written into
// their own VState shape before the first RenderVoice call, since the
// engine has no generic field to set it through.
type VoiceFreqSetter interface {
	Impl
	SetVoiceFreq(vstate VState, freqHz float64)
}

// VoiceRenderer is implemented by Device Impls invoked once per active
// voice per chunk segment. newReleasePoint, when >= 0, signals the voice
// finished its release and fell silent at that frame offset within the
// segment, after which the engine deactivates it; a return of -1 means the
// voice is still sounding.
type VoiceRenderer interface {
	Impl
	RenderVoice(vstate VState, pstate PState, auState any, wbs *WorkBuffers, bufStart, bufStop int, tempo float64) (newReleasePoint int)
}

// MixedRenderer is implemented by Device Impls invoked once per chunk
// segment regardless of voice count (mixers, effects).
type MixedRenderer interface {
	Impl
	RenderMixed(pstate PState, wbs *WorkBuffers, bufStart, bufStop int, tempo float64)
}

// StateCollection owns every device's PState, keyed by device id, plus the
// VState size each voice-producing device reports. It holds no VStates
// itself.
type StateCollection struct {
	pstates map[string]PState
	vsizes  map[string]int
}

// NewStateCollection returns an empty collection.
func NewStateCollection() *StateCollection {
	return &StateCollection{
		pstates: make(map[string]PState),
		vsizes:  make(map[string]int),
	}
}

// Ensure creates impl's PState (if it implements PStateCreator and doesn't
// already have one) and records its VState size (if it implements
// VStateSizer).
func (c *StateCollection) Ensure(impl Impl, audioRate, bufferSize int) {
	id := impl.ID()
	if _, ok := c.pstates[id]; !ok {
		if creator, ok := impl.(PStateCreator); ok {
			c.pstates[id] = creator.CreatePState(audioRate, bufferSize)
		}
	}
	if sizer, ok := impl.(VStateSizer); ok {
		c.vsizes[id] = sizer.GetVStateSize()
	}
}

// PState returns the stored PState for deviceID, if any.
func (c *StateCollection) PState(deviceID string) (PState, bool) {
	p, ok := c.pstates[deviceID]
	return p, ok
}

// VStateSize returns the recorded VState size for deviceID (0 if the
// device never produces voices).
func (c *StateCollection) VStateSize(deviceID string) int {
	return c.vsizes[deviceID]
}
