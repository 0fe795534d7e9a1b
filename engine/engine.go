// Package engine implements the Master Loop (§4.2) and the public playback
// Handle (§6): the engine-scoped object embedders create, load a Module
// into, and pull rendered audio from.
//
// Adapted from the teacher's Player/eventWrapper pair in player.go: Handle
// plays the same lifecycle role (construct once, Play/Stop, pull PCM via a
// Process-shaped call), generalized from a single fixed-format synth engine
// onto the full device graph / voice pool / dispatcher stack.
package engine

import (
	"fmt"

	"github.com/charmbracelet/log"

	"kunquat/channel"
	"kunquat/device"
	"kunquat/devicegraph"
	"kunquat/env"
	"kunquat/eventbuf"
	"kunquat/kqtmem"
	"kunquat/master"
	"kunquat/pattern"
	"kunquat/thread"
	"kunquat/timeline"
	"kunquat/tstamp"
	"kunquat/tuning"
	"kunquat/voice"
)

// EventBufSize bounds the per-chunk observable-event log (spec
// EVENT_BUFFER_SIZE default).
const EventBufSize = 4096

// renderWorkers is the fixed worker-goroutine count backing the per-segment
// voice render fork/join (§5's optional parallel device-graph rendering).
const renderWorkers = 4

// ChannelMeter reports a min/max/clipped peak reading. Each Render segment
// overwrites it with one reading taken from the whole stereo mix, averaged
// over left and right, and that same reading fills every channel's slot:
// the values are not isolated per channel.
type ChannelMeter struct {
	Min     float32
	Max     float32
	Clipped bool
}

// MixState is a snapshot of playback position and health, returned by
// Handle.GetMixState.
type MixState struct {
	Playing       bool
	FramesTotal   int64
	NsTotal       int64
	Subsong       int
	Section       int
	Pattern       int
	Pos           tstamp.T
	Tempo         float64
	Voices        int
	ChannelMeters []ChannelMeter
}

// Handle is one playback session: a loaded Module plus everything needed to
// render it — the voice pool, per-channel state, master params, the event
// dispatcher, the device graph, and the observable-event log.
type Handle struct {
	alloc *kqtmem.Allocator

	mixRate int

	module *pattern.Module
	cursor timeline.Cursor
	infinite bool

	params     *master.Params
	dispatcher *master.Dispatcher
	voices     *voice.Pool
	tuning     *tuning.State
	env        *env.State

	graph   *devicegraph.Graph
	devices *device.StateCollection
	wbs     *device.WorkBuffers

	renderPool   *thread.Pool
	voiceScratch [][]float64 // one private scratch buffer per voice-pool slot

	vstates map[voice.Handle]device.VState

	triggerIdx     []int
	triggerTrack   int
	triggerSection int

	events *eventbuf.Buffer

	playing bool
	framesTotal int64

	meters []ChannelMeter

	suppressAsserts bool
}

// NewHandle allocates a Handle at the given mix rate (frames/second) with
// voiceCount voices and channelCount channels, wired over a fresh
// Allocator so FakeOutOfMemory simulation is independent per Handle.
func NewHandle(mixRate, voiceCount, channelCount int) (*Handle, error) {
	if mixRate <= 0 {
		return nil, fmt.Errorf("engine: mix rate must be positive, got %d", mixRate)
	}
	alloc := kqtmem.NewAllocator()
	pool := kqtmem.Alloc[voice.Pool](alloc)
	if pool == nil {
		return nil, fmt.Errorf("engine: voice pool allocation failed")
	}
	*pool = *voice.NewPool(voiceCount)

	params := master.NewParams()
	dispatcher := master.NewDispatcher(params, channelCount, pool, nil, nil)

	return &Handle{
		alloc:      alloc,
		mixRate:    mixRate,
		params:     params,
		dispatcher: dispatcher,
		voices:     pool,
		graph:      devicegraph.NewGraph(),
		devices:    device.NewStateCollection(),
		wbs:        device.NewWorkBuffers(mixRate), // resized per Render call as needed
		renderPool:     thread.New(renderWorkers),
		voiceScratch:   make([][]float64, pool.Capacity()),
		vstates:        make(map[voice.Handle]device.VState),
		triggerTrack:   -1,
		triggerSection: -1,
		events:         eventbuf.New(EventBufSize),
		meters:         make([]ChannelMeter, channelCount),
	}, nil
}

// LoadModule installs mod as the Handle's composition together with its
// tuning and environment state, and resets the playback cursor to the
// start of track 0. It does not touch the device graph or the device state
// collection: callers register Device Impls through Graph().AddNode/Connect
// and create their PStates through Devices().Ensure.
func (h *Handle) LoadModule(mod *pattern.Module, tun *tuning.State, envState *env.State) {
	h.module = mod
	h.tuning = tun
	h.env = envState
	h.dispatcher.Tuning = tun
	h.dispatcher.Env = envState
	h.cursor = timeline.Cursor{Track: 0, Section: 0, Pos: tstamp.Zero}
	h.params.CurTrack = 0
	h.params.CurSection = 0
	h.params.CurPos = tstamp.Zero
}

// Graph exposes the device graph so callers can register Device Impls and
// connections before the first Render.
func (h *Handle) Graph() *devicegraph.Graph { return h.graph }

// Devices exposes the device state collection so callers can Ensure PStates
// for every registered Impl before the first Render.
func (h *Handle) Devices() *device.StateCollection { return h.devices }

// Channels exposes the per-channel playback state array for inspection or
// direct test setup.
func (h *Handle) Channels() []*channel.State { return h.dispatcher.Channels }

// Play starts (or restarts) playback at the given track index.
func (h *Handle) Play(track int) {
	h.cursor = timeline.Cursor{Track: track, Section: 0, Pos: tstamp.Zero}
	h.params.CurTrack = track
	h.params.State = master.Song
	h.playing = true
	log.Debug("playback started", "track", track)
}

// Stop halts playback; subsequent Render calls produce silence.
func (h *Handle) Stop() {
	h.playing = false
	h.params.State = master.Stopped
	log.Debug("playback stopped")
}

// SetMixRate changes the engine's output sample rate. Existing Work Buffers
// are resized lazily on the next Render call.
func (h *Handle) SetMixRate(rate int) {
	if rate <= 0 {
		return
	}
	h.mixRate = rate
}

// SetVoiceCount replaces the voice pool with a freshly sized one,
// discarding any currently sounding voices (matches the reference engine's
// kqt_Handle_set_voice_count, which stops all voices on resize).
func (h *Handle) SetVoiceCount(n int) error {
	if n < 1 || n > voice.MaxVoices {
		return fmt.Errorf("engine: voice count %d out of range [1, %d]", n, voice.MaxVoices)
	}
	h.voices = voice.NewPool(n)
	h.dispatcher.Voices = h.voices
	h.vstates = make(map[voice.Handle]device.VState)
	h.voiceScratch = make([][]float64, h.voices.Capacity())
	return nil
}

// SetInfinite enables or disables restarting the current track from its
// first section when playback reaches that track's end. Playback never
// moves on to another track; a Track's own Loop flag has the same wrapping
// effect for that track.
func (h *Handle) SetInfinite(b bool) {
	h.infinite = b
	h.params.IsInfinite = b
}

// GetEvents returns the JSON-encoded observable-event log accumulated since
// the Handle was created or ResetEvents was last called (Render does not
// clear it).
func (h *Handle) GetEvents() string { return h.events.String() }

// ResetEvents clears the observable-event log.
func (h *Handle) ResetEvents() { h.events.Reset() }

// GetMixState snapshots current playback position and per-channel meters.
func (h *Handle) GetMixState() MixState {
	ms := MixState{
		Playing:       h.playing,
		FramesTotal:   h.framesTotal,
		NsTotal:       int64(float64(h.framesTotal) / float64(h.mixRate) * 1e9),
		Subsong:       h.cursor.Track,
		Section:       h.cursor.Section,
		Pos:           h.cursor.Pos,
		Tempo:         h.params.Tempo,
		Voices:        h.voices.ActiveVoices(),
		ChannelMeters: append([]ChannelMeter(nil), h.meters...),
	}
	if pat := timeline.CurrentPattern(h.module, h.cursor); pat != nil {
		ms.Pattern = h.cursor.Section
	}
	return ms
}

// FakeOutOfMemory arms the Handle's allocator to fail its (steps+1)th
// allocation, for out-of-memory-path testing.
func (h *Handle) FakeOutOfMemory(steps int) { h.alloc.FakeOutOfMemory(steps) }

// GetMemoryAllocCount returns the Handle's total successful allocation
// count since construction.
func (h *Handle) GetMemoryAllocCount() int { return h.alloc.AllocCount() }

// SuppressAssertMessages toggles whether internal consistency-check
// failures are logged (tests that intentionally drive edge cases set this
// to avoid noisy output).
func (h *Handle) SuppressAssertMessages(suppress bool) { h.suppressAsserts = suppress }

func (h *Handle) assertf(format string, args ...any) {
	if h.suppressAsserts {
		return
	}
	log.Warn(fmt.Sprintf(format, args...))
}
