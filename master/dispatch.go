package master

import (
	"math"

	"github.com/charmbracelet/log"

	"kunquat/channel"
	"kunquat/env"
	"kunquat/event"
	"kunquat/tstamp"
	"kunquat/tuning"
	"kunquat/voice"
)

// NoteAllocator is the minimal voice-pool surface the dispatcher needs for
// note-on/off and stealing, kept as an interface so tests can substitute a
// fake pool.
type NoteAllocator interface {
	NewVoice(groupID uint64, deviceID string) voice.Handle
	Get(h voice.Handle) (*voice.Voice, bool)
	Release(h voice.Handle, toInactive bool)
}

// Dispatcher routes triggers to Master/Control/Channel/AU state per §4.3's
// band taxonomy, gated by GeneralState's conditional-execution rules.
type Dispatcher struct {
	Params   *Params
	Channels []*channel.State
	Voices   NoteAllocator
	Tuning   *tuning.State
	Env      *env.State

	nextGroupID    uint64
	pendingEnvName string
}

// NewDispatcher wires a Dispatcher over the given channel count.
func NewDispatcher(params *Params, channels int, voices NoteAllocator, tun *tuning.State, envState *env.State) *Dispatcher {
	d := &Dispatcher{Params: params, Voices: voices, Tuning: tun, Env: envState}
	d.Channels = make([]*channel.State, channels)
	for i := range d.Channels {
		d.Channels[i] = channel.NewState(i)
	}
	return d
}

// Dispatch processes one trigger. It returns false when the event's
// argument type doesn't match its declared kind (§4.3/§7: rejected, never
// fatal) or when a gated-off event is silently ignored, true otherwise.
// ch is the channel index (ignored for GENERAL/MASTER/CONTROL events; the
// reference engine keyed conditional state per-channel in General_state,
// reused here as part of Params for simplicity since single-threaded
// rendering never interleaves channels mid-event).
func (d *Dispatcher) Dispatch(ch int, ev event.Event) bool {
	if !ev.Type.Validate(ev.Arg) {
		log.Warn("malformed event argument rejected", "type", ev.Type.Name(), "kind", ev.Arg.Kind)
		return false
	}

	switch ev.Type.Band() {
	case event.BandGeneral:
		return d.dispatchGeneral(ev)
	case event.BandControl:
		if !d.Params.General.EventsEnabled() {
			return false
		}
		return d.dispatchControl(ev)
	case event.BandMaster:
		if !d.Params.General.EventsEnabled() {
			return false
		}
		return d.dispatchMaster(ev)
	case event.BandChannel:
		if !d.Params.General.EventsEnabled() {
			return false
		}
		return d.dispatchChannel(ch, ev)
	case event.BandAU:
		if !d.Params.General.EventsEnabled() {
			return false
		}
		return d.dispatchAU(ch, ev)
	default:
		return false
	}
}

func (d *Dispatcher) dispatchGeneral(ev event.Event) bool {
	switch ev.Type {
	case event.TypeComment:
		return true
	case event.TypeCond:
		d.Params.General.EvaluatedCond = ev.Arg.Bool
		return true
	case event.TypeIf:
		return d.Params.General.PushIf(true)
	case event.TypeElse:
		d.Params.General.Else()
		return true
	case event.TypeEndIf:
		d.Params.General.EndIf()
		return true
	case event.TypeCallName, event.TypeCall:
		// Call events are accepted as valid and otherwise ignored: the
		// core neither records nor performs the call.
		return true
	default:
		return false
	}
}

func (d *Dispatcher) dispatchControl(ev event.Event) bool {
	switch ev.Type {
	case event.TypeEnvSetVarName:
		d.pendingEnvName = ev.Arg.Str
		return true
	case event.TypeEnvSetVar:
		if d.pendingEnvName == "" {
			return false
		}
		return d.Env.Set(d.pendingEnvName, realtimeToEnvValue(ev.Arg))
	case event.TypeGoto:
		d.Params.CurPos = tstamp.T{Beats: ev.Arg.Beats, Rem: ev.Arg.Rem}
		return true
	case event.TypeGotoSubsong:
		d.Params.CurTrack = int(ev.Arg.Int)
		d.Params.CurSection = 0
		d.Params.CurPos = tstamp.Zero
		return true
	case event.TypeInfinite:
		d.Params.IsInfinite = ev.Arg.Bool
		return true
	default:
		return false
	}
}

func realtimeToEnvValue(a event.Arg) env.Value {
	switch a.RTKind {
	case event.ArgBool:
		return env.Value{Kind: env.Bool, Bool: a.Bool}
	case event.ArgInt:
		return env.Value{Kind: env.Int, Int: a.Int}
	case event.ArgTstamp:
		return env.Value{Kind: env.Tstamp, Tstamp: tstamp.T{Beats: a.Beats, Rem: a.Rem}}
	default:
		return env.Value{Kind: env.Float, Float: a.Float}
	}
}

func (d *Dispatcher) dispatchMaster(ev event.Event) bool {
	switch ev.Type {
	case event.TypeSetTempo:
		d.Params.Tempo = ev.Arg.Float
		d.Params.TempoSlider = Slider{}
		return true
	case event.TypeSlideTempo:
		d.Params.StartTempoSlide(ev.Arg.Float, 1)
		log.Debug("tempo slide started", "target", ev.Arg.Float)
		return true
	case event.TypeSlideTempoLength:
		d.Params.RetargetTempoSlideLength(ev.Arg.Beats)
		return true
	case event.TypeSetVolume:
		d.Params.Volume = ev.Arg.Float
		d.Params.VolumeSlider = Slider{}
		return true
	case event.TypeSlideVolume:
		d.Params.StartVolumeSlide(ev.Arg.Float, int64(TempoSlideSliceParts))
		return true
	case event.TypeSlideVolumeLength:
		// Re-expressed in frames by the caller at render time; stored here
		// as beats-equivalent via the generic Slider FramesLeft field.
		d.Params.VolumeSlider.FramesLeft = ev.Arg.Beats
		return true
	case event.TypeJump:
		d.Params.DoJump = true
		log.Debug("jump taken", "target_track", d.Params.JumpTargetTrack, "target_row", d.Params.JumpTargetRow)
		return true
	case event.TypeJumpCounter:
		d.Params.JumpCounter = int(ev.Arg.Int)
		return true
	case event.TypeSetJumpRow:
		d.Params.JumpTargetRow = tstamp.T{Beats: ev.Arg.Beats, Rem: ev.Arg.Rem}
		return true
	case event.TypeSetJumpSubsong:
		d.Params.JumpTargetTrack = int(ev.Arg.Int)
		return true
	case event.TypeSetScale, event.TypeSetScaleFixedPoint, event.TypeSetScaleOffset, event.TypeShiftScaleIntervals:
		return d.dispatchScale(ev)
	default:
		return false
	}
}

func (d *Dispatcher) dispatchScale(ev event.Event) bool {
	if d.Tuning == nil {
		return false
	}
	switch ev.Type {
	case event.TypeSetScale:
		d.Tuning.Retune(int(ev.Arg.Float), d.Tuning.RefNote())
		return true
	case event.TypeSetScaleOffset:
		d.Tuning.SetGlobalOffset(ev.Arg.Float)
		return true
	case event.TypeSetScaleFixedPoint, event.TypeShiftScaleIntervals:
		// Accepted and ignored: these events leave the Tuning State
		// unchanged, and no other part of the engine applies them.
		return true
	default:
		return false
	}
}

func (d *Dispatcher) dispatchChannel(ch int, ev event.Event) bool {
	if ch < 0 || ch >= len(d.Channels) {
		return false
	}
	cs := d.Channels[ch]

	switch ev.Type {
	case event.TypeSetAUInput:
		cs.AudioUnit = itoaDeviceID(int(ev.Arg.Int))
		return true
	case event.TypeNoteOn:
		d.noteOn(cs, ev.Arg.Float)
		return true
	case event.TypeHit:
		d.noteOn(cs, 0)
		return true
	case event.TypeNoteOff:
		d.noteOff(cs)
		return true

	case event.TypeSetForce:
		cs.Force.Current = ev.Arg.Float
		cs.Force.Target = ev.Arg.Float
		return true
	case event.TypeSlideForce:
		cs.Force.SetTarget(ev.Arg.Float, int64(TempoSlideSliceParts))
		return true
	case event.TypeSlideForceLength:
		cs.Force.FramesLeft = ev.Arg.Beats
		return true
	case event.TypeCarryForceOn:
		cs.CarryForce = true
		return true
	case event.TypeCarryForceOff:
		cs.CarryForce = false
		return true

	case event.TypeTremoloSpeed:
		cs.TremLFO.SetSpeed(ev.Arg.Float)
		return true
	case event.TypeTremoloDepth:
		cs.TremLFO.SetDepth(ev.Arg.Float)
		return true
	case event.TypeTremoloSpeedSlide, event.TypeTremoloDepthSlide:
		cs.Tremolo.FramesLeft = ev.Arg.Beats
		return true

	case event.TypeSlidePitch:
		cs.Pitch.SetTarget(ev.Arg.Float, int64(TempoSlideSliceParts))
		return true
	case event.TypeSlidePitchLength:
		cs.Pitch.FramesLeft = ev.Arg.Beats
		return true
	case event.TypeCarryPitchOn:
		cs.CarryPitch = true
		return true
	case event.TypeCarryPitchOff:
		cs.CarryPitch = false
		return true
	case event.TypeVibratoSpeed:
		cs.VibLFO.SetSpeed(ev.Arg.Float)
		return true
	case event.TypeVibratoDepth:
		cs.VibLFO.SetDepth(ev.Arg.Float)
		return true
	case event.TypeVibratoSpeedSlide, event.TypeVibratoDepthSlide:
		cs.Vibrato.FramesLeft = ev.Arg.Beats
		return true

	case event.TypeAutowahSpeed:
		cs.AwahLFO.SetSpeed(ev.Arg.Float)
		return true
	case event.TypeAutowahDepth:
		cs.AwahLFO.SetDepth(ev.Arg.Float)
		return true
	case event.TypeAutowahSpeedSlide, event.TypeAutowahDepthSlide:
		cs.Autowah.FramesLeft = ev.Arg.Beats
		return true

	case event.TypeResetArpeggio:
		cs.ArpIndex = 0
		cs.ArpNotes = nil
		return true
	case event.TypeSetArpeggioNote:
		cs.ArpNotes = append(cs.ArpNotes, ev.Arg.Float)
		return true
	case event.TypeSetArpeggioIndex:
		cs.ArpIndex = int(ev.Arg.Int)
		return true
	case event.TypeSetArpeggioSpeed:
		cs.ArpSpeed = ev.Arg.Float
		return true
	case event.TypeArpeggioOn:
		cs.ArpOn = true
		return true
	case event.TypeArpeggioOff:
		cs.ArpOn = false
		return true

	case event.TypeSetStreamName:
		cs.SetActiveStreamName(ev.Arg.Str)
		return true

	case event.TypeSetCVName:
		cs.SetActiveCVName(ev.Arg.Str)
		return true
	case event.TypeSetCVValue:
		name := cs.ActiveCVName()
		if name == "" {
			return false
		}
		cs.SetCV(name, realtimeToCVValue(ev.Arg))
		return true
	case event.TypeSlideCVTarget, event.TypeSlideCVLength:
		return true // interpolation target bookkeeping, not modeled per-CV here
	case event.TypeCarryCVOn:
		cs.SetCVCarry(cs.ActiveCVName(), true)
		return true
	case event.TypeCarryCVOff:
		cs.SetCVCarry(cs.ActiveCVName(), false)
		return true

	default:
		return false
	}
}

func (d *Dispatcher) dispatchAU(ch int, ev event.Event) bool {
	if ch < 0 || ch >= len(d.Channels) {
		return false
	}
	switch ev.Type {
	case event.TypeAUSetCVName, event.TypeAUSetCVValue, event.TypeAUExpression:
		// Accepted after argument validation only: no audio unit's
		// control-variable state is changed by these events.
		return true
	default:
		return false
	}
}

func (d *Dispatcher) noteOn(cs *channel.State, pitchCents float64) {
	cs.ApplyNoteOnCarry()
	cs.Pitch.SetTarget(pitchCents, 0)
	d.nextGroupID++
	h := d.Voices.NewVoice(d.nextGroupID, cs.AudioUnit)
	if v, ok := d.Voices.Get(h); ok {
		v.State.Freq = centsToHz(pitchCents)
		v.State.Active = true
	}
	cs.SetForeground(h)
	log.Debug("voice allocated", "channel", cs.Index, "pool_index", h.PoolIndex, "id", h.ID)
}

// centsToHz converts an absolute pitch expressed in cents relative to A4
// (440Hz at 0 cents) into a frequency in Hz, matching the teacher's
// semitone-based note-to-frequency conversion generalized to cents.
func centsToHz(cents float64) float64 {
	return 440 * math.Pow(2, cents/1200)
}

func (d *Dispatcher) noteOff(cs *channel.State) {
	h, ok := cs.ForegroundHandle()
	if !ok {
		return
	}
	d.Voices.Release(h, false)
	cs.ClearForeground()
}

func realtimeToCVValue(a event.Arg) channel.CVValue {
	switch a.RTKind {
	case event.ArgBool:
		return channel.CVValue{Kind: int(env.Bool), Bool: a.Bool}
	case event.ArgInt:
		return channel.CVValue{Kind: int(env.Int), Int: a.Int}
	default:
		return channel.CVValue{Kind: int(env.Float), Float: a.Float}
	}
}

func itoaDeviceID(n int) string {
	// Device ids are opaque strings elsewhere in the engine; AU-input
	// events carry a numeric index, rendered here as "au<N>"; a channel's
	// voices reach a Device Impl only if one is registered under that id.
	digits := []byte{}
	if n == 0 {
		digits = []byte{'0'}
	}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return "au" + string(digits)
}
