package engine

import (
	"context"

	"kunquat/device"
	"kunquat/master"
	"kunquat/pattern"
	"kunquat/thread"
	"kunquat/timeline"
	"kunquat/tstamp"
	"kunquat/voice"
)

// Render fills left/right (equal length, the requested chunk size in
// frames) with the next nframes of mixed output, advancing playback by
// exactly that many frames unless the song ends first. It returns the
// number of frames actually written; a return less than len(left) means
// playback reached the end of a non-looping track and the remainder of
// the buffers was left as silence.
//
// Implements §4.2's Master Loop: repeatedly find the next boundary
// (earliest of a pending trigger, pattern end, or the chunk's own end),
// dispatch every trigger at the current position, render that segment
// through the device graph and voice pool, and advance the playback
// cursor — handling jumps and track-list looping between segments.
func (h *Handle) Render(left, right []float64) int {
	n := len(left)
	if n == 0 || len(right) < n {
		return 0
	}
	for i := range left {
		left[i] = 0
		right[i] = 0
	}

	if h.wbs.Size() < n {
		h.wbs = device.NewWorkBuffers(n)
	}

	framesMixed := 0
	for framesMixed < n {
		if !h.playing || h.module == nil {
			break
		}
		pat := timeline.CurrentPattern(h.module, h.cursor)
		if pat == nil {
			h.playing = false
			break
		}
		h.ensureTriggerCursor(pat)

		h.dispatchTriggersAt(pat, h.cursor.Pos)

		remaining := n - framesMixed
		remainingTstamp := tstamp.FromFrames(float64(remaining), h.params.Tempo, uint32(h.mixRate))
		chunkEnd := tstamp.Add(h.cursor.Pos, remainingTstamp)

		boundary := pat.Length
		if tstamp.Cmp(chunkEnd, boundary) < 0 {
			boundary = chunkEnd
		}
		if next, ok := h.nextTriggerPos(); ok && tstamp.Cmp(next, boundary) < 0 {
			boundary = next
		}

		segFrames := int(tstamp.ToFrames(tstamp.Sub(boundary, h.cursor.Pos), h.params.Tempo, uint32(h.mixRate)))
		if segFrames <= 0 {
			h.assertf("boundary computation produced a non-positive segment (%d frames) at pos %+v; forcing 1 frame of progress", segFrames, h.cursor.Pos)
			segFrames = 1
		}
		if segFrames > remaining {
			segFrames = remaining
		}

		h.renderSegment(left[framesMixed:framesMixed+segFrames], right[framesMixed:framesMixed+segFrames])

		framesMixed += segFrames
		h.framesTotal += int64(segFrames)
		h.cursor.Pos = tstamp.Add(h.cursor.Pos, tstamp.FromFrames(float64(segFrames), h.params.Tempo, uint32(h.mixRate)))

		h.stepSliceBoundState(segFrames)

		if h.params.DoJump {
			h.execJump()
			continue
		}

		if timeline.AtEnd(h.module, h.cursor) {
			next, stop := timeline.Advance(h.module, h.cursor)
			if stop {
				if h.infinite {
					h.cursor = timeline.Cursor{Track: h.cursor.Track, Section: 0, Pos: tstamp.Zero}
				} else {
					h.playing = false
					break
				}
			} else {
				h.cursor = next
			}
			h.triggerSection = -1
		}
	}

	h.params.ActiveVoices = h.voices.ActiveVoices()
	return framesMixed
}

// ensureTriggerCursor resets the per-column trigger read position whenever
// playback enters a different (track, section) than last time this pattern
// was visited — including re-entering the same pattern object after a loop.
func (h *Handle) ensureTriggerCursor(pat *pattern.Pattern) {
	if h.triggerTrack == h.cursor.Track && h.triggerSection == h.cursor.Section && len(h.triggerIdx) == len(pat.Columns) {
		return
	}
	h.triggerTrack = h.cursor.Track
	h.triggerSection = h.cursor.Section
	h.triggerIdx = make([]int, len(pat.Columns))
}

// dispatchTriggersAt routes every trigger at or before pos that hasn't yet
// been dispatched in the current pattern visit, then advances each
// column's read cursor past them, and logs them to the observable-event
// buffer.
func (h *Handle) dispatchTriggersAt(pat *pattern.Pattern, pos tstamp.T) {
	for ch := range pat.Columns {
		col := &pat.Columns[ch]
		for h.triggerIdx[ch] < len(col.Triggers) {
			tr := col.Triggers[h.triggerIdx[ch]]
			if tstamp.Cmp(tr.Pos, pos) > 0 {
				break
			}
			h.dispatcher.Dispatch(tr.Channel, tr.Event)
			h.events.Add(tr.Channel, tr.Event)
			h.triggerIdx[ch]++
		}
	}
}

// nextTriggerPos returns the earliest not-yet-dispatched trigger position
// across every column of the current pattern, if any remain.
func (h *Handle) nextTriggerPos() (tstamp.T, bool) {
	pat := timeline.CurrentPattern(h.module, h.cursor)
	if pat == nil {
		return tstamp.T{}, false
	}
	found := false
	var best tstamp.T
	for ch := range pat.Columns {
		col := &pat.Columns[ch]
		if h.triggerIdx[ch] < len(col.Triggers) {
			cand := col.Triggers[h.triggerIdx[ch]].Pos
			if !found || tstamp.Cmp(cand, best) < 0 {
				best = cand
				found = true
			}
		}
	}
	return best, found
}

func (h *Handle) execJump() {
	h.params.DoJump = false
	if h.params.JumpCounter == 0 {
		return
	}
	if h.params.JumpCounter > 0 {
		h.params.JumpCounter--
	}
	h.cursor = timeline.Jump(h.module, h.params.JumpTargetTrack, 0, h.params.JumpTargetRow)
}

// stepSliceBoundState advances the tempo slide (which ticks once per
// TempoSlideSliceParts of musical time, not per frame) and the volume
// slide (which ticks per frame) by the segment just rendered.
func (h *Handle) stepSliceBoundState(segFrames int) {
	elapsed := tstamp.FromFrames(float64(segFrames), h.params.Tempo, uint32(h.mixRate))
	start := tstamp.Sub(h.cursor.Pos, elapsed)
	sliceOf := func(t tstamp.T) int64 {
		return (t.Beats*int64(tstamp.Beat) + int64(t.Rem)) / int64(master.TempoSlideSliceParts)
	}
	for i := sliceOf(start); i < sliceOf(h.cursor.Pos); i++ {
		h.params.StepTempoSlide()
	}
	h.params.StepVolumeSlide(int64(segFrames))

	for _, cs := range h.dispatcher.Channels {
		cs.StepSliders(int64(segFrames), float64(h.mixRate))
	}
}

// renderJob is one active voice's render work for a segment: its own
// private scratch buffer (never aliased with another voice's) so the fork
// phase below can run every job concurrently with no shared mutable state
// crossing the join except each job's own fields.
type renderJob struct {
	vkey         voice.Handle
	renderer     device.VoiceRenderer
	pstate       device.PState
	vs           device.VState
	scratch      []float64
	releasePoint int
}

func (h *Handle) renderSegment(left, right []float64) {
	n := len(left)
	h.wbs.Get(device.RoleImpl1).Clear()
	h.wbs.Get(device.RoleImpl2).Clear()

	h.voices.ResetUpdated()

	// Fork setup: resolve each active voice's device hooks and VState,
	// allocating/initializing lazily, still single-threaded since this
	// touches the shared h.vstates map and h.voiceScratch slots.
	var jobs []*renderJob
	h.voices.IterActive(func(v *voice.Voice) {
		impl, ok := h.graph.Node(v.DeviceID)
		if !ok {
			h.assertf("active voice (pool=%d id=%d) references unknown device %q", v.PoolIndex, v.ID, v.DeviceID)
			return
		}
		renderer, ok := impl.(device.VoiceRenderer)
		if !ok {
			h.assertf("active voice (pool=%d id=%d) on device %q, which has no VoiceRenderer hook", v.PoolIndex, v.ID, v.DeviceID)
			return
		}
		pstate, _ := h.devices.PState(v.DeviceID)

		vkey := voice.Handle{PoolIndex: v.PoolIndex, ID: v.ID}
		vs, has := h.vstates[vkey]
		if !has {
			allocator, ok := impl.(device.VStateAllocator)
			if !ok {
				h.assertf("device %q produces voices but has no VStateAllocator hook", v.DeviceID)
				return
			}
			vs = allocator.NewVState()
			if initr, ok := impl.(device.VStateInitializer); ok {
				initr.InitVState(vs, pstate)
			}
			if setter, ok := impl.(device.VoiceFreqSetter); ok {
				setter.SetVoiceFreq(vs, v.State.Freq)
			}
			h.vstates[vkey] = vs
		}

		if len(h.voiceScratch[v.PoolIndex]) < n {
			h.voiceScratch[v.PoolIndex] = make([]float64, n)
		}

		v.Updated = true
		jobs = append(jobs, &renderJob{
			vkey:     vkey,
			renderer: renderer,
			pstate:   pstate,
			vs:       vs,
			scratch:  h.voiceScratch[v.PoolIndex][:n],
		})
	})

	// Fork/render/join: each job writes only into its own scratch buffer and
	// mutates only its own VState, so the jobs carry no aliased state across
	// the join and can run on any worker.
	units := make([]thread.Unit, len(jobs))
	for i, j := range jobs {
		job := j
		units[i] = thread.Unit{
			GroupID: uint64(job.vkey.PoolIndex),
			Render: func() {
				job.releasePoint = job.renderer.RenderVoice(job.vs, job.pstate, &job.scratch, h.wbs, 0, n, h.params.Tempo)
			},
		}
	}
	if err := h.renderPool.Run(context.Background(), units); err != nil {
		h.assertf("render pool join returned an error: %v", err)
	}

	// Join: accumulate every job's scratch into the shared mix buffers and
	// release any voice whose render call crossed into silence, serially.
	l := h.wbs.Get(device.RoleImpl1)
	r := h.wbs.Get(device.RoleImpl2)
	for _, job := range jobs {
		for i, s := range job.scratch {
			l.Set(i, l.At(i)+s*0.5)
			r.Set(i, r.At(i)+s*0.5)
		}
		if job.releasePoint >= 0 {
			delete(h.vstates, job.vkey)
			h.voices.Release(job.vkey, true)
		}
	}

	h.voices.MarkUnreached()

	h.graph.WalkMixed(h.devices, h.wbs, 0, n, h.params.Tempo)

	for i := 0; i < n; i++ {
		left[i] = l.At(i) * h.params.Volume
		right[i] = r.At(i) * h.params.Volume
	}

	h.updateMeters(left, right)
}

func (h *Handle) updateMeters(left, right []float64) {
	if len(h.meters) == 0 {
		return
	}
	var min, max float32
	clipped := false
	for i := range left {
		v := float32((left[i] + right[i]) / 2)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		if v > 1 || v < -1 {
			clipped = true
		}
	}
	for i := range h.meters {
		h.meters[i] = ChannelMeter{Min: min, Max: max, Clipped: clipped}
	}
}
