package master

import "math"

// StartTempoSlide retargets the tempo slider to reach target BPM over
// lengthBeats beats, moving in TempoSlideSliceParts-sized slices as §5's
// ordering guarantee requires ("tempo slides advance exactly once per
// BEAT/24 beats of musical time, never per audio frame").
func (p *Params) StartTempoSlide(target float64, lengthBeats int64) {
	slices := lengthBeats * 24
	if slices <= 0 {
		p.Tempo = target
		p.TempoSlider = Slider{}
		return
	}
	p.TempoSlider.SetTarget(target, slices)
	p.TempoSlider.Current = p.Tempo
	p.TempoSlider.SliceUpdate = (target - p.Tempo) / float64(slices)
	if target > p.Tempo {
		p.TempoSlider.Direction = 1
	} else if target < p.Tempo {
		p.TempoSlider.Direction = -1
	} else {
		p.TempoSlider.Direction = 0
	}
}

// RetargetTempoSlideLength recomputes the slide's per-slice update against
// the already-set target when the length changes mid-slide, matching the
// reference engine's Event_global_slide_tempo_length_process.
func (p *Params) RetargetTempoSlideLength(lengthBeats int64) {
	slices := lengthBeats * 24
	if slices <= 0 {
		p.Tempo = p.TempoSlider.Target
		p.TempoSlider = Slider{}
		return
	}
	p.TempoSlider.FramesLeft = slices
	p.TempoSlider.SliceUpdate = (p.TempoSlider.Target - p.Tempo) / float64(slices)
}

// StepTempoSlide advances the tempo slider by one slice (§4.2's master
// loop calls this once per BEAT/24 of elapsed musical time, never per
// frame).
func (p *Params) StepTempoSlide() {
	if p.TempoSlider.Done() {
		return
	}
	p.TempoSlider.Step(1)
	p.Tempo = p.TempoSlider.Current
}

// dBToLinear / linearToDB convert between the linear gain space Volume is
// stored in and the dB space the reference engine's volume-slide math
// operates in (Event_global_slide_volume.c: `volume_dB = log2(volume)*6`).
func linearToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return math.Log2(v) * 6
}

func dBToLinear(db float64) float64 {
	return math.Exp2(db / 6)
}

// StartVolumeSlide retargets the volume slider to reach targetLinear over
// lengthFrames frames, interpolating in dB space rather than linear
// amplitude, per the reference engine's dB-domain volume slide.
func (p *Params) StartVolumeSlide(targetLinear float64, lengthFrames int64) {
	curDB := linearToDB(p.Volume)
	targetDB := linearToDB(targetLinear)
	if lengthFrames <= 0 {
		p.Volume = targetLinear
		p.VolumeSlider = Slider{}
		return
	}
	p.VolumeSlider.Target = targetDB
	p.VolumeSlider.Current = curDB
	p.VolumeSlider.FramesLeft = lengthFrames
	p.VolumeSlider.SliceUpdate = (targetDB - curDB) / float64(lengthFrames)
	if targetDB > curDB {
		p.VolumeSlider.Direction = 1
	} else if targetDB < curDB {
		p.VolumeSlider.Direction = -1
	} else {
		p.VolumeSlider.Direction = 0
	}
}

// StepVolumeSlide advances the volume slider by n frames and converts the
// result back to linear gain.
func (p *Params) StepVolumeSlide(n int64) {
	if p.VolumeSlider.Done() {
		return
	}
	p.VolumeSlider.Step(n)
	p.Volume = dBToLinear(p.VolumeSlider.Current)
}
