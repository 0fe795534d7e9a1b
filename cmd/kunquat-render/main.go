// Command kunquat-render renders a short built-in demo composition to a
// WAV file (or, with no -out, just reports its final mix state), adapted
// from the teacher's cmd/play_mml. Since spec.md excludes the textual
// module-format parser from core scope, there is no -file/-mml flag here:
// the composition comes from pattern.Builder, the package's own supported
// way to construct a Module in Go.
package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"kunquat/deviceimpl/additive"
	"kunquat/engine"
	"kunquat/event"
	"kunquat/pattern"
	"kunquat/tstamp"
)

func main() {
	var (
		sampleRate = pflag.Int("rate", 48000, "output sample rate")
		voices     = pflag.Int("voices", 32, "voice pool size")
		channels   = pflag.Int("channels", 1, "channel count")
		infinite   = pflag.Bool("infinite", false, "restart the track from its first section instead of stopping at its end")
		seconds    = pflag.Float64("seconds", 3.0, "how many seconds to render")
		out        = pflag.String("out", "", "WAV output path; if empty, only the final mix state is printed")
	)
	pflag.Parse()

	h, err := engine.NewHandle(*sampleRate, *voices, *channels)
	if err != nil {
		log.Fatal("failed to create engine handle", "err", err)
	}

	impl := additive.New("au0")
	h.Graph().AddNode(impl)
	h.Devices().Ensure(impl, *sampleRate, 1024)

	h.LoadModule(demoModule(), nil, nil)
	h.SetInfinite(*infinite)
	h.Play(0)

	frames := int(float64(*sampleRate) * *seconds)
	left := make([]float64, frames)
	right := make([]float64, frames)
	n := h.Render(left, right)
	if n < frames {
		log.Debug("playback ended before the requested duration", "rendered_frames", n, "requested_frames", frames)
	}

	if *out != "" {
		samples := interleave(left[:n], right[:n])
		if err := os.WriteFile(*out, encodeWAVFloat32LE(samples, *sampleRate, 2), 0o644); err != nil {
			log.Fatal("failed to write WAV file", "path", *out, "err", err)
		}
		fmt.Printf("wrote %d frames to %s\n", n, *out)
		return
	}

	ms := h.GetMixState()
	fmt.Printf("rendered %d frames; tempo=%.2f voices=%d\n", n, ms.Tempo, ms.Voices)
}

// demoModule builds a short single-channel ascending arpeggio, standing in
// for the textual MML score a parser would otherwise have produced.
func demoModule() *pattern.Module {
	b := pattern.NewBuilder(1)
	pat := b.Pattern(4)
	b.Trigger(pat, tstamp.Zero, 0, event.Event{Type: event.TypeSetAUInput, Arg: event.IntArg(0)})
	notes := []float64{0, 400, 700, 1200} // cents relative to A4: A, ~C#, ~E, A one octave up
	for i, cents := range notes {
		pos := tstamp.New(int64(i), 0)
		b.Trigger(pat, pos, 0, event.Event{Type: event.TypeNoteOn, Arg: event.FloatArg(cents)})
		off := tstamp.New(int64(i), tstamp.Beat/2)
		b.Trigger(pat, off, 0, event.Event{Type: event.TypeNoteOff})
	}
	b.Track(false, pat)
	return b.Build()
}

func interleave(left, right []float64) []float32 {
	out := make([]float32, len(left)*2)
	for i := range left {
		out[2*i] = float32(left[i])
		out[2*i+1] = float32(right[i])
	}
	return out
}

// encodeWAVFloat32LE writes a 32-bit float PCM WAV, adapted from the
// teacher's EncodeWAVFloat32LE in offline.go.
func encodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
