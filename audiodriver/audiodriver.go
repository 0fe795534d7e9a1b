// Package audiodriver adapts an engine.Handle's pull-based Render call to
// ebiten's streaming audio player, kept as a separate package from engine
// itself so the engine stays audio-backend-agnostic — the same separation
// the teacher draws between player.go and internal/audio.
//
// Adapted from the teacher's internal/audio/stream.go: StreamReader's
// float32-interleaving Read loop and Player's single shared Context are
// kept verbatim in shape; Process(dst []float32) is replaced by a render
// call into a Handle's own stereo float64 buffers.
package audiodriver

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// Renderer is the subset of engine.Handle this package depends on, kept as
// an interface so tests can substitute a fake without importing engine.
type Renderer interface {
	Render(left, right []float64) int
}

// FrameSink pulls interleaved stereo float32 frames from a Renderer,
// buffering the float64 render output and the finished flag once playback
// reaches a non-looping track's end.
type FrameSink struct {
	mu       sync.Mutex
	renderer Renderer
	left     []float64
	right    []float64
	finished bool
}

// NewFrameSink wraps renderer for streaming playback.
func NewFrameSink(renderer Renderer) *FrameSink {
	return &FrameSink{renderer: renderer}
}

// Process fills dst (interleaved L,R,L,R,...) with the next len(dst)/2
// frames pulled from the underlying Renderer, clamping to [-1, 1].
func (s *FrameSink) Process(dst []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(dst) / 2
	if frames == 0 {
		return
	}
	if cap(s.left) < frames {
		s.left = make([]float64, frames)
		s.right = make([]float64, frames)
	}
	s.left = s.left[:frames]
	s.right = s.right[:frames]

	n := s.renderer.Render(s.left, s.right)
	if n < frames {
		s.finished = true
	}

	for i := 0; i < frames; i++ {
		dst[2*i] = float32(clamp(s.left[i]))
		dst[2*i+1] = float32(clamp(s.right[i]))
	}
}

// Finished reports whether the last Process call ran past the end of a
// non-looping track.
func (s *FrameSink) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

type streamReader struct {
	sink *FrameSink
	buf  []float32
}

func (r *streamReader) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.sink.Process(r.buf)
	for i := 0; i < need; i++ {
		u := math.Float32bits(r.buf[i])
		binary.LittleEndian.PutUint32(p[i*4:], u)
	}
	n := frames * 8
	if r.sink.Finished() {
		return n, io.EOF
	}
	return n, nil
}

func (r *streamReader) Close() error { return nil }

// Player drives ebiten's streaming playback over a FrameSink.
type Player struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

var (
	contextOnce sync.Once
	context     *ebitaudio.Context
	contextRate int
)

func sharedContext(sampleRate int) (*ebitaudio.Context, error) {
	contextOnce.Do(func() {
		contextRate = sampleRate
		context = ebitaudio.NewContext(sampleRate)
	})
	if contextRate != sampleRate {
		return nil, fmt.Errorf("audiodriver: context already initialized at %d Hz (requested %d Hz)", contextRate, sampleRate)
	}
	return context, nil
}

// NewPlayer opens a Player streaming sink's rendered output at sampleRate.
func NewPlayer(sampleRate int, sink *FrameSink) (*Player, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := &streamReader{sink: sink}
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Player{player: pl, reader: reader}, nil
}

func (p *Player) Play()            { p.player.Play() }
func (p *Player) Pause()           { p.player.Pause() }
func (p *Player) IsPlaying() bool  { return p.player.IsPlaying() }
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

func (p *Player) Stop() error {
	p.player.Pause()
	p.player.Close()
	return p.reader.Close()
}
