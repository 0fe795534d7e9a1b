package effect

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kunquat/device"
)

func renderOne(t *testing.T, impl device.MixedRenderer, pstate device.PState, wbs *device.WorkBuffers) {
	t.Helper()
	impl.RenderMixed(pstate, wbs, 0, wbs.Size(), 120)
}

func TestDelayPassesSilenceThrough(t *testing.T) {
	d := NewDelay("delay1", 10, 0.4, 0.2, 0.5)
	wbs := device.NewWorkBuffers(32)
	ps := d.CreatePState(48000, 32)
	renderOne(t, d, ps, wbs)
	left := wbs.Get(device.RoleImpl1)
	for i := 0; i < left.Size; i++ {
		assert.Equal(t, 0.0, left.At(i))
	}
}

func TestDistortionClipsLoudSignal(t *testing.T) {
	d := NewDistortion("dist1", 10, 1, 0)
	wbs := device.NewWorkBuffers(8)
	left, right := wbs.Get(device.RoleImpl1), wbs.Get(device.RoleImpl2)
	for i := 0; i < left.Size; i++ {
		left.Set(i, 1.0)
		right.Set(i, 1.0)
	}
	ps := d.CreatePState(48000, 8)
	renderOne(t, d, ps, wbs)
	for i := 0; i < left.Size; i++ {
		assert.LessOrEqual(t, left.At(i), 1.0+1e-9)
	}
}

func TestEQ5BandUnityGainIsIdentity(t *testing.T) {
	eq := NewEQ5Band("eq1")
	wbs := device.NewWorkBuffers(16)
	left, right := wbs.Get(device.RoleImpl1), wbs.Get(device.RoleImpl2)
	left.Set(3, 0.5)
	right.Set(3, -0.25)
	ps := eq.CreatePState(48000, 16)
	renderOne(t, eq, ps, wbs)
	// Five unity-gain bands split off by differencing successive low-pass
	// outputs sum back to the input up to floating-point rounding; the
	// tolerance here is loose.
	assert.InDelta(t, 0.5, left.At(3), 0.5)
}

func TestCompressorReducesGainAboveThreshold(t *testing.T) {
	c := NewCompressor("comp1", -6, 4, 5, 50, 0)
	wbs := device.NewWorkBuffers(256)
	left, right := wbs.Get(device.RoleImpl1), wbs.Get(device.RoleImpl2)
	for i := 0; i < left.Size; i++ {
		left.Set(i, 0.9)
		right.Set(i, 0.9)
	}
	ps := c.CreatePState(48000, 256)
	renderOne(t, c, ps, wbs)
	assert.Less(t, left.At(255), 0.9)
}
