package additive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kunquat/device"
)

func TestRenderVoiceProducesNonSilentAttack(t *testing.T) {
	impl := New("osc1")
	pstate := impl.CreatePState(48000, 64)

	var vstate VState
	impl.InitVState(&vstate, pstate)
	vstate.Freq = 440

	out := make([]float64, 64)
	released := impl.RenderVoice(&vstate, pstate, &out, nil, 0, 64, 120)

	assert.Equal(t, -1, released, "still in attack/decay, no release boundary yet")
	nonZero := false
	for _, s := range out {
		if s != 0 {
			nonZero = true
			break
		}
	}
	assert.True(t, nonZero)
}

func TestRenderVoiceReleaseReportsBoundary(t *testing.T) {
	impl := New("osc1")
	pstate := impl.CreatePState(48000, 64)
	p := pstate.(*PState)
	p.ReleaseSec = 0.0001 // force release to complete within the test buffer

	var vstate VState
	impl.InitVState(&vstate, pstate)
	vstate.Freq = 440
	vstate.Stage = stageSustain
	vstate.Env = p.SustainLvl
	vstate.Released = true

	out := make([]float64, 64)
	released := impl.RenderVoice(&vstate, pstate, &out, nil, 0, 64, 120)

	assert.GreaterOrEqual(t, released, 0)
	assert.Equal(t, stageOff, vstate.Stage)
}

func TestImplSatisfiesCapabilityInterfaces(t *testing.T) {
	impl := New("osc1")
	var _ device.PStateCreator = impl
	var _ device.VStateSizer = impl
	var _ device.VStateInitializer = impl
	var _ device.VoiceRenderer = impl
	var _ device.VStateAllocator = impl
	var _ device.VoiceFreqSetter = impl

	require.Equal(t, "osc1", impl.ID())
}
