package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardSamplesAreAddressableAndIndependentOfUsableRange(t *testing.T) {
	b := NewBuffer(4)
	b.Set(-1, 1.5)
	b.Set(0, 2.5)
	b.Set(3, 3.5)
	b.Set(4, 4.5)

	assert.Equal(t, 1.5, b.At(-1))
	assert.Equal(t, 2.5, b.At(0))
	assert.Equal(t, 3.5, b.At(3))
	assert.Equal(t, 4.5, b.At(4))
}

func TestClearZeroesUsableRangeOnly(t *testing.T) {
	b := NewBuffer(4)
	b.Set(-1, 9)
	b.Set(0, 9)
	b.Set(4, 9)

	b.Clear()

	assert.Equal(t, 9.0, b.At(-1), "guard samples are left untouched")
	assert.Equal(t, 0.0, b.At(0))
	assert.Equal(t, 9.0, b.At(4), "guard samples are left untouched")
}

func TestWorkBuffersGetReturnsEveryRole(t *testing.T) {
	wbs := NewWorkBuffers(8)
	for _, r := range []Role{RolePitchParams, RoleActualPitches, RoleActualForces, RoleImpl1, RoleImpl2, RoleImpl3, RoleTimeEnv} {
		assert.NotNil(t, wbs.Get(r))
	}
	assert.Equal(t, 8, wbs.Size())
}

func TestClearAllZeroesEveryBuffer(t *testing.T) {
	wbs := NewWorkBuffers(4)
	wbs.Get(RoleImpl1).Set(0, 42)
	wbs.ClearAll()
	assert.Equal(t, 0.0, wbs.Get(RoleImpl1).At(0))
}
