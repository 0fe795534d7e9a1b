package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeImpl struct {
	id       string
	pstate   PState
	vsize    int
	initArgs []PState
}

func (f *fakeImpl) ID() string                       { return f.id }
func (f *fakeImpl) CreatePState(rate, bufSize int) PState { return f.pstate }
func (f *fakeImpl) GetVStateSize() int               { return f.vsize }

func TestEnsureCreatesPStateOnceAndRecordsVStateSize(t *testing.T) {
	impl := &fakeImpl{id: "dev0", pstate: "state", vsize: 3}
	c := NewStateCollection()

	c.Ensure(impl, 48000, 64)
	p, ok := c.PState("dev0")
	assert.True(t, ok)
	assert.Equal(t, "state", p)
	assert.Equal(t, 3, c.VStateSize("dev0"))

	impl.pstate = "replaced"
	c.Ensure(impl, 48000, 64)
	p, _ = c.PState("dev0")
	assert.Equal(t, "state", p, "Ensure must not recreate an existing PState")
}

func TestPStateMissingDeviceReportsFalse(t *testing.T) {
	c := NewStateCollection()
	_, ok := c.PState("nope")
	assert.False(t, ok)
	assert.Equal(t, 0, c.VStateSize("nope"))
}

type bareImpl struct{ id string }

func (b *bareImpl) ID() string { return b.id }

func TestEnsureToleratesImplWithNoOptionalHooks(t *testing.T) {
	c := NewStateCollection()
	c.Ensure(&bareImpl{id: "bare"}, 48000, 64)
	_, ok := c.PState("bare")
	assert.False(t, ok)
	assert.Equal(t, 0, c.VStateSize("bare"))
}
