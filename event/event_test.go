package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByNameRoundTripsEveryTableEntry(t *testing.T) {
	for typ, inf := range table {
		got, ok := ByName(inf.name)
		assert.True(t, ok, "name %q should resolve", inf.name)
		assert.Equal(t, typ, got)
		assert.Equal(t, inf.band, typ.Band())
		assert.Equal(t, inf.arg, typ.ArgKind())
	}
}

func TestByNameUnknownReturnsFalse(t *testing.T) {
	_, ok := ByName("not-a-real-event")
	assert.False(t, ok)
}

func TestValidateRejectsMismatchedKind(t *testing.T) {
	assert.True(t, TypeNoteOn.Validate(FloatArg(0)))
	assert.False(t, TypeNoteOn.Validate(IntArg(0)))
	assert.False(t, TypeNoteOn.Validate(None))
}

func TestValidateAcceptsAnyNonNoneForRealtime(t *testing.T) {
	assert.True(t, TypeEnvSetVar.Validate(BoolArg(true)))
	assert.True(t, TypeEnvSetVar.Validate(IntArg(1)))
	assert.False(t, TypeEnvSetVar.Validate(None))
}

func TestUnknownTypeReportsGeneralBandAndEmptyName(t *testing.T) {
	unknown := Type(10000)
	assert.Equal(t, BandGeneral, unknown.Band())
	assert.Equal(t, "", unknown.Name())
}

func TestArgStringFormatsEachKind(t *testing.T) {
	assert.Equal(t, "<none>", None.String())
	assert.Equal(t, "true", BoolArg(true).String())
	assert.Equal(t, "42", IntArg(42).String())
	assert.Equal(t, "[3,500]", TstampArg(3, 500).String())
	assert.Equal(t, "hello", StringArg("hello").String())
}

func TestBandStringNames(t *testing.T) {
	assert.Equal(t, "channel", BandChannel.String())
	assert.Equal(t, "unknown", Band(99).String())
}
