package thread

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunExecutesEveryUnit(t *testing.T) {
	var count int64
	units := make([]Unit, 8)
	for i := range units {
		units[i] = Unit{GroupID: uint64(i), Render: func() { atomic.AddInt64(&count, 1) }}
	}

	p := New(4)
	err := p.Run(context.Background(), units)

	assert.NoError(t, err)
	assert.Equal(t, int64(8), count)
}

func TestRunWritesToDisjointBuffers(t *testing.T) {
	const groups = 6
	bufs := make([][]float64, groups)
	units := make([]Unit, groups)
	for i := range units {
		i := i
		bufs[i] = make([]float64, 16)
		units[i] = Unit{GroupID: uint64(i), Render: func() {
			for j := range bufs[i] {
				bufs[i][j] = float64(i + 1)
			}
		}}
	}

	p := New(3)
	require := assert.New(t)
	require.NoError(p.Run(context.Background(), units))

	for i, buf := range bufs {
		for _, v := range buf {
			require.Equal(float64(i+1), v)
		}
	}
}

func TestRunStopsStartingNewUnitsAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var count int64
	units := make([]Unit, 100)
	for i := range units {
		units[i] = Unit{Render: func() {
			atomic.AddInt64(&count, 1)
			time.Sleep(time.Millisecond)
		}}
	}

	p := New(2)
	err := p.Run(ctx, units)

	assert.Error(t, err)
	assert.Less(t, count, int64(100))
}

func TestRunWithNoUnitsReturnsImmediately(t *testing.T) {
	p := New(4)
	assert.NoError(t, p.Run(context.Background(), nil))
}
