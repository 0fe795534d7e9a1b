package devicegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNode struct{ id string }

func (s stubNode) ID() string { return s.id }

func TestTopoOrderRespectsEdges(t *testing.T) {
	g := NewGraph()
	g.AddNode(stubNode{"osc"})
	g.AddNode(stubNode{"filter"})
	g.AddNode(stubNode{"reverb"})
	g.Connect("osc", "filter")
	g.Connect("filter", "reverb")

	order, err := g.TopoOrder()
	require.NoError(t, err)
	pos := map[string]int{}
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos["osc"], pos["filter"])
	assert.Less(t, pos["filter"], pos["reverb"])
}

func TestTopoOrderDetectsCycle(t *testing.T) {
	g := NewGraph()
	g.AddNode(stubNode{"a"})
	g.AddNode(stubNode{"b"})
	g.Connect("a", "b")
	g.Connect("b", "a")

	_, err := g.TopoOrder()
	assert.Error(t, err)
}
