// Package devicegraph implements the processor connection graph: named
// Device Impl nodes wired by directed edges, walked in topological order
// once per rendered chunk segment.
//
// Adapted from the teacher's MultiEngine, which routed by a flat
// module-number map and summed every engine's output unconditionally. This
// generalizes that into an actual graph with edges, so effects can sit
// downstream of instruments and only run once their inputs are ready,
// matching §4.5's topological device-graph walk.
package devicegraph

import (
	"fmt"

	"kunquat/device"
)

// Graph is a directed acyclic graph of Device Impl nodes.
type Graph struct {
	nodes map[string]device.Impl
	edges map[string][]string // from -> []to
	order []string            // cached topological order, rebuilt on Connect/AddNode
	dirty bool
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]device.Impl),
		edges: make(map[string][]string),
	}
}

// AddNode registers impl under its own ID().
func (g *Graph) AddNode(impl device.Impl) {
	g.nodes[impl.ID()] = impl
	g.dirty = true
}

// Connect adds a directed edge: output of `from` feeds into `to`.
func (g *Graph) Connect(from, to string) {
	g.edges[from] = append(g.edges[from], to)
	g.dirty = true
}

// Node returns the registered Impl for id, if any.
func (g *Graph) Node(id string) (device.Impl, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// TopoOrder returns node IDs in topological order (producers before
// consumers), recomputing and caching it if the graph changed since the
// last call. Returns an error if the graph contains a cycle — the only
// dynamic-reconfiguration-adjacent failure mode the engine surfaces,
// matching §1's "dynamic device-graph reconfiguration is out of scope": a
// cycle can only arise from a setup-time wiring mistake, never mid-chunk.
func (g *Graph) TopoOrder() ([]string, error) {
	if !g.dirty && g.order != nil {
		return g.order, nil
	}

	indegree := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		indegree[id] = 0
	}
	for _, tos := range g.edges {
		for _, to := range tos {
			indegree[to]++
		}
	}

	var ready []string
	for id, d := range indegree {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	sortStrings(ready)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		var newlyReady []string
		for _, to := range g.edges[n] {
			indegree[to]--
			if indegree[to] == 0 {
				newlyReady = append(newlyReady, to)
			}
		}
		sortStrings(newlyReady)
		ready = append(ready, newlyReady...)
		sortStrings(ready)
	}

	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("devicegraph: cycle detected among %d unresolved nodes", len(g.nodes)-len(order))
	}

	g.order = order
	g.dirty = false
	return order, nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// WalkMixed invokes RenderMixed on every node in topological order that
// implements device.MixedRenderer, in chunk-segment order. Nodes that only
// implement VoiceRenderer are driven separately by the voice pool's own
// render step, not here.
func (g *Graph) WalkMixed(states *device.StateCollection, wbs *device.WorkBuffers, bufStart, bufStop int, tempo float64) error {
	order, err := g.TopoOrder()
	if err != nil {
		return err
	}
	for _, id := range order {
		node := g.nodes[id]
		mixer, ok := node.(device.MixedRenderer)
		if !ok {
			continue
		}
		pstate, _ := states.PState(id)
		mixer.RenderMixed(pstate, wbs, bufStart, bufStop, tempo)
	}
	return nil
}
