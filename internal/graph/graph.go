package graph

import (
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Graph is the validated, read-only control-flow graph the scheduler
// executes. It is only ever constructed by Build; nothing in this package
// mutates one afterward.
type Graph struct {
	nodes        map[int]*Node
	outgoing     map[int][]*Transition
	starts       []int
	syncExpected map[int]map[int]struct{}
	constants    map[string]cty.Value
}

// Node looks up a node by id.
func (g *Graph) Node(id int) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Outgoing returns the transitions declared for a source node id, in
// declared order.
func (g *Graph) Outgoing(id int) []*Transition {
	return g.outgoing[id]
}

// StartNodes returns the ids of every Start node, sorted ascending.
func (g *Graph) StartNodes() []int {
	return g.starts
}

// ExpectedArrivals returns the static set of source node ids that transition
// into the given ParallelSync node, computed once at build time (§4.7).
func (g *Graph) ExpectedArrivals(syncID int) map[int]struct{} {
	return g.syncExpected[syncID]
}

// Constants returns the read-only constants established at load time.
func (g *Graph) Constants() map[string]cty.Value {
	return g.constants
}

// NodeCount returns the number of nodes in the graph, mainly for logging.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// NodeIDs returns every node id in the graph, sorted, for callers that
// need to walk the whole graph (introspection, serialization).
func (g *Graph) NodeIDs() []int {
	ids := make([]int, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
