package graph

import (
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// SequenceSource is what a SequenceReader hands the engine: the fully
// parsed contents of a sequence file, still keyed by the reader's own node
// ids. Build performs the §3 invariant checks and freezes the result into
// a Graph; the engine never talks to a SequenceSource again afterward.
type SequenceSource interface {
	Nodes() []Node
	Transitions() []Transition
	Constants() map[string]cty.Value
}

// staticSource is the trivial in-memory SequenceSource, useful for tests
// and for callers that already hold Node/Transition values.
type staticSource struct {
	nodes       []Node
	transitions []Transition
	constants   map[string]cty.Value
}

func (s staticSource) Nodes() []Node                   { return s.nodes }
func (s staticSource) Transitions() []Transition       { return s.transitions }
func (s staticSource) Constants() map[string]cty.Value { return s.constants }

// NewSource wraps literal nodes, transitions and constants into a
// SequenceSource, for callers that build a graph without a file-backed
// reader (tests, embedded sequences).
func NewSource(nodes []Node, transitions []Transition, constants map[string]cty.Value) SequenceSource {
	return staticSource{nodes: nodes, transitions: transitions, constants: constants}
}

// Build validates a SequenceSource against §3's graph invariants and
// freezes it into an immutable Graph.
func Build(src SequenceSource) (*Graph, error) {
	g := &Graph{
		nodes:        make(map[int]*Node),
		outgoing:     make(map[int][]*Transition),
		syncExpected: make(map[int]map[int]struct{}),
		constants:    src.Constants(),
	}
	if g.constants == nil {
		g.constants = make(map[string]cty.Value)
	}

	for _, n := range src.Nodes() {
		n := n
		if _, exists := g.nodes[n.ID]; exists {
			return nil, fmt.Errorf("graph: duplicate node id %d", n.ID)
		}
		g.nodes[n.ID] = &n
		if n.Kind == Start {
			g.starts = append(g.starts, n.ID)
		}
	}
	sort.Ints(g.starts)

	incomingToStart := make(map[int]bool)
	for _, t := range src.Transitions() {
		t := t
		if _, ok := g.nodes[t.SourceID]; !ok {
			return nil, fmt.Errorf("graph: transition source %d does not resolve to a node", t.SourceID)
		}
		target, ok := g.nodes[t.TargetID]
		if !ok {
			return nil, fmt.Errorf("graph: transition target %d does not resolve to a node", t.TargetID)
		}
		if target.Kind == Start {
			incomingToStart[t.TargetID] = true
		}
		g.outgoing[t.SourceID] = append(g.outgoing[t.SourceID], &t)
		if target.Kind == ParallelSync {
			set, ok := g.syncExpected[t.TargetID]
			if !ok {
				set = make(map[int]struct{})
				g.syncExpected[t.TargetID] = set
			}
			set[t.SourceID] = struct{}{}
		}
	}

	if len(g.starts) == 0 {
		return nil, fmt.Errorf("graph: at least one start node is required")
	}
	hasStop := false
	for _, n := range g.nodes {
		if n.Kind == Stop {
			hasStop = true
		}
		if n.Kind != Stop && len(g.outgoing[n.ID]) == 0 {
			return nil, fmt.Errorf("graph: node %d (%s) has no outgoing transitions", n.ID, n.Kind)
		}
	}
	if !hasStop {
		return nil, fmt.Errorf("graph: at least one stop node is required")
	}
	for id := range incomingToStart {
		return nil, fmt.Errorf("graph: start node %d has an incoming transition", id)
	}

	return g, nil
}
