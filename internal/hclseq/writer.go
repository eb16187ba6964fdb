package hclseq

import (
	"fmt"
	"io"
	"sort"

	"github.com/vk/sequenceengine/internal/graph"
	"github.com/zclconf/go-cty/cty"
)

// Write serializes a built Graph back into the block shapes schema.go
// decodes: one block per node, in the same `start`/`stop`/`function`/
// `variable`/`parallel_split`/`parallel_sync` vocabulary, plus a leading
// `constants` block. It supports §8's testable round-trip property (load,
// build, write, reload yields an identical graph); the engine itself
// never calls it, since nothing in the run path needs to persist a graph
// it already holds in memory.
func Write(g *graph.Graph, w io.Writer) error {
	if err := writeConstants(g, w); err != nil {
		return err
	}
	for _, id := range g.NodeIDs() {
		node, _ := g.Node(id)
		if err := writeNode(w, node, g.Outgoing(id)); err != nil {
			return fmt.Errorf("hclseq: writing node %d: %w", id, err)
		}
	}
	return nil
}

func nodeLabel(n *graph.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return fmt.Sprintf("%d", n.ID)
}

func writeNode(w io.Writer, n *graph.Node, transitions []*graph.Transition) error {
	switch n.Kind {
	case graph.Start:
		if _, err := fmt.Fprintf(w, "start %q {\n", nodeLabel(n)); err != nil {
			return err
		}
		if err := writeTransitions(w, transitions); err != nil {
			return err
		}
		_, err := fmt.Fprint(w, "}\n\n")
		return err

	case graph.Stop:
		_, err := fmt.Fprintf(w, "stop %q {}\n\n", nodeLabel(n))
		return err

	case graph.Function:
		if _, err := fmt.Fprintf(w, "function %q {\n  function = %q\n", nodeLabel(n), n.FunctionName); err != nil {
			return err
		}
		if n.Timeout > 0 {
			if _, err := fmt.Fprintf(w, "  timeout = %q\n", n.Timeout.String()); err != nil {
				return err
			}
		}
		if n.IsTest {
			if _, err := fmt.Fprint(w, "  is_test = true\n"); err != nil {
				return err
			}
		}
		if n.Return != "" {
			if _, err := fmt.Fprintf(w, "  return = %q\n", n.Return); err != nil {
				return err
			}
		}
		if err := writeArguments(w, n.Arguments); err != nil {
			return err
		}
		for _, wr := range n.Wrappers {
			if _, err := fmt.Fprintf(w, "  wrapper %q {\n", wr.Name); err != nil {
				return err
			}
			if err := writeArguments(w, wr.Arguments); err != nil {
				return err
			}
			if _, err := fmt.Fprint(w, "  }\n"); err != nil {
				return err
			}
		}
		if err := writeTransitions(w, transitions); err != nil {
			return err
		}
		_, err := fmt.Fprint(w, "}\n\n")
		return err

	case graph.Variable:
		if _, err := fmt.Fprintf(w, "variable %q {\n", nodeLabel(n)); err != nil {
			return err
		}
		for _, a := range n.Assignments {
			if _, err := fmt.Fprintf(w, "  assign %q {\n    expr = %s\n  }\n", a.Name, a.Expr); err != nil {
				return err
			}
		}
		if err := writeTransitions(w, transitions); err != nil {
			return err
		}
		_, err := fmt.Fprint(w, "}\n\n")
		return err

	case graph.ParallelSplit:
		if _, err := fmt.Fprintf(w, "parallel_split %q {\n", nodeLabel(n)); err != nil {
			return err
		}
		if err := writeTransitions(w, transitions); err != nil {
			return err
		}
		_, err := fmt.Fprint(w, "}\n\n")
		return err

	case graph.ParallelSync:
		if _, err := fmt.Fprintf(w, "parallel_sync %q {\n", nodeLabel(n)); err != nil {
			return err
		}
		if err := writeTransitions(w, transitions); err != nil {
			return err
		}
		_, err := fmt.Fprint(w, "}\n\n")
		return err

	default:
		return fmt.Errorf("unknown node kind %v", n.Kind)
	}
}

func writeTransitions(w io.Writer, transitions []*graph.Transition) error {
	for _, t := range transitions {
		if t.Condition == "" {
			if _, err := fmt.Fprintf(w, "  transition {\n    to = %d\n  }\n", t.TargetID); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "  transition {\n    to = %d\n    when = %s\n  }\n", t.TargetID, t.Condition); err != nil {
			return err
		}
	}
	return nil
}

func writeArguments(w io.Writer, args map[string]string) error {
	if len(args) == 0 {
		return nil
	}
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	if _, err := fmt.Fprint(w, "  arguments {\n"); err != nil {
		return err
	}
	for _, name := range names {
		if _, err := fmt.Fprintf(w, "    %s = %s\n", name, args[name]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "  }\n")
	return err
}

func writeConstants(g *graph.Graph, w io.Writer) error {
	constants := g.Constants()
	if len(constants) == 0 {
		return nil
	}
	names := make([]string, 0, len(constants))
	for name := range constants {
		names = append(names, name)
	}
	sort.Strings(names)
	if _, err := fmt.Fprint(w, "constants {\n"); err != nil {
		return err
	}
	for _, name := range names {
		text, err := constantExprText(constants[name])
		if err != nil {
			return fmt.Errorf("constant %q: %w", name, err)
		}
		if _, err := fmt.Fprintf(w, "  %s = %s\n", name, text); err != nil {
			return err
		}
	}
	_, err := fmt.Fprint(w, "}\n\n")
	return err
}

// constantExprText renders a constant's already-evaluated value back into
// an HCL literal expression. Only the primitive types constants realistically
// hold (string, number, bool) are supported; anything else is a value this
// writer cannot round-trip and is reported rather than silently truncated.
func constantExprText(v cty.Value) (string, error) {
	if v.IsNull() {
		return "null", nil
	}
	switch v.Type() {
	case cty.String:
		return fmt.Sprintf("%q", v.AsString()), nil
	case cty.Bool:
		if v.True() {
			return "true", nil
		}
		return "false", nil
	case cty.Number:
		return v.AsBigFloat().Text('f', -1), nil
	default:
		return "", fmt.Errorf("unsupported constant type %s", v.Type().FriendlyName())
	}
}
