package hclseq

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/sequenceengine/internal/exprlang"
	"github.com/vk/sequenceengine/internal/graph"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/sync/errgroup"
)

// fileExtension is the suffix a sequence file must carry to be discovered
// under a directory path.
const fileExtension = ".seq.hcl"

// Reader is the concrete graph.SequenceSource producer: it discovers
// sequence files under a path, parses them concurrently, and merges the
// results into one SequenceSource for graph.Build.
type Reader struct{}

// New returns a ready-to-use Reader. Reader carries no state; a single
// value may be reused for many ReadPath calls.
func New() *Reader { return &Reader{} }

type parsedFile struct {
	nodes       []graph.Node
	transitions []graph.Transition
	constants   map[string]cty.Value
}

// ReadPath discovers and parses every sequence file under path (a single
// file or a directory tree) and returns the merged, still-unvalidated
// SequenceSource. Structural validation happens later, in graph.Build.
func (r *Reader) ReadPath(ctx context.Context, path string) (graph.SequenceSource, error) {
	files, err := discoverFiles(path)
	if err != nil {
		return nil, fmt.Errorf("hclseq: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("hclseq: no %s files found under %s", fileExtension, path)
	}

	results := make([]parsedFile, len(files))
	eg, _ := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		eg.Go(func() error {
			root, src, err := parseFile(f)
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			nodes, transitions, constants, err := convertFile(root, src)
			if err != nil {
				return fmt.Errorf("%s: %w", f, err)
			}
			results[i] = parsedFile{nodes: nodes, transitions: transitions, constants: constants}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var allNodes []graph.Node
	var allTransitions []graph.Transition
	allConstants := make(map[string]cty.Value)
	for _, p := range results {
		allNodes = append(allNodes, p.nodes...)
		allTransitions = append(allTransitions, p.transitions...)
		for name, val := range p.constants {
			if _, exists := allConstants[name]; exists {
				return nil, fmt.Errorf("hclseq: constant %q declared more than once", name)
			}
			allConstants[name] = val
		}
	}
	return graph.NewSource(allNodes, allTransitions, allConstants), nil
}

// discoverFiles mirrors the teacher's fsutil.FindFilesByExtension, extended
// to accept a single file path directly.
func discoverFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), fileExtension) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func parseFile(path string) (*fileRoot, []byte, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, nil, diags
	}
	var root fileRoot
	if diags := gohcl.DecodeBody(f.Body, nil, &root); diags.HasErrors() {
		return nil, nil, diags
	}
	return &root, f.Bytes, nil
}

// exprText recovers an attribute's original source text instead of
// evaluating it, since every expression is evaluated later by
// internal/exprlang against the run's own environment (§4.1). A nil
// expression (an absent optional attribute) yields the empty string.
func exprText(expr hcl.Expression, src []byte) string {
	if expr == nil {
		return ""
	}
	return string(expr.Range().SliceBytes(src))
}

func toTransitions(sourceID int, blocks []*transitionBlock, src []byte) []graph.Transition {
	out := make([]graph.Transition, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, graph.Transition{SourceID: sourceID, TargetID: b.To, Condition: exprText(b.When, src)})
	}
	return out
}

func argsFromBlocks(blocks []*argumentsBlock, src []byte) (map[string]string, error) {
	if len(blocks) == 0 {
		return nil, nil
	}
	if len(blocks) > 1 {
		return nil, fmt.Errorf("only one arguments block is allowed")
	}
	attrs, diags := blocks[0].Remain.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	out := make(map[string]string, len(attrs))
	for name, attr := range attrs {
		out[name] = exprText(attr.Expr, src)
	}
	return out, nil
}

func wrapperRefs(blocks []*wrapperBlock, src []byte) ([]graph.WrapperRef, error) {
	out := make([]graph.WrapperRef, 0, len(blocks))
	for _, w := range blocks {
		args, err := argsFromBlocks(w.Arguments, src)
		if err != nil {
			return nil, fmt.Errorf("wrapper %q: %w", w.Name, err)
		}
		out = append(out, graph.WrapperRef{Name: w.Name, Arguments: args})
	}
	return out, nil
}

func parseNodeID(label string) (int, error) {
	id, err := strconv.Atoi(label)
	if err != nil {
		return 0, fmt.Errorf("node id %q must be an integer: %w", label, err)
	}
	return id, nil
}

func convertConstants(blocks []*constantsBlock, src []byte) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value)
	for _, c := range blocks {
		attrs, diags := c.Remain.JustAttributes()
		if diags.HasErrors() {
			return nil, diags
		}
		for name, attr := range attrs {
			val, evalErr := exprlang.Evaluate(exprText(attr.Expr, src), exprlang.NewEnv(nil))
			if evalErr != nil {
				return nil, fmt.Errorf("constant %q: %w", name, evalErr)
			}
			out[name] = val
		}
	}
	return out, nil
}

func convertFile(root *fileRoot, src []byte) ([]graph.Node, []graph.Transition, map[string]cty.Value, error) {
	constants, err := convertConstants(root.Constants, src)
	if err != nil {
		return nil, nil, nil, err
	}

	var nodes []graph.Node
	var transitions []graph.Transition

	for _, b := range root.Starts {
		id, err := parseNodeID(b.ID)
		if err != nil {
			return nil, nil, nil, err
		}
		nodes = append(nodes, graph.Node{ID: id, Kind: graph.Start, Name: b.ID})
		transitions = append(transitions, toTransitions(id, b.Transitions, src)...)
	}

	for _, b := range root.Stops {
		id, err := parseNodeID(b.ID)
		if err != nil {
			return nil, nil, nil, err
		}
		nodes = append(nodes, graph.Node{ID: id, Kind: graph.Stop, Name: b.ID})
	}

	for _, b := range root.Functions {
		id, err := parseNodeID(b.ID)
		if err != nil {
			return nil, nil, nil, err
		}
		var timeout time.Duration
		if b.Timeout != "" {
			timeout, err = time.ParseDuration(b.Timeout)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("function %s: invalid timeout %q: %w", b.ID, b.Timeout, err)
			}
		}
		args, err := argsFromBlocks(b.Arguments, src)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("function %s: %w", b.ID, err)
		}
		wrappers, err := wrapperRefs(b.Wrappers, src)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("function %s: %w", b.ID, err)
		}
		nodes = append(nodes, graph.Node{
			ID:           id,
			Kind:         graph.Function,
			Name:         b.ID,
			FunctionName: b.Function,
			Arguments:    args,
			Wrappers:     wrappers,
			Timeout:      timeout,
			Return:       b.Return,
			IsTest:       b.IsTest,
		})
		transitions = append(transitions, toTransitions(id, b.Transitions, src)...)
	}

	for _, b := range root.Variables {
		id, err := parseNodeID(b.ID)
		if err != nil {
			return nil, nil, nil, err
		}
		assignments := make([]graph.Assignment, 0, len(b.Assignments))
		for _, a := range b.Assignments {
			assignments = append(assignments, graph.Assignment{Name: a.Name, Expr: exprText(a.Expr, src)})
		}
		nodes = append(nodes, graph.Node{ID: id, Kind: graph.Variable, Name: b.ID, Assignments: assignments})
		transitions = append(transitions, toTransitions(id, b.Transitions, src)...)
	}

	for _, b := range root.ParallelSplits {
		id, err := parseNodeID(b.ID)
		if err != nil {
			return nil, nil, nil, err
		}
		nodes = append(nodes, graph.Node{ID: id, Kind: graph.ParallelSplit, Name: b.ID})
		transitions = append(transitions, toTransitions(id, b.Transitions, src)...)
	}

	for _, b := range root.ParallelSyncs {
		id, err := parseNodeID(b.ID)
		if err != nil {
			return nil, nil, nil, err
		}
		nodes = append(nodes, graph.Node{ID: id, Kind: graph.ParallelSync, Name: b.ID})
		transitions = append(transitions, toTransitions(id, b.Transitions, src)...)
	}

	return nodes, transitions, constants, nil
}
