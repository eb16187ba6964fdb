package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/vk/sequenceengine/internal/ctxlog"
	"github.com/vk/sequenceengine/internal/execnode"
	"github.com/vk/sequenceengine/internal/exprlang"
	"github.com/vk/sequenceengine/internal/graph"
	"github.com/vk/sequenceengine/internal/metrics"
	"github.com/vk/sequenceengine/internal/result"
	"github.com/vk/sequenceengine/internal/token"
	"github.com/vk/sequenceengine/internal/vars"
	"github.com/zclconf/go-cty/cty"
)

// defaultWorkers mirrors the teacher's CLI default worker-pool size.
const defaultWorkers = 10

// Status is the terminal state of one run (§4.9, §7).
type Status int

const (
	StatusCompleted Status = iota
	StatusTestFailed
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusTestFailed:
		return "test_failed"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the terminal report of a run.
type Outcome struct {
	Status      Status
	FailedTests []result.Result
	Fatal       *result.ErrInfo
}

// Options configures a Scheduler.
type Options struct {
	Workers int
	// DefaultTimeout applies to Function nodes that declare no timeout of
	// their own; zero means "no timeout" (§4.9's "default node timeout").
	DefaultTimeout time.Duration
	// DrainDeadline bounds how long Run waits, after a fatal error has
	// cancelled runCtx, for in-flight Function nodes to notice cancellation
	// and complete (§5: "coordinator waits for drain with a configurable
	// hard-kill deadline"). A user function or wrapper is free to ignore
	// ctx.Done(), so this bounds an otherwise-unbounded wait. Zero means
	// wait indefinitely.
	DrainDeadline time.Duration
	Metrics       *metrics.Collector
}

// Scheduler runs a validated graph to completion. All scheduling state
// below belongs exclusively to the goroutine that calls Run; nothing here
// is safe to touch concurrently from outside (§5).
type Scheduler struct {
	graph *graph.Graph
	store *vars.Store
	exec  *execnode.FunctionExecutor
	opts  Options
}

// New builds a Scheduler over an already-validated graph.
func New(g *graph.Graph, store *vars.Store, exec *execnode.FunctionExecutor, opts Options) *Scheduler {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Scheduler{graph: g, store: store, exec: exec, opts: opts}
}

type completion struct {
	tok     token.Token
	node    *graph.Node
	outcome execnode.Outcome
}

// syncArrivals tracks, per ParallelSync node and per color, the set of
// source node ids that have delivered a token under that color (§4.7).
type syncArrivals map[int]map[token.Color]map[int]struct{}

func (s syncArrivals) record(syncID int, color token.Color, from int) map[int]struct{} {
	byColor, ok := s[syncID]
	if !ok {
		byColor = make(map[token.Color]map[int]struct{})
		s[syncID] = byColor
	}
	arrived, ok := byColor[color]
	if !ok {
		arrived = make(map[int]struct{})
		byColor[color] = arrived
	}
	arrived[from] = struct{}{}
	return arrived
}

func (s syncArrivals) clear(syncID int, color token.Color) {
	delete(s[syncID], color)
}

func setEquals(got, want map[int]struct{}) bool {
	if len(got) != len(want) {
		return false
	}
	for id := range want {
		if _, ok := got[id]; !ok {
			return false
		}
	}
	return true
}

// Run seeds one token per Start node and drives the ready-queue/worker-pool
// loop of §4.8 to termination.
func (s *Scheduler) Run(ctx context.Context) Outcome {
	logger := ctxlog.FromContext(ctx)
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, s.opts.Workers)
	completions := make(chan completion, s.opts.Workers)

	var ready []token.Token
	inFlight := 0
	arrivals := syncArrivals{}
	failed := false
	var fatal *result.ErrInfo
	var failedTests []result.Result
	var drainDeadline <-chan time.Time

	abort := func(info *result.ErrInfo) {
		if fatal == nil {
			fatal = info
			cancel()
			if s.opts.DrainDeadline > 0 {
				drainDeadline = time.After(s.opts.DrainDeadline)
			}
		}
	}

	for _, id := range s.graph.StartNodes() {
		ready = append(ready, token.New(id, -1, token.RootColor, nil))
		s.opts.Metrics.TokenCreated()
	}

	fireTransitions := func(tok token.Token, node *graph.Node) {
		if node.Kind == graph.Stop {
			s.opts.Metrics.TokenConsumed()
			return
		}
		env := s.store.Snapshot()
		for _, tr := range s.graph.Outgoing(node.ID) {
			ok, evalErr := exprlang.EvalBool(tr.Condition, env)
			if evalErr != nil {
				abort(&result.ErrInfo{Name: "EvalError", Args: map[string]cty.Value{
					"node": cty.NumberIntVal(int64(node.ID)), "error": cty.StringVal(evalErr.Error()),
				}})
				return
			}
			if ok {
				ready = append(ready, token.New(tr.TargetID, node.ID, tok.Color, tok.Enclosing))
				s.opts.Metrics.TokenCreated()
				return
			}
		}
		abort(&result.ErrInfo{Name: "NoTransitionFired", Args: map[string]cty.Value{
			"node": cty.NumberIntVal(int64(node.ID)),
		}})
	}

	fireSplit := func(tok token.Token, node *graph.Node) {
		env := s.store.Snapshot()
		newColor := token.NewColor()
		enclosing := tok.Push()
		for _, tr := range s.graph.Outgoing(node.ID) {
			ok, evalErr := exprlang.EvalBool(tr.Condition, env)
			if evalErr != nil {
				abort(&result.ErrInfo{Name: "EvalError", Args: map[string]cty.Value{
					"node": cty.NumberIntVal(int64(node.ID)), "error": cty.StringVal(evalErr.Error()),
				}})
				return
			}
			if ok {
				ready = append(ready, token.New(tr.TargetID, node.ID, newColor, enclosing))
				s.opts.Metrics.TokenCreated()
			}
		}
	}

	handleSync := func(tok token.Token, node *graph.Node) {
		arrived := arrivals.record(node.ID, tok.Color, tok.From)
		expected := s.graph.ExpectedArrivals(node.ID)
		if !setEquals(arrived, expected) {
			return
		}
		arrivals.clear(node.ID, tok.Color)
		s.opts.Metrics.SyncFired()
		restoredColor, remaining := tok.Pop()
		syncTok := token.New(node.ID, tok.From, restoredColor, remaining)
		fireTransitions(syncTok, node)
	}

	handleCompletion := func(c completion) {
		s.store.SetResult(c.node.ID, c.outcome.Result)
		outcomeLabel := "ok"
		if c.outcome.Result.Exception != nil && !c.outcome.Result.Exception.IsZero() {
			outcomeLabel = "exception"
		}
		s.opts.Metrics.NodeExecuted(c.node.Kind.String(), outcomeLabel)

		if c.outcome.HasReturn {
			if err := s.store.SetOnTheFly(c.node.Return, c.outcome.ReturnValue); err != nil {
				abort(&result.ErrInfo{Name: "ProtectedWrite", Args: map[string]cty.Value{
					"node": cty.NumberIntVal(int64(c.node.ID)), "error": cty.StringVal(err.Error()),
				}})
				return
			}
		}
		if c.outcome.FailsRun {
			failed = true
			failedTests = append(failedTests, c.outcome.Result)
			logger.Error("test node failed", "node", c.node.ID)
		}
		fireTransitions(c.tok, c.node)
	}

	for len(ready) > 0 || inFlight > 0 {
		if len(ready) == 0 {
			if fatal != nil {
				// A fatal error is already latched and runCtx is already
				// cancelled, so a select on runCtx.Done() here would never
				// block; drain the remaining in-flight work off completions
				// alone instead of busy-spinning, giving up once
				// drainDeadline elapses if one was set.
				if drainDeadline == nil {
					c := <-completions
					inFlight--
					handleCompletion(c)
					continue
				}
				select {
				case c := <-completions:
					inFlight--
					handleCompletion(c)
				case <-drainDeadline:
					logger.Error("drain deadline exceeded, abandoning in-flight nodes", "in_flight", inFlight)
					return Outcome{Status: StatusError, FailedTests: failedTests, Fatal: fatal}
				}
				continue
			}
			select {
			case c := <-completions:
				inFlight--
				handleCompletion(c)
			case <-runCtx.Done():
				abort(&result.ErrInfo{Name: "Cancelled", Args: map[string]cty.Value{"error": cty.StringVal(runCtx.Err().Error())}})
			}
			continue
		}

		select {
		case c := <-completions:
			inFlight--
			handleCompletion(c)
			continue
		default:
		}

		if fatal != nil {
			ready = nil
			continue
		}

		tok := ready[0]
		ready = ready[1:]
		node, ok := s.graph.Node(tok.NodeID)
		if !ok {
			abort(&result.ErrInfo{Name: "LoadError", Args: map[string]cty.Value{"node": cty.NumberIntVal(int64(tok.NodeID))}})
			continue
		}

		switch node.Kind {
		case graph.Start:
			fireTransitions(tok, node)
		case graph.Stop:
			s.opts.Metrics.TokenConsumed()
		case graph.Variable:
			if err := execnode.RunVariable(node, s.store); err != nil {
				name := "EvalError"
				if errors.Is(err, vars.ErrProtectedWrite) {
					name = "ProtectedWrite"
				}
				abort(&result.ErrInfo{Name: name, Args: map[string]cty.Value{
					"node": cty.NumberIntVal(int64(node.ID)), "error": cty.StringVal(err.Error()),
				}})
				continue
			}
			fireTransitions(tok, node)
		case graph.ParallelSplit:
			fireSplit(tok, node)
		case graph.ParallelSync:
			handleSync(tok, node)
		case graph.Function:
			execNode := node
			if node.Timeout == 0 && s.opts.DefaultTimeout > 0 {
				withDefault := *node
				withDefault.Timeout = s.opts.DefaultTimeout
				execNode = &withDefault
			}
			inFlight++
			sem <- struct{}{}
			go func(tok token.Token, node *graph.Node) {
				defer func() { <-sem }()
				env := s.store.Snapshot()
				outcome := s.exec.Execute(runCtx, node, env)
				completions <- completion{tok: tok, node: node, outcome: outcome}
			}(tok, execNode)
		}
	}

	status := StatusCompleted
	switch {
	case fatal != nil:
		status = StatusError
	case failed:
		status = StatusTestFailed
	}
	return Outcome{Status: status, FailedTests: failedTests, Fatal: fatal}
}
