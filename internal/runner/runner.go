package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/vk/sequenceengine/internal/ctxlog"
	"github.com/vk/sequenceengine/internal/execnode"
	"github.com/vk/sequenceengine/internal/funcreg"
	"github.com/vk/sequenceengine/internal/graph"
	"github.com/vk/sequenceengine/internal/metrics"
	"github.com/vk/sequenceengine/internal/scheduler"
	"github.com/vk/sequenceengine/internal/vars"
	"github.com/zclconf/go-cty/cty"
)

// Status and RunOutcome re-export the scheduler's terminal-state vocabulary
// so callers never need to import internal/scheduler directly.
type Status = scheduler.Status

const (
	StatusCompleted  = scheduler.StatusCompleted
	StatusTestFailed = scheduler.StatusTestFailed
	StatusError      = scheduler.StatusError
)

type RunOutcome = scheduler.Outcome

// Options configures a Runner (§4.9: "worker-pool size, default node
// timeout, log sink").
type Options struct {
	Workers        int
	DefaultTimeout time.Duration
	// DrainDeadline bounds how long a cancelled run waits for in-flight
	// work to finish before giving up (§5); zero waits indefinitely.
	DrainDeadline time.Duration
	Logger        *slog.Logger
	Metrics       *metrics.Collector
}

// Runner is the public entry point over one validated graph. It is safe to
// call Run or RunAsync more than once; each call starts an independent
// scheduler over a fresh variable store.
type Runner struct {
	graph     *graph.Graph
	functions funcreg.FunctionGrabber
	wrappers  funcreg.WrapperGrabber
	constants map[string]cty.Value
	opts      Options
}

// New assembles a Runner. g must come from graph.Build; New does not
// re-validate it. Extra constants, if any, are merged over the graph's own
// constants and win on key collision.
func New(g *graph.Graph, functions funcreg.FunctionGrabber, wrappers funcreg.WrapperGrabber, extraConstants map[string]cty.Value, opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	merged := make(map[string]cty.Value, len(g.Constants())+len(extraConstants))
	for k, v := range g.Constants() {
		merged[k] = v
	}
	for k, v := range extraConstants {
		merged[k] = v
	}
	return &Runner{graph: g, functions: functions, wrappers: wrappers, constants: merged, opts: opts}
}

// Run executes the graph to completion and blocks until termination.
func (r *Runner) Run(ctx context.Context) RunOutcome {
	ctx = ctxlog.WithLogger(ctx, r.opts.Logger)
	store := vars.New(r.constants, vars.LoggerValue(r.opts.Logger))
	exec := &execnode.FunctionExecutor{Functions: r.functions, Wrappers: r.wrappers}
	sched := scheduler.New(r.graph, store, exec, scheduler.Options{
		Workers:        r.opts.Workers,
		DefaultTimeout: r.opts.DefaultTimeout,
		DrainDeadline:  r.opts.DrainDeadline,
		Metrics:        r.opts.Metrics,
	})
	return sched.Run(ctx)
}

// Handle is returned by RunAsync; it lets a caller wait for or cancel a
// run already in progress.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	result RunOutcome
}

// Wait blocks until the run terminates and returns its outcome.
func (h *Handle) Wait() RunOutcome {
	<-h.done
	return h.result
}

// Cancel requests best-effort cancellation of the in-progress run (§5).
func (h *Handle) Cancel() {
	h.cancel()
}

// Running reports whether the run is still in progress; callers that need
// the terminal Status value should use Wait.
func (h *Handle) Running() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// RunAsync starts the run on a background goroutine and returns
// immediately with a Handle.
func (r *Runner) RunAsync(ctx context.Context) *Handle {
	runCtx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		h.result = r.Run(runCtx)
	}()
	return h
}
