package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/sequenceengine/internal/execnode"
	"github.com/vk/sequenceengine/internal/funcreg"
	"github.com/vk/sequenceengine/internal/graph"
	"github.com/vk/sequenceengine/internal/vars"
	"github.com/vk/sequenceengine/internal/wrapper"
	"github.com/zclconf/go-cty/cty"
)

type stubGrabber struct {
	funcs    map[string]funcreg.Function
	wrappers map[string]wrapper.Factory
}

func (s stubGrabber) Lookup(name string) (funcreg.Function, bool) {
	fn, ok := s.funcs[name]
	return fn, ok
}

func (s stubGrabber) LookupWrapper(name string) (wrapper.Factory, bool) {
	f, ok := s.wrappers[name]
	return f, ok
}

func newExec(funcs map[string]funcreg.Function) *execnode.FunctionExecutor {
	g := stubGrabber{funcs: funcs, wrappers: map[string]wrapper.Factory{}}
	return &execnode.FunctionExecutor{Functions: g, Wrappers: g}
}

func TestScheduler_LinearHappyPath(t *testing.T) {
	nodes := []graph.Node{
		{ID: 1, Kind: graph.Start},
		{ID: 2, Kind: graph.Function, FunctionName: "greet", Return: "greeting"},
		{ID: 3, Kind: graph.Stop},
	}
	transitions := []graph.Transition{
		{SourceID: 1, TargetID: 2},
		{SourceID: 2, TargetID: 3},
	}
	g, err := graph.Build(graph.NewSource(nodes, transitions, nil))
	require.NoError(t, err)

	store := vars.New(nil, cty.NilVal)
	exec := newExec(map[string]funcreg.Function{
		"greet": funcreg.FuncFunc(func(ctx context.Context, args map[string]cty.Value) (cty.Value, error) {
			return cty.StringVal("hi"), nil
		}),
	})
	sched := New(g, store, exec, Options{})
	out := sched.Run(context.Background())

	assert.Equal(t, StatusCompleted, out.Status)
	env := store.Snapshot()
	assert.Equal(t, "hi", env.Variables["greeting"].AsString())
}

func TestScheduler_NoTransitionFiredIsFatal(t *testing.T) {
	nodes := []graph.Node{
		{ID: 1, Kind: graph.Start},
		{ID: 2, Kind: graph.Function, FunctionName: "greet"},
		{ID: 3, Kind: graph.Stop},
	}
	transitions := []graph.Transition{
		{SourceID: 1, TargetID: 2},
		{SourceID: 2, TargetID: 3, Condition: "false"},
	}
	g, err := graph.Build(graph.NewSource(nodes, transitions, nil))
	require.NoError(t, err)

	store := vars.New(nil, cty.NilVal)
	exec := newExec(map[string]funcreg.Function{
		"greet": funcreg.FuncFunc(func(ctx context.Context, args map[string]cty.Value) (cty.Value, error) {
			return cty.True, nil
		}),
	})
	out := New(g, store, exec, Options{}).Run(context.Background())

	require.NotNil(t, out.Fatal)
	assert.Equal(t, "NoTransitionFired", out.Fatal.Name)
	assert.Equal(t, StatusError, out.Status)
}

func TestScheduler_IsTestFailureYieldsTestFailedStatus(t *testing.T) {
	nodes := []graph.Node{
		{ID: 1, Kind: graph.Start},
		{ID: 2, Kind: graph.Function, FunctionName: "check", IsTest: true},
		{ID: 3, Kind: graph.Stop},
	}
	transitions := []graph.Transition{
		{SourceID: 1, TargetID: 2},
		{SourceID: 2, TargetID: 3},
	}
	g, err := graph.Build(graph.NewSource(nodes, transitions, nil))
	require.NoError(t, err)

	store := vars.New(nil, cty.NilVal)
	exec := newExec(map[string]funcreg.Function{
		"check": funcreg.FuncFunc(func(ctx context.Context, args map[string]cty.Value) (cty.Value, error) {
			return cty.NilVal, assertionError{}
		}),
	})
	out := New(g, store, exec, Options{}).Run(context.Background())

	assert.Equal(t, StatusTestFailed, out.Status)
	require.Len(t, out.FailedTests, 1)
	assert.Equal(t, 2, out.FailedTests[0].NID)
}

type assertionError struct{}

func (assertionError) Error() string { return "assertion failed" }

func TestScheduler_ParallelSplitAndSyncColoring(t *testing.T) {
	nodes := []graph.Node{
		{ID: 1, Kind: graph.Start},
		{ID: 2, Kind: graph.ParallelSplit},
		{ID: 3, Kind: graph.Function, FunctionName: "left"},
		{ID: 4, Kind: graph.Function, FunctionName: "right"},
		{ID: 5, Kind: graph.ParallelSync},
		{ID: 6, Kind: graph.Stop},
	}
	transitions := []graph.Transition{
		{SourceID: 1, TargetID: 2},
		{SourceID: 2, TargetID: 3},
		{SourceID: 2, TargetID: 4},
		{SourceID: 3, TargetID: 5},
		{SourceID: 4, TargetID: 5},
		{SourceID: 5, TargetID: 6},
	}
	g, err := graph.Build(graph.NewSource(nodes, transitions, nil))
	require.NoError(t, err)

	store := vars.New(nil, cty.NilVal)
	exec := newExec(map[string]funcreg.Function{
		"left":  funcreg.FuncFunc(func(ctx context.Context, args map[string]cty.Value) (cty.Value, error) { return cty.True, nil }),
		"right": funcreg.FuncFunc(func(ctx context.Context, args map[string]cty.Value) (cty.Value, error) { return cty.True, nil }),
	})
	out := New(g, store, exec, Options{Workers: 4}).Run(context.Background())

	assert.Equal(t, StatusCompleted, out.Status)
	assert.Nil(t, out.Fatal)
	r3, ok := store.Result(3)
	require.True(t, ok)
	assert.True(t, r3.Exception.IsZero())
	r4, ok := store.Result(4)
	require.True(t, ok)
	assert.True(t, r4.Exception.IsZero())
}

func TestScheduler_ProtectedWriteOnReturnAliasIsFatal(t *testing.T) {
	nodes := []graph.Node{
		{ID: 1, Kind: graph.Start},
		{ID: 2, Kind: graph.Function, FunctionName: "greet", Return: "base_url"},
		{ID: 3, Kind: graph.Stop},
	}
	transitions := []graph.Transition{
		{SourceID: 1, TargetID: 2},
		{SourceID: 2, TargetID: 3},
	}
	g, err := graph.Build(graph.NewSource(nodes, transitions, nil))
	require.NoError(t, err)

	store := vars.New(map[string]cty.Value{"base_url": cty.StringVal("http://x")}, cty.NilVal)
	exec := newExec(map[string]funcreg.Function{
		"greet": funcreg.FuncFunc(func(ctx context.Context, args map[string]cty.Value) (cty.Value, error) { return cty.StringVal("y"), nil }),
	})
	out := New(g, store, exec, Options{}).Run(context.Background())

	require.NotNil(t, out.Fatal)
	assert.Equal(t, "ProtectedWrite", out.Fatal.Name)
}

func TestScheduler_VariableProtectedWriteIsFatal(t *testing.T) {
	nodes := []graph.Node{
		{ID: 1, Kind: graph.Start},
		{ID: 2, Kind: graph.Variable, Assignments: []graph.Assignment{{Name: "base_url", Expr: `"y"`}}},
		{ID: 3, Kind: graph.Stop},
	}
	transitions := []graph.Transition{
		{SourceID: 1, TargetID: 2},
		{SourceID: 2, TargetID: 3},
	}
	g, err := graph.Build(graph.NewSource(nodes, transitions, nil))
	require.NoError(t, err)

	store := vars.New(map[string]cty.Value{"base_url": cty.StringVal("http://x")}, cty.NilVal)
	exec := newExec(nil)
	out := New(g, store, exec, Options{}).Run(context.Background())

	require.NotNil(t, out.Fatal)
	assert.Equal(t, "ProtectedWrite", out.Fatal.Name)
	assert.Equal(t, StatusError, out.Status)
}

// TestScheduler_ConditionalBranchOnException covers S2: a transition pair
// gated on whether the source node's exception is present or absent, so
// only one of the two branches ever fires.
func TestScheduler_ConditionalBranchOnException(t *testing.T) {
	nodes := []graph.Node{
		{ID: 1, Kind: graph.Start},
		{ID: 2, Kind: graph.Function, FunctionName: "raise"},
		{ID: 3, Kind: graph.Function, FunctionName: "unreachable"},
		{ID: 4, Kind: graph.Stop},
	}
	transitions := []graph.Transition{
		{SourceID: 1, TargetID: 2},
		{SourceID: 2, TargetID: 3, Condition: `results["2"].exception == null`},
		{SourceID: 2, TargetID: 4, Condition: `results["2"].exception != null`},
		{SourceID: 3, TargetID: 4},
	}
	g, err := graph.Build(graph.NewSource(nodes, transitions, nil))
	require.NoError(t, err)

	store := vars.New(nil, cty.NilVal)
	exec := newExec(map[string]funcreg.Function{
		"raise": funcreg.FuncFunc(func(ctx context.Context, args map[string]cty.Value) (cty.Value, error) {
			return cty.NilVal, errors.New("boom")
		}),
		"unreachable": funcreg.FuncFunc(func(ctx context.Context, args map[string]cty.Value) (cty.Value, error) {
			return cty.True, nil
		}),
	})
	out := New(g, store, exec, Options{}).Run(context.Background())

	assert.Equal(t, StatusCompleted, out.Status)
	assert.Nil(t, out.Fatal)
	_, ranUnreachable := store.Result(3)
	assert.False(t, ranUnreachable)
	r2, ok := store.Result(2)
	require.True(t, ok)
	assert.False(t, r2.Exception.IsZero())
}

// TestScheduler_DrainDeadlineBoundsAbortWait covers §5's configurable
// hard-kill deadline: once a fatal error cancels runCtx, a Function node
// whose user function ignores ctx.Done() must not be allowed to hang Run
// forever — the coordinator gives up once DrainDeadline elapses.
func TestScheduler_DrainDeadlineBoundsAbortWait(t *testing.T) {
	nodes := []graph.Node{
		{ID: 1, Kind: graph.Start},
		{ID: 2, Kind: graph.Function, FunctionName: "stuck"},
		{ID: 3, Kind: graph.Stop},
		{ID: 4, Kind: graph.Start},
		{ID: 5, Kind: graph.Function, FunctionName: "badreturn", Return: "base_url"},
		{ID: 6, Kind: graph.Stop},
	}
	transitions := []graph.Transition{
		{SourceID: 1, TargetID: 2},
		{SourceID: 2, TargetID: 3},
		{SourceID: 4, TargetID: 5},
		{SourceID: 5, TargetID: 6},
	}
	g, err := graph.Build(graph.NewSource(nodes, transitions, nil))
	require.NoError(t, err)

	store := vars.New(map[string]cty.Value{"base_url": cty.StringVal("http://x")}, cty.NilVal)
	exec := newExec(map[string]funcreg.Function{
		"stuck": funcreg.FuncFunc(func(ctx context.Context, args map[string]cty.Value) (cty.Value, error) {
			<-time.After(3 * time.Second) // deliberately ignores ctx.Done()
			return cty.True, nil
		}),
		"badreturn": funcreg.FuncFunc(func(ctx context.Context, args map[string]cty.Value) (cty.Value, error) {
			return cty.StringVal("y"), nil
		}),
	})

	start := time.Now()
	out := New(g, store, exec, Options{Workers: 4, DrainDeadline: 20 * time.Millisecond}).Run(context.Background())
	elapsed := time.Since(start)

	require.NotNil(t, out.Fatal)
	assert.Equal(t, "ProtectedWrite", out.Fatal.Name)
	assert.Equal(t, StatusError, out.Status)
	assert.Less(t, elapsed, time.Second)
}

// TestScheduler_ReentrantParallelSplitColorsEachWave covers S4: a
// parallel split/sync pair nested inside a loop that fires three times.
// Each pass through the split must mint a fresh color so the sync only
// waits for arrivals from its own wave, never a stale or a future one.
func TestScheduler_ReentrantParallelSplitColorsEachWave(t *testing.T) {
	nodes := []graph.Node{
		{ID: 1, Kind: graph.Start},
		{ID: 2, Kind: graph.Variable, Assignments: []graph.Assignment{{Name: "n", Expr: "0"}}},
		{ID: 3, Kind: graph.ParallelSplit},
		{ID: 4, Kind: graph.Function, FunctionName: "left"},
		{ID: 5, Kind: graph.Function, FunctionName: "right"},
		{ID: 6, Kind: graph.ParallelSync},
		{ID: 7, Kind: graph.Variable, Assignments: []graph.Assignment{{Name: "n", Expr: "n + 1"}}},
		{ID: 8, Kind: graph.Stop},
	}
	transitions := []graph.Transition{
		{SourceID: 1, TargetID: 2},
		{SourceID: 2, TargetID: 3},
		{SourceID: 3, TargetID: 4},
		{SourceID: 3, TargetID: 5},
		{SourceID: 4, TargetID: 6},
		{SourceID: 5, TargetID: 6},
		{SourceID: 6, TargetID: 7},
		{SourceID: 7, TargetID: 3, Condition: "n < 3"},
		{SourceID: 7, TargetID: 8, Condition: "n >= 3"},
	}
	g, err := graph.Build(graph.NewSource(nodes, transitions, nil))
	require.NoError(t, err)

	var waves int
	store := vars.New(nil, cty.NilVal)
	exec := newExec(map[string]funcreg.Function{
		"left": funcreg.FuncFunc(func(ctx context.Context, args map[string]cty.Value) (cty.Value, error) {
			return cty.True, nil
		}),
		"right": funcreg.FuncFunc(func(ctx context.Context, args map[string]cty.Value) (cty.Value, error) {
			waves++
			return cty.True, nil
		}),
	})

	runCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	out := New(g, store, exec, Options{Workers: 4}).Run(runCtx)

	require.Nil(t, out.Fatal)
	assert.Equal(t, StatusCompleted, out.Status)
	assert.Equal(t, 3, waves)
	env := store.Snapshot()
	assert.True(t, cty.NumberIntVal(3).RawEquals(env.Variables["n"]), "got %#v", env.Variables["n"])
}
