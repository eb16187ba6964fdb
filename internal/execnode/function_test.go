package execnode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/sequenceengine/internal/exprlang"
	"github.com/vk/sequenceengine/internal/funcreg"
	"github.com/vk/sequenceengine/internal/graph"
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

func TestFunctionExecutor_HappyPath(t *testing.T) {
	grabber := stubGrabber{funcs: map[string]funcreg.Function{
		"echo": funcreg.FuncFunc(func(ctx context.Context, args map[string]cty.Value) (cty.Value, error) {
			return args["msg"], nil
		}),
	}}
	e := &FunctionExecutor{Functions: grabber, Wrappers: grabber}
	node := &graph.Node{
		ID:           1,
		Kind:         graph.Function,
		FunctionName: "echo",
		Arguments:    map[string]string{"msg": `"hello"`},
		Return:       "greeting",
	}
	out := e.Execute(context.Background(), node, exprlang.NewEnv(nil))
	require.True(t, out.HasReturn)
	assert.Equal(t, "hello", out.ReturnValue.AsString())
	assert.Equal(t, "hello", out.Result.Returned.AsString())
	assert.True(t, out.Result.Exception.IsZero())
	assert.False(t, out.FailsRun)
}

func TestFunctionExecutor_FunctionErrorSetsException(t *testing.T) {
	grabber := stubGrabber{funcs: map[string]funcreg.Function{
		"boom": funcreg.FuncFunc(func(ctx context.Context, args map[string]cty.Value) (cty.Value, error) {
			return cty.NilVal, errors.New("kaboom")
		}),
	}}
	e := &FunctionExecutor{Functions: grabber, Wrappers: grabber}
	node := &graph.Node{ID: 2, Kind: graph.Function, FunctionName: "boom", IsTest: true}
	out := e.Execute(context.Background(), node, exprlang.NewEnv(nil))
	require.NotNil(t, out.Result.Exception)
	require.NotNil(t, out.Result.Exception.Function)
	assert.Equal(t, "boom", out.Result.Exception.Function.Name)
	assert.True(t, out.FailsRun)
	assert.False(t, out.HasReturn)
}

func TestFunctionExecutor_Timeout(t *testing.T) {
	grabber := stubGrabber{funcs: map[string]funcreg.Function{
		"slow": funcreg.FuncFunc(func(ctx context.Context, args map[string]cty.Value) (cty.Value, error) {
			select {
			case <-time.After(200 * time.Millisecond):
				return cty.True, nil
			case <-ctx.Done():
				return cty.NilVal, ctx.Err()
			}
		}),
	}}
	e := &FunctionExecutor{Functions: grabber, Wrappers: grabber}
	node := &graph.Node{ID: 3, Kind: graph.Function, FunctionName: "slow", Timeout: 10 * time.Millisecond}
	out := e.Execute(context.Background(), node, exprlang.NewEnv(nil))
	require.NotNil(t, out.Result.Exception)
	require.NotNil(t, out.Result.Exception.Function)
	assert.Equal(t, "Timeout", out.Result.Exception.Function.Name)
	assert.Contains(t, out.Result.Exception.Function.Args["error"].AsString(), "timed out")
}

type recordingWrapper struct {
	name    string
	trace   *[]string
	preErr  error
	postErr error
}

func (w recordingWrapper) Pre(ctx context.Context) (cty.Value, error) {
	*w.trace = append(*w.trace, "pre:"+w.name)
	if w.preErr != nil {
		return cty.NilVal, w.preErr
	}
	return cty.StringVal(w.name + "-pre"), nil
}

func (w recordingWrapper) Post(ctx context.Context) error {
	*w.trace = append(*w.trace, "post:"+w.name)
	return w.postErr
}

func TestFunctionExecutor_WrapperOrderingAndPostOnlyForCompletedPre(t *testing.T) {
	var trace []string
	grabber := stubGrabber{
		funcs: map[string]funcreg.Function{
			"noop": funcreg.FuncFunc(func(ctx context.Context, args map[string]cty.Value) (cty.Value, error) {
				return cty.True, nil
			}),
		},
		wrappers: map[string]wrapper.Factory{
			"a": func(args map[string]cty.Value) (wrapper.Wrapper, error) {
				return recordingWrapper{name: "a", trace: &trace}, nil
			},
			"b": func(args map[string]cty.Value) (wrapper.Wrapper, error) {
				return recordingWrapper{name: "b", trace: &trace, preErr: errors.New("b failed")}, nil
			},
			"c": func(args map[string]cty.Value) (wrapper.Wrapper, error) {
				return recordingWrapper{name: "c", trace: &trace}, nil
			},
		},
	}
	e := &FunctionExecutor{Functions: grabber, Wrappers: grabber}
	node := &graph.Node{
		ID:           4,
		Kind:         graph.Function,
		FunctionName: "noop",
		Wrappers: []graph.WrapperRef{
			{Name: "a"}, {Name: "b"}, {Name: "c"},
		},
	}
	out := e.Execute(context.Background(), node, exprlang.NewEnv(nil))
	require.NotNil(t, out.Result.Exception)
	require.NotNil(t, out.Result.Exception.Wrappers)
	assert.Equal(t, "b", out.Result.Exception.Wrappers.Name)
	assert.Equal(t, []string{"pre:a", "pre:b", "post:a"}, trace)
	assert.Nil(t, out.Result.Exception.Function)
}
