package execnode

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/sequenceengine/internal/ctxlog"
	"github.com/vk/sequenceengine/internal/exprlang"
	"github.com/vk/sequenceengine/internal/funcreg"
	"github.com/vk/sequenceengine/internal/graph"
	"github.com/vk/sequenceengine/internal/result"
	"github.com/vk/sequenceengine/internal/wrapper"
	"github.com/zclconf/go-cty/cty"
)

// Outcome is everything a Function node execution produces: the record to
// commit into the result registry, and, if the node declared a return
// alias, the value to bind into the on-the-fly namespace under that name.
type Outcome struct {
	Result      result.Result
	ReturnValue cty.Value
	HasReturn   bool
	FailsRun    bool // is_test node whose function sub-exception fired (§4.4)
}

// FunctionExecutor runs a Function node's wrapper/function invocation
// pipeline (§4.4). It holds no per-run state; a value is safe to share
// across concurrently executing nodes.
type FunctionExecutor struct {
	Functions funcreg.FunctionGrabber
	Wrappers  funcreg.WrapperGrabber
}

type activeWrapper struct {
	name string
	inst wrapper.Wrapper
}

// Execute runs one Function node invocation to completion. env is the
// environment snapshot taken before the node started; ctx governs the
// user function's timeout, if the node declares one.
func (e *FunctionExecutor) Execute(ctx context.Context, node *graph.Node, env exprlang.Env) Outcome {
	logger := ctxlog.FromContext(ctx).With("node", node.ID, "function", node.FunctionName)
	logger.Debug("▶️ starting function node")

	instances, exception := e.constructWrappers(node, env)
	if exception != nil {
		return e.finish(node, cty.NilVal, &result.Exception{Wrappers: exception}, logger)
	}

	wrappersLocal := make(map[string]cty.Value, len(node.Wrappers))
	var completed []activeWrapper
	var preErr *result.ErrInfo
	for _, aw := range instances {
		val, err := aw.inst.Pre(ctx)
		if err != nil {
			preErr = &result.ErrInfo{Name: aw.name, Args: map[string]cty.Value{"error": cty.StringVal(err.Error())}}
			break
		}
		wrappersLocal[aw.name] = val
		completed = append(completed, aw)
	}

	var functionExc *result.ErrInfo
	returned := cty.NilVal

	if preErr == nil {
		fnEnv := env
		if len(wrappersLocal) > 0 {
			fnEnv = env.With("wrappers", cty.ObjectVal(wrappersLocal))
		}
		var argErr error
		returned, functionExc, argErr = e.invoke(ctx, node, fnEnv)
		if argErr != nil {
			functionExc = &result.ErrInfo{Name: node.FunctionName, Args: map[string]cty.Value{"error": cty.StringVal(argErr.Error())}}
		}
	}

	postErr := e.runPost(ctx, completed)
	wrapperExc := preErr
	if wrapperExc == nil && postErr != nil {
		wrapperExc = postErr
	}

	var exc *result.Exception
	if functionExc != nil || wrapperExc != nil {
		exc = &result.Exception{Function: functionExc, Wrappers: wrapperExc}
	}

	return e.finish(node, returned, exc, logger)
}

func (e *FunctionExecutor) finish(node *graph.Node, returned cty.Value, exc *result.Exception, logger *slog.Logger) Outcome {
	res := result.Result{NID: node.ID, Returned: returned, Exception: exc}
	out := Outcome{Result: res}
	if node.Return != "" && (exc == nil || exc.Function == nil) {
		out.ReturnValue = returned
		out.HasReturn = true
	}
	if node.IsTest && exc != nil && exc.Function != nil {
		out.FailsRun = true
		logger.Error("❌ is_test function failed", "error", exc.Function.Args["error"])
	} else {
		logger.Debug("✅ finished function node")
	}
	return out
}

// constructWrappers evaluates every wrapper's constructor arguments and
// builds its instance, in declared order (§4.4 step 1). A construction
// failure is reported as if the wrapper's pre itself had failed, since no
// invocation was possible.
func (e *FunctionExecutor) constructWrappers(node *graph.Node, env exprlang.Env) ([]activeWrapper, *result.ErrInfo) {
	instances := make([]activeWrapper, 0, len(node.Wrappers))
	for _, ref := range node.Wrappers {
		factory, ok := e.Wrappers.LookupWrapper(ref.Name)
		if !ok {
			return nil, &result.ErrInfo{Name: ref.Name, Args: map[string]cty.Value{"error": cty.StringVal("unregistered wrapper")}}
		}
		args, err := evaluateArgs(ref.Arguments, env)
		if err != nil {
			return nil, &result.ErrInfo{Name: ref.Name, Args: map[string]cty.Value{"error": cty.StringVal(err.Error())}}
		}
		inst, err := factory(args)
		if err != nil {
			return nil, &result.ErrInfo{Name: ref.Name, Args: map[string]cty.Value{"error": cty.StringVal(err.Error())}}
		}
		instances = append(instances, activeWrapper{name: ref.Name, inst: inst})
	}
	return instances, nil
}

// runPost invokes Post on every wrapper whose Pre completed, in reverse
// declared order, regardless of the function's own outcome (§4.4 step 5).
func (e *FunctionExecutor) runPost(ctx context.Context, completed []activeWrapper) *result.ErrInfo {
	var messages []cty.Value
	var names []string
	for i := len(completed) - 1; i >= 0; i-- {
		aw := completed[i]
		if err := aw.inst.Post(ctx); err != nil {
			names = append(names, aw.name)
			messages = append(messages, cty.StringVal(err.Error()))
		}
	}
	if len(messages) == 0 {
		return nil
	}
	return &result.ErrInfo{
		Name: fmt.Sprintf("post:%v", names),
		Args: map[string]cty.Value{"errors": cty.ListVal(messages)},
	}
}

// invoke evaluates the user function's argument bindings and calls it,
// enforcing node.Timeout when set (§4.4 step 4). Arguments are cty.Values,
// which are themselves immutable, so passing them by value already gives
// the callee no way to mutate the caller's variable store.
func (e *FunctionExecutor) invoke(ctx context.Context, node *graph.Node, env exprlang.Env) (cty.Value, *result.ErrInfo, error) {
	args, err := evaluateArgs(node.Arguments, env)
	if err != nil {
		return cty.NilVal, nil, err
	}

	fn, ok := e.Functions.Lookup(node.FunctionName)
	if !ok {
		return cty.NilVal, &result.ErrInfo{Name: node.FunctionName, Args: map[string]cty.Value{"error": cty.StringVal("unregistered function")}}, nil
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if node.Timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, node.Timeout)
		defer cancel()
	}

	type callResult struct {
		val cty.Value
		err error
	}
	done := make(chan callResult, 1)
	go func() {
		val, err := fn.Call(callCtx, args)
		done <- callResult{val, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return cty.NilVal, &result.ErrInfo{Name: node.FunctionName, Args: map[string]cty.Value{"error": cty.StringVal(r.err.Error())}}, nil
		}
		return r.val, nil, nil
	case <-callCtx.Done():
		if node.Timeout > 0 && callCtx.Err() == context.DeadlineExceeded {
			return cty.NilVal, &result.ErrInfo{Name: "Timeout", Args: map[string]cty.Value{
				"function": cty.StringVal(node.FunctionName),
				"error":    cty.StringVal(fmt.Sprintf("timed out after %s", node.Timeout)),
			}}, nil
		}
		<-done // best-effort: still drain once the goroutine notices cancellation
		return cty.NilVal, &result.ErrInfo{Name: node.FunctionName, Args: map[string]cty.Value{"error": cty.StringVal(callCtx.Err().Error())}}, nil
	}
}

func evaluateArgs(exprs map[string]string, env exprlang.Env) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value, len(exprs))
	for name, expr := range exprs {
		val, evalErr := exprlang.Evaluate(expr, env)
		if evalErr != nil {
			return nil, fmt.Errorf("argument %q: %w", name, evalErr)
		}
		out[name] = val
	}
	return out, nil
}
