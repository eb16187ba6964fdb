package funcreg

import (
	"context"
	"fmt"

	"github.com/vk/sequenceengine/internal/wrapper"
	"github.com/zclconf/go-cty/cty"
)

// Function is a callable a Function node invokes (§6). Implementations
// receive keyword-style named arguments matching the node's argument
// binding keys and signal failure with a plain error; the executor
// captures that error's message (and nothing else) into an ErrInfo.
type Function interface {
	Call(ctx context.Context, args map[string]cty.Value) (cty.Value, error)
}

// FuncFunc adapts a plain function literal to the Function interface.
type FuncFunc func(ctx context.Context, args map[string]cty.Value) (cty.Value, error)

func (f FuncFunc) Call(ctx context.Context, args map[string]cty.Value) (cty.Value, error) {
	return f(ctx, args)
}

// FunctionGrabber resolves a user function by the name a Function node
// declares (§1, §6). The concrete loader is out of the engine's scope; the
// engine only ever calls Lookup.
type FunctionGrabber interface {
	Lookup(name string) (Function, bool)
}

// WrapperGrabber resolves a wrapper factory by the name a Function node's
// wrapper list declares (§6).
type WrapperGrabber interface {
	LookupWrapper(name string) (wrapper.Factory, bool)
}

// Module is the self-registration contract sample function packages
// implement, mirroring the teacher's registry.Module convention.
type Module interface {
	Register(r *Registry)
}

// Registry is the concrete, in-process FunctionGrabber/WrapperGrabber.
type Registry struct {
	functions map[string]Function
	wrappers  map[string]wrapper.Factory
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		functions: make(map[string]Function),
		wrappers:  make(map[string]wrapper.Factory),
	}
}

// RegisterFunction registers a named user function. A duplicate name is a
// programmer error and panics, matching the teacher's RegisterRunner.
func (r *Registry) RegisterFunction(name string, fn Function) {
	if _, exists := r.functions[name]; exists {
		panic(fmt.Sprintf("funcreg: function %q already registered", name))
	}
	r.functions[name] = fn
}

// RegisterWrapper registers a named wrapper factory.
func (r *Registry) RegisterWrapper(name string, factory wrapper.Factory) {
	if _, exists := r.wrappers[name]; exists {
		panic(fmt.Sprintf("funcreg: wrapper %q already registered", name))
	}
	r.wrappers[name] = factory
}

// Lookup implements FunctionGrabber.
func (r *Registry) Lookup(name string) (Function, bool) {
	fn, ok := r.functions[name]
	return fn, ok
}

// LookupWrapper implements WrapperGrabber.
func (r *Registry) LookupWrapper(name string) (wrapper.Factory, bool) {
	f, ok := r.wrappers[name]
	return f, ok
}

// Load registers every module's functions and wrappers into r.
func (r *Registry) Load(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}
