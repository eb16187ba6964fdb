package exprlang

import "github.com/zclconf/go-cty/cty"

// Env is an immutable snapshot of everything an expression may name:
// built-ins, constants, and on-the-fly variables already merged by the
// variable store according to §3's precedence rule, plus, only while
// evaluating a function node's argument bindings, the wrapper-local
// pre-results (§4.4 step 3).
type Env struct {
	Variables map[string]cty.Value
}

// NewEnv wraps a pre-merged variable map as an evaluation environment.
func NewEnv(variables map[string]cty.Value) Env {
	if variables == nil {
		variables = map[string]cty.Value{}
	}
	return Env{Variables: variables}
}

// With returns a copy of e with name bound to value, leaving e untouched.
// Used to publish the wrapper-local map for the duration of one function
// node's argument evaluation (§4.4 step 3) without mutating the shared
// snapshot other goroutines may be reading concurrently.
func (e Env) With(name string, value cty.Value) Env {
	next := make(map[string]cty.Value, len(e.Variables)+1)
	for k, v := range e.Variables {
		next[k] = v
	}
	next[name] = value
	return Env{Variables: next}
}
