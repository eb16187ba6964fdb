// Package env_vars registers a function that snapshots the process
// environment into an object value, adapted from the teacher's env_vars
// module (originally an on_run handler returning a typed Output struct)
// to the funcreg.Function contract.
package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/vk/sequenceengine/internal/funcreg"
	"github.com/zclconf/go-cty/cty"
)

// Module implements funcreg.Module.
type Module struct{}

func (Module) Register(r *funcreg.Registry) {
	r.RegisterFunction("env_vars", funcreg.FuncFunc(callEnvVars))
}

func callEnvVars(ctx context.Context, args map[string]cty.Value) (cty.Value, error) {
	env := make(map[string]cty.Value)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			env[pair[0]] = cty.StringVal(pair[1])
		}
	}
	if len(env) == 0 {
		return cty.ObjectVal(map[string]cty.Value{"all": cty.EmptyObjectVal}), nil
	}
	return cty.ObjectVal(map[string]cty.Value{"all": cty.ObjectVal(env)}), nil
}
