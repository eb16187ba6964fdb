// Package print registers a "print" function that writes its arguments to
// stdout, mirroring the teacher's print module but adapted to the
// funcreg.Function contract: a single Call instead of an on_run lifecycle
// handler with separate input/deps structs.
package print

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/vk/sequenceengine/internal/funcreg"
	"github.com/zclconf/go-cty/cty"
)

// Module implements funcreg.Module.
type Module struct{}

// Register registers this package's functions with r.
func (Module) Register(r *funcreg.Registry) {
	r.RegisterFunction("print", funcreg.FuncFunc(callPrint))
}

func callPrint(ctx context.Context, args map[string]cty.Value) (cty.Value, error) {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fmt.Printf("      %s = %s\n", k, formatValue(args[k]))
	}
	return cty.NilVal, nil
}

// formatValue renders a cty.Value for a human, without pulling in a full
// JSON encoder for what is otherwise a diagnostic print.
func formatValue(v cty.Value) string {
	if v.IsNull() {
		return "(null)"
	}
	switch v.Type() {
	case cty.String:
		return strconv.Quote(v.AsString())
	case cty.Number:
		return v.AsBigFloat().String()
	case cty.Bool:
		return strconv.FormatBool(v.True())
	default:
		return fmt.Sprintf("%#v", v)
	}
}
