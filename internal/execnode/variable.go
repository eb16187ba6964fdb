package execnode

import (
	"fmt"

	"github.com/vk/sequenceengine/internal/exprlang"
	"github.com/vk/sequenceengine/internal/graph"
	"github.com/vk/sequenceengine/internal/vars"
)

// RunVariable evaluates a Variable node's assignments in declared order,
// writing each through store.SetOnTheFly before evaluating the next, so
// later expressions see earlier ones (§4.5). It returns the first
// evaluation or write error, aborting the remaining assignments.
func RunVariable(node *graph.Node, store *vars.Store) error {
	for _, a := range node.Assignments {
		env := store.Snapshot()
		val, evalErr := exprlang.Evaluate(a.Expr, env)
		if evalErr != nil {
			return fmt.Errorf("assignment %q: %w", a.Name, evalErr)
		}
		if err := store.SetOnTheFly(a.Name, val); err != nil {
			return fmt.Errorf("assignment %q: %w", a.Name, err)
		}
	}
	return nil
}
