package execnode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/sequenceengine/internal/graph"
	"github.com/vk/sequenceengine/internal/vars"
	"github.com/zclconf/go-cty/cty"
)

func TestRunVariable_SequentialVisibility(t *testing.T) {
	store := vars.New(nil, cty.NilVal)
	node := &graph.Node{
		Kind: graph.Variable,
		Assignments: []graph.Assignment{
			{Name: "a", Expr: "1"},
			{Name: "b", Expr: "a + 1"},
		},
	}
	err := RunVariable(node, store)
	require.NoError(t, err)

	env := store.Snapshot()
	assert.True(t, cty.NumberIntVal(2).RawEquals(env.Variables["b"]), "got %#v", env.Variables["b"])
}

func TestRunVariable_AbortsOnProtectedWrite(t *testing.T) {
	store := vars.New(map[string]cty.Value{"base": cty.StringVal("x")}, cty.NilVal)
	node := &graph.Node{
		Kind: graph.Variable,
		Assignments: []graph.Assignment{
			{Name: "base", Expr: `"y"`},
			{Name: "c", Expr: "1"},
		},
	}
	err := RunVariable(node, store)
	require.Error(t, err)
	assert.ErrorIs(t, err, vars.ErrProtectedWrite)

	env := store.Snapshot()
	_, exists := env.Variables["c"]
	assert.False(t, exists)
}

func TestRunVariable_AbortsOnEvalError(t *testing.T) {
	store := vars.New(nil, cty.NilVal)
	node := &graph.Node{
		Kind: graph.Variable,
		Assignments: []graph.Assignment{
			{Name: "a", Expr: "undefined_name"},
		},
	}
	err := RunVariable(node, store)
	assert.Error(t, err)
}
