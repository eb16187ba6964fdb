package exprlang

import (
	"fmt"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// parseCache memoizes the parsed AST for an expression string, since the
// same node/transition expression is re-evaluated once per token that
// passes through it. Mirrors the teacher's bggoexpr.Container, which
// parses and analyzes an HCL expression once via sync.Once.
var parseCache sync.Map // string -> *cachedExpr

type cachedExpr struct {
	expr hclsyntax.Expression
	err  hcl.Diagnostics
}

func parse(expr string) (hclsyntax.Expression, hcl.Diagnostics) {
	if cached, ok := parseCache.Load(expr); ok {
		c := cached.(*cachedExpr)
		return c.expr, c.err
	}
	parsed, diags := hclsyntax.ParseExpression([]byte(expr), "<expr>", hcl.Pos{Line: 1, Column: 1})
	if !diags.HasErrors() {
		diags = append(diags, rejectForExprs(parsed)...)
	}
	c := &cachedExpr{expr: parsed, err: diags}
	parseCache.Store(expr, c)
	return c.expr, c.err
}

// rejectForExprs reports an error for every for-expression in expr, which
// the language does not include even though hclsyntax parses them.
func rejectForExprs(expr hclsyntax.Expression) hcl.Diagnostics {
	return hclsyntax.VisitAll(expr, func(n hclsyntax.Node) hcl.Diagnostics {
		if f, ok := n.(*hclsyntax.ForExpr); ok {
			rng := f.Range()
			return hcl.Diagnostics{{Severity: hcl.DiagError, Summary: "for expressions are not supported", Subject: &rng}}
		}
		return nil
	})
}

// EvalError is the structured failure returned by Evaluate. It carries the
// source range of the offending expression so callers can surface a
// human-readable location, mirroring how hcl.Diagnostic reports positions.
type EvalError struct {
	Expr  string
	Range *hcl.Range
	Err   error
}

func (e *EvalError) Error() string {
	if e.Range != nil {
		return fmt.Sprintf("expression %q at %s: %v", e.Expr, e.Range.String(), e.Err)
	}
	return fmt.Sprintf("expression %q: %v", e.Expr, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// Evaluate parses and runs expr against env, returning a typed cty.Value.
func Evaluate(expr string, env Env) (cty.Value, *EvalError) {
	parsed, diags := parse(expr)
	if diags.HasErrors() {
		return cty.NilVal, &EvalError{Expr: expr, Err: diags}
	}

	evalCtx := &hcl.EvalContext{
		Variables: env.Variables,
		Functions: safelist,
	}
	val, diags := parsed.Value(evalCtx)
	if diags.HasErrors() {
		var rng *hcl.Range
		if len(diags) > 0 {
			r := diags[0].Subject
			rng = r
		}
		return cty.NilVal, &EvalError{Expr: expr, Range: rng, Err: diags}
	}
	return val, nil
}

// EvalBool evaluates expr and coerces the result to bool. An empty
// expression is always true (§3: "absent condition ⇒ always true").
func EvalBool(expr string, env Env) (bool, *EvalError) {
	if expr == "" {
		return true, nil
	}
	val, err := Evaluate(expr, env)
	if err != nil {
		return false, err
	}
	boolVal, convErr := convert.Convert(val, cty.Bool)
	if convErr != nil {
		return false, &EvalError{Expr: expr, Err: fmt.Errorf("condition did not evaluate to a boolean: %w", convErr)}
	}
	if boolVal.IsNull() {
		return false, &EvalError{Expr: expr, Err: fmt.Errorf("condition evaluated to null")}
	}
	return boolVal.True(), nil
}
