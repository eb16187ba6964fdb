// Package exprlang implements the engine's sandboxed mini-expression
// language (§4.1, §9): a restricted subset of HCL expression syntax over
// a variable environment, used for transition conditions, function and
// wrapper argument bindings, and variable-node right-hand sides.
//
// The grammar is exactly what hashicorp/hcl/v2/hclsyntax parses as a
// single expression: literals, identifiers, attribute and index access,
// unary and binary operators, the conditional operator, and calls to a
// fixed builtin-function safelist (len, string, upper, lower, contains).
// No blocks, no user-defined functions, no for-expressions.
package exprlang
