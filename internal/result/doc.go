// Package result implements the per-node last-run Result slot (§3, §4.4)
// and its projection into the expression language as the "results"
// built-in variable.
package result
