package hclseq

import "github.com/hashicorp/hcl/v2"

// transitionBlock is the shared `transition { to = N; when = <expr> }`
// shape every node kind but Stop declares.
type transitionBlock struct {
	To   int            `hcl:"to,attr"`
	When hcl.Expression `hcl:"when,optional"`
}

type startBlock struct {
	ID          string             `hcl:"id,label"`
	Transitions []*transitionBlock `hcl:"transition,block"`
}

type stopBlock struct {
	ID string `hcl:"id,label"`
}

// argumentsBlock captures a function or wrapper's `arguments { ... }`
// block as a raw hcl.Body; attribute expressions are recovered as source
// text rather than evaluated here (§4.1: expressions are evaluated by
// internal/exprlang against the run's own environment, not at load time).
type argumentsBlock struct {
	Remain hcl.Body `hcl:",remain"`
}

type wrapperBlock struct {
	Name      string            `hcl:"name,label"`
	Arguments []*argumentsBlock `hcl:"arguments,block"`
}

type functionBlock struct {
	ID          string             `hcl:"id,label"`
	Function    string             `hcl:"function,attr"`
	Timeout     string             `hcl:"timeout,optional"`
	IsTest      bool               `hcl:"is_test,optional"`
	Return      string             `hcl:"return,optional"`
	Arguments   []*argumentsBlock  `hcl:"arguments,block"`
	Wrappers    []*wrapperBlock    `hcl:"wrapper,block"`
	Transitions []*transitionBlock `hcl:"transition,block"`
}

type assignBlock struct {
	Name string         `hcl:"name,label"`
	Expr hcl.Expression `hcl:"expr,attr"`
}

type variableBlock struct {
	ID          string             `hcl:"id,label"`
	Assignments []*assignBlock     `hcl:"assign,block"`
	Transitions []*transitionBlock `hcl:"transition,block"`
}

type parallelSplitBlock struct {
	ID          string             `hcl:"id,label"`
	Transitions []*transitionBlock `hcl:"transition,block"`
}

type parallelSyncBlock struct {
	ID          string             `hcl:"id,label"`
	Transitions []*transitionBlock `hcl:"transition,block"`
}

// constantsBlock captures a top-level `constants { ... }` block; each
// attribute becomes one load-time constant, evaluated once against an
// empty environment (no results, no on-the-fly names exist yet).
type constantsBlock struct {
	Remain hcl.Body `hcl:",remain"`
}

// fileRoot is decoded from every sequence file; a directory may spread
// its blocks across as many files as convenient.
type fileRoot struct {
	Constants      []*constantsBlock     `hcl:"constants,block"`
	Starts         []*startBlock         `hcl:"start,block"`
	Stops          []*stopBlock          `hcl:"stop,block"`
	Functions      []*functionBlock      `hcl:"function,block"`
	Variables      []*variableBlock      `hcl:"variable,block"`
	ParallelSplits []*parallelSplitBlock `hcl:"parallel_split,block"`
	ParallelSyncs  []*parallelSyncBlock  `hcl:"parallel_sync,block"`
}
