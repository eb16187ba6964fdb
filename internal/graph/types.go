package graph

import "time"

// Kind identifies the behavior a Node's executor implements.
type Kind int

const (
	Start Kind = iota
	Stop
	Function
	Variable
	ParallelSplit
	ParallelSync
)

func (k Kind) String() string {
	switch k {
	case Start:
		return "start"
	case Stop:
		return "stop"
	case Function:
		return "function"
	case Variable:
		return "variable"
	case ParallelSplit:
		return "parallel_split"
	case ParallelSync:
		return "parallel_sync"
	default:
		return "unknown"
	}
}

// WrapperRef names a wrapper attached to a Function node plus the
// expression strings that will be evaluated into its constructor arguments.
type WrapperRef struct {
	Name      string
	Arguments map[string]string
}

// Assignment is one ordered right-hand-side expression of a Variable node.
type Assignment struct {
	Name string
	Expr string
}

// Node is the immutable description of one graph vertex. Only the fields
// relevant to Kind are populated; the rest are zero.
type Node struct {
	ID   int
	Kind Kind
	Name string

	// Function fields.
	FunctionName string
	Arguments    map[string]string
	Wrappers     []WrapperRef
	Timeout      time.Duration // zero means "no timeout"
	Return       string        // on-the-fly alias for the returned value, optional
	IsTest       bool

	// Variable fields.
	Assignments []Assignment
}

// Transition is an immutable directed edge. An empty Condition means the
// transition is always eligible to fire.
type Transition struct {
	SourceID  int
	TargetID  int
	Condition string
}
