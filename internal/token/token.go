// Package token defines the runtime execution-point value the scheduler
// moves through the graph, and the color identifiers used to keep
// concurrently-live parallel-split waves apart at their matching sync.
package token

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Color tags one firing of a ParallelSplit node. RootColor is the color
// shared by every token minted from a Start node; nested splits mint a
// fresh, globally unique Color per firing.
type Color struct {
	id uuid.UUID
}

// RootColor is the color of every token created at run initialization.
var RootColor = Color{}

// NewColor mints a color unique to one ParallelSplit firing.
func NewColor() Color {
	return Color{id: uuid.New()}
}

// IsRoot reports whether c is the shared root color.
func (c Color) IsRoot() bool {
	return c.id == uuid.Nil
}

// String renders the color for logs; the root color prints as "root".
func (c Color) String() string {
	if c.IsRoot() {
		return "root"
	}
	return c.id.String()
}

// Token is a live execution point at a node, stamped with the color of the
// parallel-split wave (if any) that produced it. Enclosing []Color is a
// stack of the colors this token's wave was nested inside, outermost
// first; a ParallelSync drops the wave's own Color and pops the top of
// this stack to restore the enclosing one, so splits nested arbitrarily
// deep unwind correctly.
type Token struct {
	NodeID    int
	From      int // source node id of the transition that produced this token, -1 at a Start
	Color     Color
	Enclosing []Color
	CreatedAt time.Time
}

// New creates a token bound for nodeID, carrying color and its enclosing
// color stack. from is the source node id of the transition that produced
// it; pass -1 for tokens seeded directly at a Start node.
func New(nodeID, from int, color Color, enclosing []Color) Token {
	return Token{
		NodeID:    nodeID,
		From:      from,
		Color:     color,
		Enclosing: enclosing,
		CreatedAt: time.Now(),
	}
}

// Push returns the enclosing-color stack a fresh split firing should carry:
// t's own color pushed on top of t's existing stack.
func (t Token) Push() []Color {
	stack := make([]Color, len(t.Enclosing)+1)
	copy(stack, t.Enclosing)
	stack[len(t.Enclosing)] = t.Color
	return stack
}

// Pop returns the color and remaining stack a matching sync restores when
// it fires: the top of t's enclosing stack, and the stack beneath it. Pop
// on a root-level token (empty stack) returns RootColor and an empty stack.
func (t Token) Pop() (Color, []Color) {
	if len(t.Enclosing) == 0 {
		return RootColor, nil
	}
	top := t.Enclosing[len(t.Enclosing)-1]
	return top, t.Enclosing[:len(t.Enclosing)-1]
}

func (t Token) String() string {
	return fmt.Sprintf("token(node=%d, color=%s)", t.NodeID, t.Color)
}
