// Package wrapper defines the capability contract a value must satisfy to
// decorate a Function node's invocation (§4.4, §6, §9's "Wrapper
// polymorphism" design note): any value exposing Pre/Post qualifies, there
// is no base class to inherit from.
package wrapper

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Wrapper runs Pre before, and Post after, a function node's user function.
// A fresh Wrapper is constructed for every node invocation (§6).
type Wrapper interface {
	// Pre runs before the user function. Its return value is published
	// under the wrapper's declared name in the "wrappers" environment
	// binding (§4.4 step 2-3). An error here skips the user function.
	Pre(ctx context.Context) (cty.Value, error)

	// Post runs after the user function, in reverse declared order,
	// regardless of whether the user function itself succeeded, but only
	// for wrappers whose Pre completed (§4.4 step 5).
	Post(ctx context.Context) error
}

// Factory constructs a Wrapper from its evaluated argument map. Factories
// are registered by name into a WrapperGrabber (§6).
type Factory func(args map[string]cty.Value) (Wrapper, error)
