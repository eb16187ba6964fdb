package httpfunc

import (
	"context"
	"time"

	"github.com/vk/sequenceengine/internal/ctxlog"
	"github.com/vk/sequenceengine/internal/wrapper"
	"github.com/zclconf/go-cty/cty"
)

// timingWrapper records how long the wrapped invocation took and logs it
// on Post, demonstrating the wrapper.Factory/Wrapper contract (§6)
// alongside the plain Function this module registers. A fresh instance is
// constructed per node invocation, so start is never shared across calls.
type timingWrapper struct {
	start time.Time
}

func newTimingWrapper(map[string]cty.Value) (wrapper.Wrapper, error) {
	return &timingWrapper{}, nil
}

// Pre publishes the start timestamp under the wrapper's declared name, so
// a node's argument bindings may reference wrappers.timing if they want it.
func (w *timingWrapper) Pre(ctx context.Context) (cty.Value, error) {
	w.start = time.Now()
	return cty.StringVal(w.start.Format(time.RFC3339Nano)), nil
}

func (w *timingWrapper) Post(ctx context.Context) error {
	ctxlog.FromContext(ctx).Info("http_request timing", "duration", time.Since(w.start).String())
	return nil
}
