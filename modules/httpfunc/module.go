// Package httpfunc registers an "http_request" function built on resty.dev's
// client, adapted from the teacher's http_client/http_request module pair
// (a stateful asset plus a stateless runner) collapsed into one
// funcreg.Function: the sequence engine has no asset lifecycle, so the
// client is constructed fresh per node and never shared. It also registers
// a "timing" wrapper, demonstrating the wrapper.Factory contract alongside
// a plain function in the same module.
package httpfunc

import (
	"context"
	"fmt"

	"github.com/vk/sequenceengine/internal/funcreg"
	"github.com/zclconf/go-cty/cty"
	"resty.dev/v3"
)

// Module implements funcreg.Module.
type Module struct{}

func (Module) Register(r *funcreg.Registry) {
	r.RegisterFunction("http_request", funcreg.FuncFunc(callHTTPRequest))
	r.RegisterWrapper("timing", newTimingWrapper)
}

func callHTTPRequest(ctx context.Context, args map[string]cty.Value) (cty.Value, error) {
	urlVal, ok := args["url"]
	if !ok || urlVal.IsNull() {
		return cty.NilVal, fmt.Errorf("http_request: argument %q is required", "url")
	}
	method := "GET"
	if m, ok := args["method"]; ok && !m.IsNull() {
		method = m.AsString()
	}
	var body string
	if b, ok := args["body"]; ok && !b.IsNull() {
		body = b.AsString()
	}

	client := resty.New()
	defer client.Close()

	req := client.R().SetContext(ctx)
	if body != "" {
		req = req.SetBody(body)
	}

	resp, err := req.Execute(method, urlVal.AsString())
	if err != nil {
		return cty.NilVal, fmt.Errorf("http_request: %w", err)
	}

	return cty.ObjectVal(map[string]cty.Value{
		"status_code": cty.NumberIntVal(int64(resp.StatusCode())),
		"body":        cty.StringVal(resp.String()),
	}), nil
}
