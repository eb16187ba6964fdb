package wrapper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zclconf/go-cty/cty"
)

type fakeWrapper struct {
	preVal  cty.Value
	preErr  error
	postErr error
}

func (f *fakeWrapper) Pre(ctx context.Context) (cty.Value, error) { return f.preVal, f.preErr }
func (f *fakeWrapper) Post(ctx context.Context) error             { return f.postErr }

func TestFactory_ConstructsWrapperFromArgs(t *testing.T) {
	var factory Factory = func(args map[string]cty.Value) (Wrapper, error) {
		return &fakeWrapper{preVal: args["value"]}, nil
	}

	w, err := factory(map[string]cty.Value{"value": cty.StringVal("x")})
	assert.NoError(t, err)

	val, err := w.Pre(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, cty.StringVal("x"), val)
	assert.NoError(t, w.Post(context.Background()))
}
