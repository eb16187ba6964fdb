package exprlang

import (
	"strings"
	"unicode/utf8"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
)

// safelist is the fixed set of builtin calls the language permits (§9's
// grammar requirement: "len, and string coercion", extended with a couple
// of string helpers idioms in existing sequence files lean on).
var safelist = map[string]function.Function{
	"len":      lenFunc,
	"string":   stringFunc,
	"upper":    upperFunc,
	"lower":    lowerFunc,
	"contains": containsFunc,
}

var lenFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "collection", Type: cty.DynamicPseudoType}},
	Type:   function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		v := args[0]
		switch {
		case v.Type() == cty.String:
			return cty.NumberIntVal(int64(utf8.RuneCountInString(v.AsString()))), nil
		case v.Type().IsListType(), v.Type().IsSetType(), v.Type().IsTupleType(),
			v.Type().IsMapType(), v.Type().IsObjectType():
			return cty.NumberIntVal(int64(v.LengthInt())), nil
		default:
			return cty.NilVal, function.NewArgErrorf(0, "len: unsupported type %s", v.Type().FriendlyName())
		}
	},
})

var stringFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "value", Type: cty.DynamicPseudoType}},
	Type:   function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return convert.Convert(args[0], cty.String)
	},
})

var upperFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "s", Type: cty.String}},
	Type:   function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return cty.StringVal(strings.ToUpper(args[0].AsString())), nil
	},
})

var lowerFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "s", Type: cty.String}},
	Type:   function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		return cty.StringVal(strings.ToLower(args[0].AsString())), nil
	},
})

var containsFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "collection", Type: cty.DynamicPseudoType},
		{Name: "value", Type: cty.DynamicPseudoType},
	},
	Type: function.StaticReturnType(cty.Bool),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		coll, needle := args[0], args[1]
		if coll.Type() == cty.String {
			if needle.Type() != cty.String {
				return cty.False, nil
			}
			return cty.BoolVal(strings.Contains(coll.AsString(), needle.AsString())), nil
		}
		if !coll.Type().IsListType() && !coll.Type().IsSetType() && !coll.Type().IsTupleType() {
			return cty.NilVal, function.NewArgErrorf(0, "contains: unsupported collection type %s", coll.Type().FriendlyName())
		}
		for it := coll.ElementIterator(); it.Next(); {
			_, v := it.Element()
			if v.RawEquals(needle) {
				return cty.True, nil
			}
		}
		return cty.False, nil
	},
})
