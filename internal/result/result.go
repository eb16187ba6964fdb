package result

import "github.com/zclconf/go-cty/cty"

// ErrInfo describes one raised error: the name the raiser gave it, and the
// arguments it carried, exactly as §3 specifies for exception records.
type ErrInfo struct {
	Name string
	Args map[string]cty.Value
}

func (e *ErrInfo) ctyValue() cty.Value {
	if e == nil {
		return cty.NullVal(errInfoType)
	}
	args := e.Args
	if args == nil {
		args = map[string]cty.Value{}
	}
	return cty.ObjectVal(map[string]cty.Value{
		"name": cty.StringVal(e.Name),
		"args": cty.ObjectVal(nonEmptyOrPlaceholder(args)),
	})
}

// nonEmptyOrPlaceholder returns m unchanged: cty.ObjectVal accepts an empty
// attribute map, so an empty args map needs no placeholder. It is a
// passthrough kept for clarity at call sites.
func nonEmptyOrPlaceholder(m map[string]cty.Value) map[string]cty.Value {
	return m
}

// errInfoType is the object type used for a null ErrInfo. It has to match
// the shape ctyValue() produces for a non-nil ErrInfo's "name"/"args"
// pair, but cty only demands element types agree at the point of use, so
// a minimal object type is enough for a well-typed null.
var errInfoType = cty.Object(map[string]cty.Type{
	"name": cty.String,
	"args": cty.EmptyObject,
})

// Exception is the combined function/wrapper failure record of a Function
// node's Result (§3, §7).
type Exception struct {
	Function *ErrInfo
	Wrappers *ErrInfo
}

// IsZero reports whether neither the function nor any wrapper failed.
func (e *Exception) IsZero() bool {
	return e == nil || (e.Function == nil && e.Wrappers == nil)
}

// Result is the record stored after a Function node completes (§3).
type Result struct {
	NID       int
	Returned  cty.Value // cty.NilVal if the invocation failed before returning
	Exception *Exception
}

// CtyValue projects a Result into the object shape expressions see via
// results[id].{returned,exception,nid} (§6's "Environment snapshot shape").
func (r Result) CtyValue() cty.Value {
	returned := r.Returned
	if returned == cty.NilVal {
		returned = cty.NullVal(cty.DynamicPseudoType)
	}

	var exceptionVal cty.Value
	if r.Exception.IsZero() {
		exceptionVal = cty.NullVal(cty.Object(map[string]cty.Type{
			"function": errInfoType,
			"wrappers": errInfoType,
		}))
	} else {
		exceptionVal = cty.ObjectVal(map[string]cty.Value{
			"function": r.Exception.Function.ctyValue(),
			"wrappers": r.Exception.Wrappers.ctyValue(),
		})
	}

	return cty.ObjectVal(map[string]cty.Value{
		"nid":       cty.NumberIntVal(int64(r.NID)),
		"returned":  returned,
		"exception": exceptionVal,
	})
}
