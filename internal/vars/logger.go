package vars

import (
	"log/slog"
	"reflect"

	"github.com/zclconf/go-cty/cty"
)

// loggerCapsuleType lets the opaque log sink handle travel through the
// expression environment as a first-class cty.Value, the same way the
// engine's other built-ins do, without exposing its fields to the
// expression language (capsule types have no attributes or operators).
var loggerCapsuleType = cty.Capsule("logger", reflect.TypeOf(slog.Logger{}))

// LoggerValue wraps a logger as the "logger" built-in binding.
func LoggerValue(logger *slog.Logger) cty.Value {
	return cty.CapsuleVal(loggerCapsuleType, logger)
}

// LoggerFromValue unwraps a "logger" binding back into a *slog.Logger.
func LoggerFromValue(v cty.Value) (*slog.Logger, bool) {
	if !v.Type().Equals(loggerCapsuleType) {
		return nil, false
	}
	ptr, ok := v.EncapsulatedValue().(*slog.Logger)
	return ptr, ok
}
