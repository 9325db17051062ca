package scripting

import (
	"github.com/hostbridge/scripting/value"
)

// Invoke call a function value with the frame's arguments. Every
// cross-boundary call passes through here, host to script and script to
// host alike. The call is refused when val is not function-kind or the
// arguments do not coerce against the declared signature; a refused call
// leaves the frame and both sides' state untouched.
func Invoke(val *value.Value, frame *value.Frame) bool {
	if val == nil || val.Kind() != value.KindFunc {
		return false
	}

	fn := val.Func()
	if fn == nil || fn.Call == nil {
		return false
	}

	if !fn.Signature.Coerce(frame) {
		return false
	}

	return fn.Call(frame, fn.Bind)
}
