package value

import "math"

// MaxInt64 and MaxUint64 round up to 2^63 and 2^64 when converted to
// float64, so the upper float gates are exclusive against the exact
// powers of two. MinInt64 is -2^63 exactly and stays inclusive.
const (
	sintUpper = 9223372036854775808.0  // 2^63
	uintUpper = 18446744073709551616.0 // 2^64
)

// Coerce validate the frame's arguments against the signature, converting
// where the kinds are compatible. The frame is mutated only when every
// argument coerces; on failure it is left exactly as it was.
//
// Conversions: identity, Sint<->Uint (range checked), Sint/Uint/Bool to
// Float, Bool to Sint, integral Float to Sint/Uint. KindAny parameters
// accept anything. A variadic tail absorbs extra arguments unchecked.
func (signature Signature) Coerce(frame *Frame) bool {
	if frame == nil {
		return false
	}

	if len(frame.Args) < len(signature.Params) {
		return false
	}

	if !signature.Variadic && len(frame.Args) > len(signature.Params) {
		return false
	}

	coerced := make([]*Value, len(frame.Args))
	copy(coerced, frame.Args)
	for i, param := range signature.Params {
		arg := coerce(frame.Args[i], param.Kind)
		if arg == nil {
			return false
		}
		coerced[i] = arg
	}

	frame.Args = coerced
	return true
}

// coerce a single argument to the wanted kind, nil when incompatible
func coerce(arg *Value, want Kind) *Value {
	if arg == nil {
		return nil
	}

	if want == KindAny || arg.kind == want {
		return arg
	}

	switch want {

	case KindSint:
		switch arg.kind {
		case KindUint:
			if arg.Uint64() > math.MaxInt64 {
				return nil
			}
			return Sint(int64(arg.Uint64()))
		case KindBool:
			if arg.Boolean() {
				return Sint(1)
			}
			return Sint(0)
		case KindFloat:
			f := arg.Float64()
			if f != math.Trunc(f) || f < math.MinInt64 || f >= sintUpper {
				return nil
			}
			return Sint(int64(f))
		}

	case KindUint:
		switch arg.kind {
		case KindSint:
			if arg.Int64() < 0 {
				return nil
			}
			return Uint(uint64(arg.Int64()))
		case KindFloat:
			f := arg.Float64()
			if f != math.Trunc(f) || f < 0 || f >= uintUpper {
				return nil
			}
			return Uint(uint64(f))
		}

	case KindFloat:
		switch arg.kind {
		case KindSint:
			return Float(float64(arg.Int64()))
		case KindUint:
			return Float(float64(arg.Uint64()))
		case KindBool:
			if arg.Boolean() {
				return Float(1)
			}
			return Float(0)
		}
	}

	return nil
}
