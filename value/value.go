package value

import (
	"github.com/yaoapp/kun/log"
)

// Kind the value type discriminator
type Kind uint8

const (
	// KindNil the empty value
	KindNil Kind = iota
	// KindBool boolean scalar
	KindBool
	// KindSint signed integer scalar
	KindSint
	// KindUint unsigned integer scalar
	KindUint
	// KindFloat floating point scalar
	KindFloat
	// KindString immutable string
	KindString
	// KindBytes raw byte buffer
	KindBytes
	// KindList ordered sequence of values
	KindList
	// KindTable string-keyed mapping of values
	KindTable
	// KindFunc callable function
	KindFunc
	// KindWeakref handle into a context's weak-reference table
	KindWeakref
	// KindWrapper internal non-owning wrapper around another value
	KindWrapper
	// KindAny matches any kind in a parameter signature
	KindAny Kind = 0xff
)

// Ownership how a value's lifetime is managed
type Ownership uint8

const (
	// Counted the value is reference-counted and destroyed at zero
	Counted Ownership = iota
	// Unmanaged the value never participates in counting; whoever holds
	// it is responsible for its lifetime (scalars, pool wrapper entries)
	Unmanaged
)

// Value a tagged unit of data exchanged across the host/engine boundary
type Value struct {
	kind      Kind
	ownership Ownership
	refs      int32
	data      interface{}

	// Release optional cleanup hook, runs once when the count reaches zero
	Release func(*Value)
}

// Scalar reports whether the kind is exempt from reference counting
func (kind Kind) Scalar() bool {
	switch kind {
	case KindNil, KindBool, KindSint, KindUint, KindFloat:
		return true
	}
	return false
}

// String the kind name
func (kind Kind) String() string {
	switch kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindSint:
		return "sint"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindTable:
		return "table"
	case KindFunc:
		return "function"
	case KindWeakref:
		return "weakref"
	case KindWrapper:
		return "wrapper"
	case KindAny:
		return "any"
	}
	return "unknown"
}

// New create a counted value of the given kind. Scalar kinds are created
// Unmanaged, everything else starts with one reference owned by the caller.
func New(kind Kind, data interface{}) *Value {
	v := &Value{kind: kind, data: data}
	if kind.Scalar() {
		v.ownership = Unmanaged
		return v
	}
	v.ownership = Counted
	v.refs = 1
	return v
}

// Nil create the empty value
func Nil() *Value { return New(KindNil, nil) }

// Bool create a boolean scalar
func Bool(b bool) *Value { return New(KindBool, b) }

// Sint create a signed integer scalar
func Sint(i int64) *Value { return New(KindSint, i) }

// Uint create an unsigned integer scalar
func Uint(u uint64) *Value { return New(KindUint, u) }

// Float create a floating point scalar
func Float(f float64) *Value { return New(KindFloat, f) }

// String create a string value
func String(s string) *Value { return New(KindString, s) }

// Bytes create a byte buffer value
func Bytes(data []byte) *Value { return New(KindBytes, data) }

// List create a list value. The list takes over the caller's reference
// on each element and releases them when the list is destroyed.
func List(items ...*Value) *Value { return New(KindList, items) }

// Table create a table value. The table takes over the caller's reference
// on each entry and releases them when the table is destroyed.
func Table(entries map[string]*Value) *Value {
	if entries == nil {
		entries = map[string]*Value{}
	}
	return New(KindTable, entries)
}

// Func create a function value
func Func(fn *Function) *Value { return New(KindFunc, fn) }

// Weakref create a weak-reference value wrapping a table handle
func Weakref(handle uint32) *Value { return New(KindWeakref, handle) }

// Wrap create an unmanaged wrapper around target. The wrapper holds no
// reference; it only records the pointer for a later explicit release.
func Wrap(target *Value) *Value {
	return &Value{kind: KindWrapper, ownership: Unmanaged, data: target}
}

// Kind the value's type discriminator
func (v *Value) Kind() Kind { return v.kind }

// Counted reports whether the value participates in reference counting
func (v *Value) Counted() bool { return v.ownership == Counted }

// Refs the current reference count (0 for unmanaged values)
func (v *Value) Refs() int32 { return v.refs }

// Ref take an additional reference. No-op for scalar and unmanaged values.
func (v *Value) Ref() *Value {
	if v.ownership != Counted {
		return v
	}
	v.refs++
	return v
}

// Deref release one reference. No-op for scalar and unmanaged values.
// When the count reaches zero the value is destroyed exactly once: list
// and table payloads release their elements, the Release hook runs, and
// the payload is cleared.
func (v *Value) Deref() {
	if v.ownership != Counted {
		return
	}

	if v.refs <= 0 {
		log.Error("[Value] deref of a dead %s value", v.kind)
		return
	}

	v.refs--
	if v.refs > 0 {
		return
	}
	v.destroy()
}

func (v *Value) destroy() {
	switch v.kind {
	case KindList:
		if items, ok := v.data.([]*Value); ok {
			for _, item := range items {
				if item != nil {
					item.Deref()
				}
			}
		}
	case KindTable:
		if entries, ok := v.data.(map[string]*Value); ok {
			for _, entry := range entries {
				if entry != nil {
					entry.Deref()
				}
			}
		}
	}

	if v.Release != nil {
		v.Release(v)
		v.Release = nil
	}
	v.data = nil
}

// Boolean the boolean payload
func (v *Value) Boolean() bool {
	b, _ := v.data.(bool)
	return b
}

// Int64 the signed integer payload
func (v *Value) Int64() int64 {
	i, _ := v.data.(int64)
	return i
}

// Uint64 the unsigned integer payload
func (v *Value) Uint64() uint64 {
	u, _ := v.data.(uint64)
	return u
}

// Float64 the floating point payload
func (v *Value) Float64() float64 {
	f, _ := v.data.(float64)
	return f
}

// Text the string payload
func (v *Value) Text() string {
	s, _ := v.data.(string)
	return s
}

// Buffer the byte payload
func (v *Value) Buffer() []byte {
	data, _ := v.data.([]byte)
	return data
}

// Items the list payload
func (v *Value) Items() []*Value {
	items, _ := v.data.([]*Value)
	return items
}

// Entries the table payload
func (v *Value) Entries() map[string]*Value {
	entries, _ := v.data.(map[string]*Value)
	return entries
}

// Func the function payload
func (v *Value) Func() *Function {
	fn, _ := v.data.(*Function)
	return fn
}

// Handle the weak-reference handle payload
func (v *Value) Handle() uint32 {
	handle, _ := v.data.(uint32)
	return handle
}

// Unwrap the value a wrapper points at, nil for anything else
func (v *Value) Unwrap() *Value {
	if v.kind != KindWrapper {
		return nil
	}
	target, _ := v.data.(*Value)
	return target
}

// Interface the raw payload, for bridges that convert whole values
func (v *Value) Interface() interface{} { return v.data }
