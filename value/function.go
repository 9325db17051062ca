package value

// Function a callable exchanged across the host/engine boundary. Call
// receives the coerced frame together with the function's captured Bind
// state and reports whether the call completed.
type Function struct {
	Signature Signature
	Bind      interface{}
	Call      func(frame *Frame, bind interface{}) bool
}

// Param a declared parameter
type Param struct {
	Name string
	Kind Kind
}

// Signature the declared parameter list of a function. Results is
// advisory: coercion only gates arguments, but engines that bind host
// functions at link time need the return shape up front.
type Signature struct {
	Params   []Param
	Results  []Kind
	Variadic bool
}

// Frame the argument and return lists of a single call
type Frame struct {
	Args    []*Value
	Returns []*Value
}

// NewFrame create a frame with the given arguments
func NewFrame(args ...*Value) *Frame {
	return &Frame{Args: args}
}

// Push append an argument
func (frame *Frame) Push(v *Value) *Frame {
	frame.Args = append(frame.Args, v)
	return frame
}

// Return append a return value
func (frame *Frame) Return(v *Value) *Frame {
	frame.Returns = append(frame.Returns, v)
	return frame
}
