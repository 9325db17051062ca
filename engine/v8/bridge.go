package v8

import (
	"fmt"
	"math"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/hostbridge/scripting"
	"github.com/hostbridge/scripting/value"
	jsoniter "github.com/json-iterator/go"
	"rogchap.com/v8go"
)

// jsValue cast a host value to a JavaScript value
//
// *  ---------------------------------------------------
// *  | Host                    | Javascript            |
// *  ---------------------------------------------------
// *  | nil                     | null                  |
// *  | bool                    | boolean               |
// *  | sint                    | number / bigint       |
// *  | uint                    | bigint                |
// *  | float                   | number                |
// *  | string                  | string                |
// *  | bytes                   | array                 |
// *  | list                    | array                 |
// *  | table                   | object                |
// *  | weakref                 | resolved then cast    |
// *  ---------------------------------------------------
func (ectx *Context) jsValue(v *value.Value) (*v8go.Value, error) {

	switch v.Kind() {

	case value.KindNil:
		return v8go.Null(ectx.iso), nil

	case value.KindBool:
		return v8go.NewValue(ectx.iso, v.Boolean())

	case value.KindSint:
		i := v.Int64()
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return v8go.NewValue(ectx.iso, int32(i))
		}
		return v8go.NewValue(ectx.iso, i)

	case value.KindUint:
		return v8go.NewValue(ectx.iso, v.Uint64())

	case value.KindFloat:
		return v8go.NewValue(ectx.iso, v.Float64())

	case value.KindString:
		return v8go.NewValue(ectx.iso, v.Text())

	case value.KindWeakref:
		live := ectx.host.AccessWeakref(v)
		if live == nil {
			return nil, fmt.Errorf("weak reference %d is cleared", v.Handle())
		}
		return ectx.jsValue(live)

	case value.KindBytes, value.KindList, value.KindTable:
		return ectx.jsValueParse(v.Export())
	}

	return nil, fmt.Errorf("no javascript cast for %s values", v.Kind())
}

func (ectx *Context) jsValueParse(data interface{}) (*v8go.Value, error) {
	raw, err := jsoniter.Marshal(data)
	if err != nil {
		return nil, err
	}
	return v8go.JSONParse(ectx.ctx, string(raw))
}

// jsFunction wrap a function-kind weak reference as a JS function. The
// handle resolves at every call, so the binding follows the host's
// current table entry. Arguments cross through the invocation bridge;
// transient values are tracked in the host's deferred-release pool and
// drained when the call returns.
func (ectx *Context) jsFunction(wref *value.Value) *v8go.Function {
	tmpl := v8go.NewFunctionTemplate(ectx.iso, func(info *v8go.FunctionCallbackInfo) *v8go.Value {

		live := ectx.host.AccessWeakref(wref)
		if live == nil {
			return ectx.throw("function binding is gone")
		}

		// drain only what this frame pools; a reentrant call must not
		// release the outer frame's arguments
		mark := ectx.host.PoolMark()
		defer ectx.host.DrainPoolTo(mark)

		frame := value.NewFrame()
		for _, jsArg := range info.Args() {
			raw, err := goValue(jsArg)
			if err != nil {
				return ectx.throw(err.Error())
			}
			arg := value.Of(raw)
			ectx.host.FillPool(arg)
			frame.Push(arg)
		}

		if !scripting.Invoke(live, frame) {
			return ectx.throw("invalid arguments")
		}

		if len(frame.Returns) == 0 {
			return v8go.Undefined(ectx.iso)
		}

		ret := frame.Returns[0]
		ectx.host.FillPool(ret)
		jsRet, err := ectx.jsValue(ret)
		if err != nil {
			return ectx.throw(err.Error())
		}
		return jsRet
	})

	return tmpl.GetFunction(ectx.ctx)
}

func (ectx *Context) throw(message string) *v8go.Value {
	jsMessage, err := v8go.NewValue(ectx.iso, message)
	if err != nil {
		return v8go.Undefined(ectx.iso)
	}
	return ectx.iso.ThrowException(jsMessage)
}

// goValue cast a JavaScript value to a plain Go datum
func goValue(jsValue *v8go.Value) (interface{}, error) {

	if jsValue.IsNull() || jsValue.IsUndefined() {
		return nil, nil
	}

	if jsValue.IsString() {
		return jsValue.String(), nil
	}

	if jsValue.IsBoolean() {
		return jsValue.Boolean(), nil
	}

	if jsValue.IsBigInt() {
		return jsValue.BigInt().Int64(), nil
	}

	if jsValue.IsNumber() {
		if jsValue.IsInt32() {
			return int64(jsValue.Int32()), nil
		}
		return jsValue.Number(), nil
	}

	// arrays, objects
	raw, err := jsValue.MarshalJSON()
	if err != nil {
		return nil, err
	}

	var data interface{}
	if err := jsoniter.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// TransformTS transform typescript source to javascript
func TransformTS(source []byte) ([]byte, error) {
	result := api.Transform(string(source), api.TransformOptions{
		Loader: api.LoaderTS,
		Target: api.ESNext,
	})

	if len(result.Errors) > 0 {
		messages := []string{}
		for _, err := range result.Errors {
			messages = append(messages, err.Text)
		}
		return nil, fmt.Errorf("transform ts code error: %v", strings.Join(messages, "\n"))
	}

	return result.Code, nil
}
