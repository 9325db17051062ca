package wasm

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hostbridge/scripting"
	"github.com/hostbridge/scripting/resource"
	"github.com/hostbridge/scripting/value"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/yaoapp/kun/log"
)

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d} // "\0asm"

// HostModule the import module name scripts bind host globals from
const HostModule = "host"

// Engine the WebAssembly engine descriptor
type Engine struct {
	name string
}

// New create the engine descriptor
func New() *Engine {
	return &Engine{name: "wasm"}
}

// Name the engine name
func (engine *Engine) Name() string {
	return engine.name
}

// Create build the per-engine adapter
func (engine *Engine) Create(host *scripting.Context) (scripting.EngineContext, error) {
	log.Info("[WASM] engine context created")
	return &Context{
		host:    host,
		globals: map[string]*value.Value{},
	}, nil
}

type instance struct {
	name    string
	runtime wazero.Runtime
	module  api.Module
}

// Context the per-engine adapter. Each loaded script runs in its own
// wazero runtime, with the globals known at load time linked in as host
// functions; later global changes take effect at the next load.
type Context struct {
	host      *scripting.Context
	globals   map[string]*value.Value // key -> weak-reference wrapper
	instances []instance
}

// Destroy close every module instance and runtime
func (ectx *Context) Destroy() {
	ctx := context.Background()
	for _, inst := range ectx.instances {
		if err := inst.runtime.Close(ctx); err != nil {
			log.Warn("[WASM] close %s: %s", inst.name, err.Error())
		}
	}
	ectx.instances = nil
	ectx.globals = nil
	log.Info("[WASM] engine context destroyed")
}

// SetGlobal record a weak-reference wrapper for name. A nil value
// removes the binding. Wasm modules import globals at link time, so the
// binding applies to modules loaded from here on.
func (ectx *Context) SetGlobal(name string, wref *value.Value) error {
	if wref == nil {
		delete(ectx.globals, name)
		return nil
	}
	ectx.globals[name] = wref
	return nil
}

// IsScript claim resources carrying the wasm magic or a .wasm extension
func (ectx *Context) IsScript(name string, res resource.Resource) bool {
	if strings.ToLower(filepath.Ext(name)) == ".wasm" {
		return true
	}

	head := make([]byte, 4)
	if _, err := res.Seek(0, 0); err != nil {
		return false
	}
	n, err := res.Read(head)
	res.Seek(0, 0)
	if err != nil || n < 4 {
		return false
	}
	return bytes.Equal(head, wasmMagic)
}

// Load compile and instantiate the module in a fresh runtime with WASI
// and the current host globals linked in. The module's _start runs when
// exported.
func (ectx *Context) Load(res resource.Resource) error {
	source, err := resource.ReadAll(res)
	if err != nil {
		return err
	}

	ctx := context.Background()
	runtime := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig())
	wasi_snapshot_preview1.MustInstantiate(ctx, runtime)

	if err := ectx.bindHost(ctx, runtime); err != nil {
		runtime.Close(ctx)
		return fmt.Errorf("[WASM] %s %s", res.Name(), err.Error())
	}

	module, err := runtime.Instantiate(ctx, source)
	if err != nil {
		runtime.Close(ctx)
		return fmt.Errorf("[WASM] %s %s", res.Name(), err.Error())
	}

	ectx.instances = append(ectx.instances, instance{
		name:    res.Name(),
		runtime: runtime,
		module:  module,
	})
	return nil
}

// bindHost export the current globals as functions of the host module.
// Function values keep their declared signature; scalar values become
// no-argument getters that resolve the weak reference at call time.
// Globals whose shape cannot cross the flat wasm ABI are skipped.
func (ectx *Context) bindHost(ctx context.Context, runtime wazero.Runtime) error {
	if len(ectx.globals) == 0 {
		return nil
	}

	builder := runtime.NewHostModuleBuilder(HostModule)
	exported := 0

	for name, wref := range ectx.globals {
		live := ectx.host.AccessWeakref(wref)
		if live == nil {
			continue
		}

		if live.Kind() == value.KindFunc {
			params, results, ok := flatten(live.Func().Signature)
			if !ok {
				log.Warn("[WASM] global %s: signature does not flatten, skipped", name)
				continue
			}
			builder.NewFunctionBuilder().
				WithGoFunction(ectx.hostFunc(wref), params, results).
				Export(name)
			exported++
			continue
		}

		results, ok := flatKind(live.Kind())
		if !ok {
			log.Warn("[WASM] global %s: %s values do not flatten, skipped", name, live.Kind())
			continue
		}
		builder.NewFunctionBuilder().
			WithGoFunction(ectx.hostGetter(wref), nil, []api.ValueType{results}).
			Export(name)
		exported++
	}

	if exported == 0 {
		return nil
	}

	_, err := builder.Instantiate(ctx)
	return err
}

// hostFunc bridge a wasm call into the invocation bridge. The weak
// reference resolves at call time, so rebinding the handle redirects
// calls without relinking.
func (ectx *Context) hostFunc(wref *value.Value) api.GoFunc {
	return api.GoFunc(func(_ context.Context, stack []uint64) {
		live := ectx.host.AccessWeakref(wref)
		if live == nil || live.Kind() != value.KindFunc {
			clear(stack)
			return
		}

		// drain only what this frame pools; a reentrant call must not
		// release the outer frame's arguments
		mark := ectx.host.PoolMark()
		defer ectx.host.DrainPoolTo(mark)

		signature := live.Func().Signature
		frame := value.NewFrame()
		for i, param := range signature.Params {
			if i >= len(stack) {
				break
			}
			frame.Push(liftArg(param.Kind, stack[i]))
		}

		if !scripting.Invoke(live, frame) {
			clear(stack)
			return
		}

		if len(signature.Results) == 0 || len(frame.Returns) == 0 {
			return
		}

		ret := frame.Returns[0]
		ectx.host.FillPool(ret)
		stack[0] = lowerResult(signature.Results[0], ret)
	})
}

// hostGetter resolve a scalar global at call time
func (ectx *Context) hostGetter(wref *value.Value) api.GoFunc {
	return api.GoFunc(func(_ context.Context, stack []uint64) {
		live := ectx.host.AccessWeakref(wref)
		if live == nil {
			stack[0] = 0
			return
		}
		stack[0] = lowerResult(live.Kind(), live)
	})
}

// flatten map a signature onto wasm value types, false when any part
// has no flat representation
func flatten(signature value.Signature) (params []api.ValueType, results []api.ValueType, ok bool) {
	for _, param := range signature.Params {
		vt, flat := flatKind(param.Kind)
		if !flat {
			return nil, nil, false
		}
		params = append(params, vt)
	}

	if len(signature.Results) > 1 {
		return nil, nil, false
	}

	for _, kind := range signature.Results {
		vt, flat := flatKind(kind)
		if !flat {
			return nil, nil, false
		}
		results = append(results, vt)
	}
	return params, results, true
}

func flatKind(kind value.Kind) (api.ValueType, bool) {
	switch kind {
	case value.KindBool, value.KindSint, value.KindUint:
		return api.ValueTypeI64, true
	case value.KindFloat:
		return api.ValueTypeF64, true
	}
	return 0, false
}

// liftArg decode one stack slot into a value of the declared kind
func liftArg(kind value.Kind, raw uint64) *value.Value {
	switch kind {
	case value.KindBool:
		return value.Bool(raw != 0)
	case value.KindSint:
		return value.Sint(int64(raw))
	case value.KindUint:
		return value.Uint(raw)
	case value.KindFloat:
		return value.Float(api.DecodeF64(raw))
	}
	return value.Nil()
}

// lowerResult encode a value onto a stack slot by its declared kind
func lowerResult(kind value.Kind, v *value.Value) uint64 {
	switch kind {
	case value.KindBool:
		if v.Boolean() {
			return 1
		}
		return 0
	case value.KindSint:
		return uint64(v.Int64())
	case value.KindUint:
		return v.Uint64()
	case value.KindFloat:
		return api.EncodeF64(v.Float64())
	}
	return 0
}
