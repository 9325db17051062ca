package v8

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hostbridge/scripting"
	"github.com/hostbridge/scripting/resource"
	"github.com/hostbridge/scripting/value"
	"github.com/yaoapp/kun/log"
	"rogchap.com/v8go"
)

// Engine the JavaScript/TypeScript engine descriptor
type Engine struct {
	name string
}

// New create the engine descriptor
func New() *Engine {
	return &Engine{name: "javascript"}
}

// Name the engine name
func (engine *Engine) Name() string {
	return engine.name
}

// Create build the per-engine adapter with a fresh isolate and context
func (engine *Engine) Create(host *scripting.Context) (scripting.EngineContext, error) {
	iso := v8go.NewIsolate()
	ctx := v8go.NewContext(iso)
	log.Info("[V8] engine context created")
	return &Context{
		host:    host,
		iso:     iso,
		ctx:     ctx,
		globals: map[string]*value.Value{},
	}, nil
}

// Context the per-engine adapter around one v8 isolate
type Context struct {
	host    *scripting.Context
	iso     *v8go.Isolate
	ctx     *v8go.Context
	globals map[string]*value.Value // key -> weak-reference wrapper
}

// Destroy release the isolate and everything bound to it
func (ectx *Context) Destroy() {
	ectx.globals = nil
	ectx.ctx.Close()
	ectx.iso.Dispose()
	log.Info("[V8] engine context destroyed")
}

// SetGlobal bind a weak-reference wrapper under name in the JS global
// object. A nil value removes the binding. The wrapper is resolved
// through the host context; function values resolve again at every call
// so rebinding the handle takes effect immediately.
func (ectx *Context) SetGlobal(name string, wref *value.Value) error {
	if wref == nil {
		delete(ectx.globals, name)
		ectx.ctx.Global().Delete(name)
		return nil
	}

	live := ectx.host.AccessWeakref(wref)
	if live == nil {
		return fmt.Errorf("global %s: weak reference is cleared", name)
	}

	ectx.globals[name] = wref

	if live.Kind() == value.KindFunc {
		fn := ectx.jsFunction(wref)
		return ectx.ctx.Global().Set(name, fn)
	}

	jsValue, err := ectx.jsValue(live)
	if err != nil {
		return err
	}
	return ectx.ctx.Global().Set(name, jsValue)
}

// IsScript claim JavaScript and TypeScript sources by extension, then
// by sniffed content type
func (ectx *Context) IsScript(name string, res resource.Resource) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".js", ".mjs", ".cjs", ".ts":
		return true
	}

	mime, err := resource.Sniff(res)
	if err != nil {
		return false
	}
	return mime.Is("text/javascript") || mime.Is("application/javascript")
}

// Load compile and run a script in the engine context. TypeScript
// sources are transformed first.
func (ectx *Context) Load(res resource.Resource) error {
	source, err := resource.ReadAll(res)
	if err != nil {
		return err
	}

	if strings.HasSuffix(res.Name(), ".ts") {
		source, err = TransformTS(source)
		if err != nil {
			return err
		}
	}

	if _, err := ectx.ctx.RunScript(string(source), res.Name()); err != nil {
		return fmt.Errorf("[V8] %s %s", res.Name(), err.Error())
	}
	return nil
}
