package scripting

import (
	"errors"
	"fmt"

	"github.com/hostbridge/scripting/value"
	"github.com/yaoapp/kun/log"
)

// ErrNoEngine no registered engine claims the resource
var ErrNoEngine = errors.New("no engine claims the resource")

// Context the root registry. It owns the global scope, the registered
// engine contexts, the weak-reference table and the deferred-release
// pool. All access is single-threaded; the host drives every engine and
// scripting operation from one control thread (no internal locking).
type Context struct {
	rootScope   map[string]*value.Value
	engines     map[string]EngineContext
	weakrefs    map[uint32]*value.Value
	refPool     []*value.Value
	nextWeakref uint32
	loaded      map[string]string // resource name -> engine name
	closed      bool
}

// New create a script context
func New() *Context {
	return &Context{
		rootScope: map[string]*value.Value{},
		engines:   map[string]EngineContext{},
		weakrefs:  map[uint32]*value.Value{},
		refPool:   []*value.Value{},
		loaded:    map[string]string{},
	}
}

// Close tear the context down. Engines are destroyed first, then the
// root scope and the weak-reference table release their references, and
// the deferred-release pool is drained. Safe to call once only.
func (ctx *Context) Close() {
	if ctx.closed {
		return
	}
	ctx.closed = true

	for name, engine := range ctx.engines {
		engine.Destroy()
		delete(ctx.engines, name)
	}

	for key, wref := range ctx.rootScope {
		wref.Deref()
		delete(ctx.rootScope, key)
	}

	for handle, v := range ctx.weakrefs {
		v.Deref()
		delete(ctx.weakrefs, handle)
	}

	ctx.DrainPool()
}

// RegisterEngine create an engine context via the engine's factory and
// store it under the engine's name. A failed factory is not fatal to the
// registry; the engine is simply unavailable.
func (ctx *Context) RegisterEngine(engine Engine) (EngineContext, error) {
	ectx, err := engine.Create(ctx)
	if err != nil {
		log.Warn("[Script] engine %s unavailable: %s", engine.Name(), err.Error())
		return nil, err
	}
	if ectx == nil {
		return nil, fmt.Errorf("engine %s returned no context", engine.Name())
	}
	ctx.engines[engine.Name()] = ectx
	log.Info("[Script] engine %s registered", engine.Name())
	return ectx, nil
}

// Engines the registered engine names
func (ctx *Context) Engines() []string {
	names := []string{}
	for name := range ctx.engines {
		names = append(names, name)
	}
	return names
}

// SetGlobal bind a value under key in the root scope and fan the binding
// out to every registered engine. The scope stores a weak-reference
// wrapper, never the value itself; every engine receives the identical
// wrapper so all of them resolve through the same handle. Replacing an
// existing key clears its old handle first so no engine can observe a
// stale one.
func (ctx *Context) SetGlobal(key string, v *value.Value) {
	if old, has := ctx.rootScope[key]; has {
		ctx.ClearWeakref(old.Handle())
		old.Deref()
	}

	handle := ctx.SetWeakref(v)
	wref := value.Weakref(handle)
	ctx.rootScope[key] = wref

	for name, engine := range ctx.engines {
		if err := engine.SetGlobal(key, wref); err != nil {
			log.Warn("[Script] engine %s setGlobal %s: %s", name, key, err.Error())
		}
	}
}

// RemoveGlobal unbind key from the root scope and every engine. Engines
// are notified before the authoritative handle is torn down, so an
// engine resolving the handle mid-removal still observes a live entry.
// Removing an absent key is a no-op.
func (ctx *Context) RemoveGlobal(key string) {
	wref, has := ctx.rootScope[key]
	if !has {
		return
	}

	for name, engine := range ctx.engines {
		if err := engine.SetGlobal(key, nil); err != nil {
			log.Warn("[Script] engine %s removeGlobal %s: %s", name, key, err.Error())
		}
	}

	ctx.ClearWeakref(wref.Handle())
	wref.Deref()
	delete(ctx.rootScope, key)
}

// Global resolve a root-scope binding to its live value, nil when the
// key is absent
func (ctx *Context) Global(key string) *value.Value {
	wref, has := ctx.rootScope[key]
	if !has {
		return nil
	}
	return ctx.AccessWeakref(wref)
}

// SetWeakref take a strong reference on v and install it in the
// weak-reference table, returning the handle. The next-handle counter
// advances past any handle still occupied, so no two live entries ever
// share one.
func (ctx *Context) SetWeakref(v *value.Value) uint32 {
	v.Ref()
	handle := ctx.nextWeakref
	ctx.weakrefs[handle] = v

	ctx.nextWeakref++
	for {
		if _, occupied := ctx.weakrefs[ctx.nextWeakref]; !occupied {
			break
		}
		ctx.nextWeakref++
	}
	return handle
}

// MakeWeakref install v in the weak-reference table and return a new
// weak-reference value wrapping the handle. The caller's own reference
// on v transfers to the table.
func (ctx *Context) MakeWeakref(v *value.Value) *value.Value {
	handle := ctx.SetWeakref(v)
	v.Deref()
	return value.Weakref(handle)
}

// AccessWeakref resolve v through the weak-reference table. Values that
// are not weak references pass through unchanged, so call sites may hold
// either a direct or an indirected value. A cleared handle yields nil,
// and so does a destroyed weak-reference value: its handle payload is
// gone and must not fall through to whatever occupies handle zero.
func (ctx *Context) AccessWeakref(v *value.Value) *value.Value {
	if v == nil || v.Kind() != value.KindWeakref {
		return v
	}
	if v.Counted() && v.Refs() <= 0 {
		return nil
	}
	return ctx.weakrefs[v.Handle()]
}

// ClearWeakref release the table's reference for handle. Clearing an
// absent handle is a no-op.
func (ctx *Context) ClearWeakref(handle uint32) {
	v, has := ctx.weakrefs[handle]
	if !has {
		return
	}
	v.Deref()
	delete(ctx.weakrefs, handle)
}

// Weakrefs the number of live weak-reference table entries
func (ctx *Context) Weakrefs() int {
	return len(ctx.weakrefs)
}

// FillPool track a transient value for release at the next drain. The
// pool holds no reference of its own: the caller must guarantee the
// value stays alive until DrainPool runs. Scalar and already released
// values are skipped.
func (ctx *Context) FillPool(v *value.Value) {
	if v == nil || !v.Counted() || v.Refs() <= 0 {
		return
	}
	ctx.refPool = append(ctx.refPool, value.Wrap(v))
}

// PoolMark the current pool position. Engines take a mark at frame
// entry and drain back to it on exit, so a nested call reentering from
// the same thread never releases the outer frame's entries.
func (ctx *Context) PoolMark() int {
	return len(ctx.refPool)
}

// DrainPoolTo release every value tracked after mark exactly once and
// truncate the pool back to it
func (ctx *Context) DrainPoolTo(mark int) {
	if mark < 0 {
		mark = 0
	}
	if mark >= len(ctx.refPool) {
		return
	}
	for _, entry := range ctx.refPool[mark:] {
		if target := entry.Unwrap(); target != nil {
			target.Deref()
		}
	}
	ctx.refPool = ctx.refPool[:mark]
}

// DrainPool release every tracked value exactly once and empty the pool
func (ctx *Context) DrainPool() {
	ctx.DrainPoolTo(0)
}

// PoolSize the number of values awaiting the next drain
func (ctx *Context) PoolSize() int {
	return len(ctx.refPool)
}
