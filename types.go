package scripting

import (
	"github.com/hostbridge/scripting/resource"
	"github.com/hostbridge/scripting/value"
)

// Engine the descriptor every embedded scripting engine registers with.
// Create builds the per-engine adapter; a nil context or an error means
// the engine is unavailable, which is not fatal to the registry.
type Engine interface {
	Name() string
	Create(ctx *Context) (EngineContext, error)
}

// EngineContext the per-engine adapter. One instance exists per
// registered engine, created at registration and destroyed once at
// context teardown.
//
// SetGlobal receives the same weak-reference value the root scope
// stores; a nil value removes the binding. IsScript may read from the
// resource to sniff its format but must seek back to the start before
// returning. Load consumes the resource; the registry closes it.
type EngineContext interface {
	Destroy()
	SetGlobal(name string, v *value.Value) error
	IsScript(name string, res resource.Resource) bool
	Load(res resource.Resource) error
}
