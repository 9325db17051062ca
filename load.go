package scripting

import (
	"github.com/hostbridge/scripting/resource"
	"github.com/yaoapp/kun/exception"
	"github.com/yaoapp/kun/log"
)

// LoadResource ask each registered engine whether it recognizes the
// resource and delegate to the first one that claims it. Probing order
// is registration-map order, so if two engines could claim the same
// format the outcome is undefined; format sniffing should be
// unambiguous across registered engines. Returns ErrNoEngine when no
// engine claims the resource. Once an engine has claimed it there is no
// fallback to another on load failure.
func (ctx *Context) LoadResource(name string, res resource.Resource) error {
	var selected EngineContext
	var selectedName string

	for engineName, engine := range ctx.engines {
		if engine.IsScript(name, res) {
			selected = engine
			selectedName = engineName
			break
		}
	}

	if selected == nil {
		return ErrNoEngine
	}

	if err := selected.Load(res); err != nil {
		log.Error("[Script] engine %s load %s: %s", selectedName, name, err.Error())
		return err
	}

	ctx.loaded[name] = selectedName
	return nil
}

// LoadFile open path from the host filesystem and load it, closing the
// resource on every exit path
func (ctx *Context) LoadFile(path string) error {
	res, err := resource.Open(path)
	if err != nil {
		return err
	}
	defer res.Close()
	return ctx.LoadResource(path, res)
}

// MustLoadFile load a file or throw
func (ctx *Context) MustLoadFile(path string) *Context {
	if err := ctx.LoadFile(path); err != nil {
		exception.New("load script %s: %s", 500, path, err.Error()).Throw()
	}
	return ctx
}

// LoadBundle read name from the bundle and load it. Scripts loaded this
// way are tracked by their bundle-relative name, which is what Watch
// uses to reload them on change.
func (ctx *Context) LoadBundle(bundle resource.Bundle, name string) error {
	data, err := bundle.Read(name)
	if err != nil {
		return err
	}
	res := resource.NewBuffer(name, data)
	defer res.Close()
	return ctx.LoadResource(name, res)
}
