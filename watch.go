package scripting

import (
	"github.com/hostbridge/scripting/resource"
	"github.com/yaoapp/kun/log"
)

// Watch reload scripts previously loaded from the bundle when their
// files change. The script is reloaded by the engine that originally
// claimed it; files the context never loaded are ignored. Blocks until
// a value arrives on interrupt.
func (ctx *Context) Watch(bundle resource.Bundle, interrupt chan uint8) error {
	return bundle.Watch(func(event string, name string) {
		if event != "WRITE" && event != "CREATE" {
			return
		}

		engineName, has := ctx.loaded[name]
		if !has {
			return
		}

		engine, has := ctx.engines[engineName]
		if !has {
			return
		}

		data, err := bundle.Read(name)
		if err != nil {
			log.Error("[Script] reload %s: %s", name, err.Error())
			return
		}

		res := resource.NewBuffer(name, data)
		defer res.Close()

		if err := engine.Load(res); err != nil {
			log.Error("[Script] reload %s: %s", name, err.Error())
			return
		}
		log.Info("[Script] reloaded %s (%s)", name, engineName)
	}, interrupt)
}
