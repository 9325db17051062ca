package scripting

import (
	"fmt"
	"path/filepath"

	"github.com/hostbridge/scripting/resource"
	"github.com/hostbridge/scripting/value"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

// Profile a declarative host session setup: globals to preset and
// scripts to load at startup
type Profile struct {
	Globals map[string]interface{} `json:"globals,omitempty" yaml:"globals,omitempty"`
	Scripts []string               `json:"scripts,omitempty" yaml:"scripts,omitempty"`
}

// ParseProfile parse a json/yaml profile by file extension
func ParseProfile(name string, data []byte) (*Profile, error) {
	profile := &Profile{}
	switch ext := filepath.Ext(name); ext {
	case ".json", ".jsonc":
		if err := jsoniter.Unmarshal(data, profile); err != nil {
			return nil, fmt.Errorf("[Profile] %s %s", name, err.Error())
		}
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, profile); err != nil {
			return nil, fmt.Errorf("[Profile] %s %s", name, err.Error())
		}
	default:
		return nil, fmt.Errorf("[Profile] %s %s does not support", name, ext)
	}
	return profile, nil
}

// LoadProfile apply a profile: set each global, then load each script
// from the bundle. Stops at the first script that fails to load.
func (ctx *Context) LoadProfile(bundle resource.Bundle, profile *Profile) error {
	for key, raw := range profile.Globals {
		v := value.Of(raw)
		ctx.SetGlobal(key, v)
		v.Deref() // the weak-reference table holds it now
	}

	for _, name := range profile.Scripts {
		if err := ctx.LoadBundle(bundle, name); err != nil {
			return fmt.Errorf("[Profile] %s %s", name, err.Error())
		}
	}
	return nil
}

// OpenProfile read and parse a profile from the bundle
func OpenProfile(bundle resource.Bundle, name string) (*Profile, error) {
	data, err := bundle.Read(name)
	if err != nil {
		return nil, err
	}
	return ParseProfile(name, data)
}
