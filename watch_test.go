package scripting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bundleEvent struct {
	event string
	name  string
}

// eventBundle a bundle double replaying a fixed event sequence through
// the watch handler
type eventBundle struct {
	memBundle
	events []bundleEvent
}

func (bundle *eventBundle) Watch(handler func(event string, name string), interrupt chan uint8) error {
	for _, ev := range bundle.events {
		handler(ev.event, ev.name)
	}
	return nil
}

func TestWatchReloadsLoadedScripts(t *testing.T) {
	ctx := New()
	defer ctx.Close()

	claiming := &fakeEngine{name: "claiming", claims: func(string) bool { return true }}
	ctx.RegisterEngine(claiming)

	bundle := &eventBundle{
		memBundle: memBundle{files: map[string][]byte{
			"main.zz":  []byte("entry"),
			"other.zz": []byte("never loaded"),
		}},
	}
	require.NoError(t, ctx.LoadBundle(bundle, "main.zz"))

	bundle.events = []bundleEvent{
		{"WRITE", "main.zz"},  // reloads
		{"WRITE", "other.zz"}, // never loaded, ignored
		{"REMOVE", "main.zz"}, // not a content change, ignored
		{"CREATE", "main.zz"}, // reloads
	}

	interrupt := make(chan uint8, 1)
	require.NoError(t, ctx.Watch(bundle, interrupt))

	// the initial load plus one reload per WRITE/CREATE of a loaded name
	assert.Equal(t, []string{"main.zz", "main.zz", "main.zz"}, claiming.ctx.loads)
}

func TestWatchSurvivesReadFailure(t *testing.T) {
	ctx := New()
	defer ctx.Close()

	engine := &fakeEngine{name: "any", claims: func(string) bool { return true }}
	ctx.RegisterEngine(engine)

	bundle := &eventBundle{
		memBundle: memBundle{files: map[string][]byte{"main.zz": []byte("entry")}},
	}
	require.NoError(t, ctx.LoadBundle(bundle, "main.zz"))

	// the file disappears before the reload reads it
	delete(bundle.files, "main.zz")
	bundle.events = []bundleEvent{{"WRITE", "main.zz"}}

	interrupt := make(chan uint8, 1)
	require.NoError(t, ctx.Watch(bundle, interrupt))
	assert.Equal(t, []string{"main.zz"}, engine.ctx.loads)
}
