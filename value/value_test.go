package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScalarNotCounted(t *testing.T) {
	for _, v := range []*Value{Nil(), Bool(true), Sint(-42), Uint(42), Float(0.618)} {
		assert.False(t, v.Counted())
		assert.Equal(t, int32(0), v.Refs())

		// no-ops
		v.Ref()
		v.Deref()
		v.Deref()
		assert.Equal(t, int32(0), v.Refs())
	}
}

func TestScalarPayloads(t *testing.T) {
	assert.Equal(t, true, Bool(true).Boolean())
	assert.Equal(t, int64(-42), Sint(-42).Int64())
	assert.Equal(t, uint64(42), Uint(42).Uint64())
	assert.Equal(t, 0.618, Float(0.618).Float64())
	assert.Equal(t, KindNil, Nil().Kind())
}

func TestRefDiscipline(t *testing.T) {
	released := 0
	v := String("hello")
	v.Release = func(*Value) { released++ }

	assert.True(t, v.Counted())
	assert.Equal(t, int32(1), v.Refs())

	v.Ref()
	v.Ref()
	assert.Equal(t, int32(3), v.Refs())

	v.Deref()
	v.Deref()
	assert.Equal(t, int32(1), v.Refs())
	assert.Equal(t, 0, released)
	assert.Equal(t, "hello", v.Text())

	v.Deref()
	assert.Equal(t, 1, released)
	assert.Equal(t, "", v.Text())

	// a dead value stays dead, the destructor never runs twice
	v.Deref()
	assert.Equal(t, 1, released)
}

func TestListReleasesItems(t *testing.T) {
	item := String("inner")
	item.Ref() // our own hold, besides the list's

	list := List(item, Sint(1))
	assert.Equal(t, 2, len(list.Items()))

	list.Deref()
	assert.Equal(t, int32(1), item.Refs())
	item.Deref()
	assert.Equal(t, int32(0), item.Refs())
}

func TestTableReleasesEntries(t *testing.T) {
	entry := Bytes([]byte{1, 2, 3})
	entry.Ref()

	table := Table(map[string]*Value{"key": entry})
	assert.Equal(t, entry, table.Entries()["key"])

	table.Deref()
	assert.Equal(t, int32(1), entry.Refs())
	entry.Deref()
}

func TestWrapHoldsNoReference(t *testing.T) {
	target := String("target")
	wrapper := Wrap(target)

	assert.Equal(t, KindWrapper, wrapper.Kind())
	assert.False(t, wrapper.Counted())
	assert.Equal(t, target, wrapper.Unwrap())
	assert.Equal(t, int32(1), target.Refs())

	assert.Nil(t, String("x").Unwrap())
}

func TestWeakrefValue(t *testing.T) {
	wref := Weakref(7)
	assert.Equal(t, KindWeakref, wref.Kind())
	assert.Equal(t, uint32(7), wref.Handle())
	assert.True(t, wref.Counted())
	wref.Deref()
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, "sint", KindSint.String())
	assert.Equal(t, "function", KindFunc.String())
	assert.Equal(t, "any", KindAny.String())
	assert.True(t, KindFloat.Scalar())
	assert.False(t, KindString.Scalar())
}
