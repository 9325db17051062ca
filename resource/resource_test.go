package resource

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuffer(t *testing.T) {
	buffer := NewBuffer("mem.js", []byte("let x = 1"))
	assert.Equal(t, "mem.js", buffer.Name())

	data, err := io.ReadAll(buffer)
	require.NoError(t, err)
	assert.Equal(t, "let x = 1", string(data))

	// seek back and read again
	_, err = buffer.Seek(0, io.SeekStart)
	require.NoError(t, err)
	data, err = io.ReadAll(buffer)
	require.NoError(t, err)
	assert.Equal(t, "let x = 1", string(data))

	assert.NoError(t, buffer.Close())
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boot.js")
	require.NoError(t, os.WriteFile(path, []byte("1 + 1"), 0644))

	res, err := Open(path)
	require.NoError(t, err)
	defer res.Close()

	data, err := io.ReadAll(res)
	require.NoError(t, err)
	assert.Equal(t, "1 + 1", string(data))

	_, err = Open(filepath.Join(dir, "absent.js"))
	assert.Error(t, err)
}

func TestSniff(t *testing.T) {
	res := NewBuffer("mod.wasm", []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})
	mime, err := Sniff(res)
	require.NoError(t, err)
	assert.True(t, mime.Is("application/wasm"))

	// the stream is rewound after sniffing
	data, err := io.ReadAll(res)
	require.NoError(t, err)
	assert.Equal(t, 8, len(data))
}

func TestSniffJSON(t *testing.T) {
	res := NewBuffer("data.json", []byte(`{"key": "value"}`))
	mime, err := Sniff(res)
	require.NoError(t, err)
	assert.True(t, mime.Is("application/json"))
}

func TestReadAll(t *testing.T) {
	res := NewBuffer("x.js", []byte("abc"))

	// consume, then ReadAll still returns everything
	io.ReadAll(res)
	data, err := ReadAll(res)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}
