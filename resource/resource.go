package resource

import (
	"bytes"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// Resource an openable, seekable byte stream holding a script source.
// The registry only ever opens, reads, seeks and closes; the bytes are
// opaque and interpreted entirely by the engine that claims them.
type Resource interface {
	io.Reader
	io.Seeker
	io.Closer
	Name() string
}

// Open open a resource from the host filesystem
func Open(path string) (Resource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Buffer an in-memory resource
type Buffer struct {
	name   string
	reader *bytes.Reader
}

// NewBuffer create an in-memory resource over data
func NewBuffer(name string, data []byte) *Buffer {
	return &Buffer{name: name, reader: bytes.NewReader(data)}
}

// Name the resource name
func (buffer *Buffer) Name() string { return buffer.name }

// Read implements io.Reader
func (buffer *Buffer) Read(p []byte) (int, error) { return buffer.reader.Read(p) }

// Seek implements io.Seeker
func (buffer *Buffer) Seek(offset int64, whence int) (int64, error) {
	return buffer.reader.Seek(offset, whence)
}

// Close implements io.Closer
func (buffer *Buffer) Close() error { return nil }

// Sniff detect the resource content type and seek back to the start, so
// engine probes can sniff without consuming the stream
func Sniff(res Resource) (*mimetype.MIME, error) {
	if _, err := res.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	mime, err := mimetype.DetectReader(res)

	if _, serr := res.Seek(0, io.SeekStart); serr != nil && err == nil {
		err = serr
	}
	return mime, err
}

// ReadAll read the whole resource from the start
func ReadAll(res Resource) ([]byte, error) {
	if _, err := res.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(res)
}
