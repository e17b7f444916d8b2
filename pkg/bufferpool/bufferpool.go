package bufferpool

import (
	"bytes"
	"encoding/json"
	"sync"
)

const (
	initialSize = 1 << 10

	// buffers grown past maxRetainedSize are dropped instead of pooled.
	maxRetainedSize = 64 << 10
)

var pool = sync.Pool{
	New: func() any {
		return &Buffer{Buffer: bytes.NewBuffer(make([]byte, 0, initialSize))}
	},
}

type Buffer struct {
	*bytes.Buffer
}

// Free returns the Buffer to the pool.
//
// Callers must not retain references to the Buffer after calling Free.
func (b *Buffer) Free() {
	if b.Cap() > maxRetainedSize {
		return
	}
	pool.Put(b)
}

// TrimNewline trims any final "\n" byte from the end of the buffer.
func (b *Buffer) TrimNewline() {
	if i := b.Len() - 1; i >= 0 && b.Bytes()[i] == '\n' {
		b.Truncate(i)
	}
}

func Get() *Buffer {
	buf := pool.Get().(*Buffer)
	buf.Reset()
	return buf
}

// MarshalJSON encodes v with a pooled buffer and returns a copy the caller owns.
// HTML characters are not escaped.
func MarshalJSON(v any) ([]byte, error) {
	buf := Get()
	defer buf.Free()

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	buf.TrimNewline()
	return bytes.Clone(buf.Bytes()), nil
}
