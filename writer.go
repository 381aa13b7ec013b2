package hijackstream

import (
	"bytes"
	"io"
	"sync/atomic"
)

// Writer feeds a Stream from any goroutine. Every Write posts a copy of its
// input to the stream's Loop as one chunk.
type Writer struct {
	loop   *Loop
	dst    *Stream
	closed atomic.Bool
}

// NewWriter returns a Writer pushing into s on loop.
func NewWriter(loop *Loop, s *Stream) *Writer {
	return &Writer{loop: loop, dst: s}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed.Load() {
		return 0, ErrWriterClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	chunk := bytes.Clone(p)
	if !w.loop.Post(func() { w.dst.Push(chunk) }) {
		return 0, ErrWriterClosed
	}
	return len(p), nil
}

// Close ends the stream. Closing twice is a no-op.
func (w *Writer) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	w.loop.Post(w.dst.End)
	return nil
}

// CloseWithError destroys the stream with err instead of ending it.
// A nil err closes the stream without an end event.
func (w *Writer) CloseWithError(err error) error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	w.loop.Post(func() { w.dst.Destroy(err) })
	return nil
}

var _ io.WriteCloser = (*Writer)(nil)
