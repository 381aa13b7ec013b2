package hijackstream

import (
	"context"
	"errors"
	"io"
)

const pumpBufferSize = 32 * 1024

// Pump copies r into s through loop until r fails or ctx is done.
// EOF ends the stream, any other read error destroys it with that error,
// and cancellation closes it. Pump blocks; run it on its own goroutine.
//
// A blocked Read is not interrupted by ctx. Wrap r in a cancelable reader
// when that matters.
func Pump(ctx context.Context, loop *Loop, s *Stream, r io.Reader) error {
	w := NewWriter(loop, s)
	buf := make([]byte, pumpBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			_ = w.CloseWithError(nil)
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return w.Close()
		case ctx.Err() != nil:
			_ = w.CloseWithError(nil)
			return ctx.Err()
		default:
			_ = w.CloseWithError(err)
			return err
		}
	}
}
