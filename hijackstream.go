// Package hijackstream temporarily takes over a readable stream so a caller
// can consume chunks one at a time, then hands the stream back to its
// previous consumers as it found them, optionally pushing unread bytes back.
//
// The typical use is reading a handshake off a stream before normal
// consumption starts:
//
//	prefix := hijackstream.NewPrefixCallback([]byte("\n"), 4096)
//	tap := hijackstream.NewTap(prefix)
//	var c *hijackstream.Controller
//	c, err := hijackstream.NewController(hijackstream.Options{
//		Channel: stream,
//		OnChunk: func(chunk []byte) {
//			tap.OnData(chunk)
//			if prefix.Done() {
//				_ = c.Restore(prefix.Leftover())
//			}
//		},
//		OnTerminate: func(err error) { ... },
//	})
//	if err != nil {
//		return err
//	}
//	c.Start()
//
// Hijack combines both steps for callbacks that do not need the Controller.
package hijackstream

import "errors"

// Tap fans chunks out to callbacks. The first callback error is sticky:
// later chunks are dropped.
type Tap struct {
	callbacks []ChunkCallback
	err       error
}

// NewTap returns a Tap calling cbs in order.
func NewTap(cbs ...ChunkCallback) *Tap {
	return &Tap{callbacks: cbs}
}

// OnData passes chunk to every callback. It fits Options.OnChunk.
func (t *Tap) OnData(chunk []byte) {
	if t.err != nil {
		return
	}
	if err := t.dispatch(chunk); err != nil {
		t.err = err
	}
}

// Err returns the first callback error.
func (t *Tap) Err() error { return t.err }

// Results returns a snapshot of each callback's current state.
func (t *Tap) Results() map[string]any {
	out := make(map[string]any, len(t.callbacks))
	for _, cb := range t.callbacks {
		out[cb.Name()] = cb.Result()
	}
	return out
}

func (t *Tap) dispatch(chunk []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("callback panic: " + formatPanic(r))
		}
	}()

	for _, cb := range t.callbacks {
		if err := cb.OnData(chunk); err != nil {
			return err
		}
	}
	return nil
}

func formatPanic(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return "unknown panic"
	}
}

var (
	_ Channel        = (*Stream)(nil)
	_ RawModeChannel = (*Stream)(nil)
	_ Terminal       = (*FileTerminal)(nil)
	_ ChunkCallback  = (*HashCallback)(nil)
	_ ChunkCallback  = (*SizeCallback)(nil)
	_ ChunkCallback  = (*PrefixCallback)(nil)
	_ ChunkCallback  = (*TeeCallback)(nil)
)
