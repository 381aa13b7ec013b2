package hijackstream

import "bytes"

// FlowMode is the consumption mode of a Stream.
type FlowMode int

const (
	// FlowUndetermined means no consumer has picked a mode yet.
	FlowUndetermined FlowMode = iota
	// FlowFlowing means chunks are emitted as data events.
	FlowFlowing
	// FlowPaused means chunks stay buffered until Read or Resume.
	FlowPaused
)

func (m FlowMode) String() string {
	switch m {
	case FlowFlowing:
		return "flowing"
	case FlowPaused:
		return "paused"
	default:
		return "undetermined"
	}
}

// RawModeSetter switches a terminal between raw and line-buffered input.
type RawModeSetter func(raw bool) error

// Stream is a readable event-emitting chunk source.
//
// Chunks come in through Push and leave as data events (flowing mode) or
// through Read (paused mode). Stream is driven from a single goroutine,
// usually a Loop; producers on other goroutines go through a Writer.
type Stream struct {
	Emitter

	buf        [][]byte
	flow       FlowMode
	ended      bool // End was called
	endEmitted bool
	destroyed  bool

	term   Terminal
	setRaw RawModeSetter
}

// NewStream returns an empty stream in undetermined mode.
func NewStream() *Stream {
	s := &Stream{}
	s.added = s.listenerAdded
	return s
}

// NewTTYStream returns a stream whose raw mode is backed by t.
func NewTTYStream(t Terminal) *Stream {
	s := NewStream()
	s.term = t
	s.setRaw = t.SetRaw
	return s
}

// Flow returns the current consumption mode.
func (s *Stream) Flow() FlowMode { return s.flow }

// Buffered returns the number of buffered bytes.
func (s *Stream) Buffered() int {
	n := 0
	for _, c := range s.buf {
		n += len(c)
	}
	return n
}

// Destroyed reports whether the stream was destroyed or closed.
func (s *Stream) Destroyed() bool { return s.destroyed }

// Push queues a copy of chunk. It returns false when the stream no longer
// accepts data.
func (s *Stream) Push(chunk []byte) bool {
	if s.destroyed {
		return false
	}
	if s.ended {
		s.Destroy(ErrPushAfterEOF)
		return false
	}
	if len(chunk) == 0 {
		return true
	}
	s.addChunk(bytes.Clone(chunk), false)
	return true
}

// Unshift puts chunk back in front of the buffer so the next read or data
// event returns it first. It is a no-op once the stream was destroyed, which
// includes every stream whose end event fired.
func (s *Stream) Unshift(chunk []byte) {
	if s.destroyed || len(chunk) == 0 {
		return
	}
	s.addChunk(bytes.Clone(chunk), true)
}

func (s *Stream) addChunk(chunk []byte, front bool) {
	if s.flow == FlowFlowing && len(s.buf) == 0 && s.ListenerCount(EventData) > 0 {
		s.Emit(Event{Name: EventData, Chunk: chunk})
	} else {
		if front {
			s.buf = append([][]byte{chunk}, s.buf...)
		} else {
			s.buf = append(s.buf, chunk)
		}
		if s.ListenerCount(EventReadable) > 0 {
			s.Emit(Event{Name: EventReadable})
		}
	}
	s.drain()
}

// drain emits buffered chunks while the stream is flowing and has someone
// listening for them.
func (s *Stream) drain() {
	for s.flow == FlowFlowing && !s.destroyed && len(s.buf) > 0 && s.ListenerCount(EventData) > 0 {
		chunk := s.buf[0]
		s.buf = s.buf[1:]
		s.Emit(Event{Name: EventData, Chunk: chunk})
	}
	if s.flow == FlowFlowing {
		s.maybeEnd()
	}
}

func (s *Stream) maybeEnd() {
	if !s.ended || s.endEmitted || s.destroyed || len(s.buf) > 0 {
		return
	}
	s.endEmitted = true
	s.Emit(Event{Name: EventEnd})
	s.Destroy(nil)
}

// Read returns everything buffered, or nil when the buffer is empty.
func (s *Stream) Read() []byte {
	var out []byte
	if len(s.buf) > 0 {
		out = bytes.Join(s.buf, nil)
		s.buf = nil
	}
	s.maybeEnd()
	return out
}

// Pause stops data events. Chunks keep buffering.
func (s *Stream) Pause() {
	if s.flow == FlowPaused {
		return
	}
	s.flow = FlowPaused
	s.Emit(Event{Name: EventPause})
}

// Resume switches to flowing mode and emits whatever is buffered.
func (s *Stream) Resume() {
	if s.flow != FlowFlowing {
		s.flow = FlowFlowing
		s.Emit(Event{Name: EventResume})
	}
	s.drain()
}

// End marks EOF. The end event fires once buffered data was consumed.
func (s *Stream) End() {
	if s.ended || s.destroyed {
		return
	}
	s.ended = true
	if s.flow == FlowFlowing {
		s.drain()
		return
	}
	if s.ListenerCount(EventReadable) > 0 {
		s.Emit(Event{Name: EventReadable})
	}
}

// Destroy tears the stream down. A non-nil err is emitted as an error event,
// then close is emitted. Later calls are no-ops.
func (s *Stream) Destroy(err error) {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.buf = nil
	if err != nil {
		s.Emit(Event{Name: EventError, Err: err})
	}
	s.Emit(Event{Name: EventClose})
}

// Close destroys the stream without an error.
func (s *Stream) Close() error {
	s.Destroy(nil)
	return nil
}

func (s *Stream) listenerAdded(name string) {
	switch name {
	case EventData:
		if s.flow != FlowPaused {
			s.Resume()
		}
	case EventReadable:
		if s.flow == FlowUndetermined {
			s.flow = FlowPaused
		}
		if len(s.buf) > 0 || (s.ended && !s.endEmitted) {
			s.Emit(Event{Name: EventReadable})
		}
	}
}

// IsTTY reports whether the stream is backed by a terminal.
func (s *Stream) IsTTY() bool { return s.term != nil }

// IsRaw reports whether the terminal is in raw mode.
func (s *Stream) IsRaw() bool { return s.term != nil && s.term.IsRaw() }

// SetRawMode calls the current raw mode setter.
func (s *Stream) SetRawMode(raw bool) error {
	if s.setRaw == nil {
		return ErrNotTerminal
	}
	return s.setRaw(raw)
}

// RawModeSetter returns the setter SetRawMode currently calls.
func (s *Stream) RawModeSetter() RawModeSetter { return s.setRaw }

// SetRawModeSetter replaces the setter SetRawMode calls.
func (s *Stream) SetRawModeSetter(fn RawModeSetter) { s.setRaw = fn }
