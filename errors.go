package hijackstream

import "errors"

var (
	// ErrClosedBeforeRead is passed to OnTerminate when the channel closes
	// without ending or failing first.
	ErrClosedBeforeRead = errors.New("stream closed before data could be read")

	ErrNilChannel      = errors.New("hijackstream: channel is nil")
	ErrNilOnChunk      = errors.New("hijackstream: OnChunk is nil")
	ErrNilOnTerminate  = errors.New("hijackstream: OnTerminate is nil")
	ErrAlreadyHijacked = errors.New("hijackstream: channel is already hijacked")

	ErrPushAfterEOF  = errors.New("hijackstream: push after EOF")
	ErrNotTerminal   = errors.New("hijackstream: not a terminal")
	ErrWriterClosed  = errors.New("hijackstream: write to closed writer")
	ErrPrefixTooLong = errors.New("hijackstream: prefix exceeds limit without delimiter")
)
