package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aiagentinc/hijackstream"
	"github.com/charmbracelet/log"
	"github.com/muesli/cancelreader"
)

// ErrHandshake wraps every failure to read the handshake.
var ErrHandshake = errors.New("handshake failed")

// session wires stdin to stdout through a stream whose first line is taken
// by a hijack.
type session struct {
	delim  []byte
	max    int
	noRaw  bool
	log    *log.Logger
	loop   *hijackstream.Loop
	stream *hijackstream.Stream
	ctrl   *hijackstream.Controller

	handshake []byte
	errs      []error
}

func newSession(in io.Reader, delim []byte, max int, noRaw bool, logger *log.Logger) *session {
	s := &session{
		delim: delim,
		max:   max,
		noRaw: noRaw,
		log:   logger,
		loop:  hijackstream.NewLoop(64),
	}
	s.stream = s.newStream(in)
	return s
}

func (s *session) newStream(in io.Reader) *hijackstream.Stream {
	f, ok := in.(*os.File)
	if !ok || s.noRaw {
		return hijackstream.NewStream()
	}
	t, err := hijackstream.NewFileTerminal(f)
	if err != nil {
		return hijackstream.NewStream()
	}
	s.delim = rawDelimiter(s.delim)
	s.log.Debug("stdin is a terminal", "delimiter", fmt.Sprintf("%q", s.delim))
	return hijackstream.NewTTYStream(t)
}

// run copies in to out, minus the handshake, until in is exhausted or ctx
// is done.
func (s *session) run(ctx context.Context, in io.Reader, out io.Writer) error {
	st := s.stream
	st.On(hijackstream.EventData, func(ev hijackstream.Event) {
		if _, err := out.Write(ev.Chunk); err != nil {
			st.Destroy(fmt.Errorf("write output: %w", err))
		}
	})
	st.On(hijackstream.EventError, func(ev hijackstream.Event) {
		// Errors during the handshake were already reported by OnTerminate.
		if !s.ctrl.Terminated() {
			s.errs = append(s.errs, ev.Err)
		}
	})
	st.On(hijackstream.EventClose, func(hijackstream.Event) { s.loop.Stop() })

	prefix := hijackstream.NewPrefixCallback(s.delim, s.max)
	size := hijackstream.NewSizeCallback(0)
	tap := hijackstream.NewTap(prefix, size)

	ctrl, err := hijackstream.NewController(hijackstream.Options{
		Channel: st,
		Logger:  s.log,
		OnChunk: func(chunk []byte) {
			tap.OnData(chunk)
			switch {
			case tap.Err() != nil:
				s.fail(tap.Err())
				s.restore(nil)
				st.Destroy(nil)
			case prefix.Done():
				s.handshake = prefix.Prefix()
				s.log.Info("handshake",
					"line", strings.TrimSuffix(string(s.handshake), string(s.delim)),
					"sha256", digest(s.handshake),
					"intercepted", size.Size())
				s.restore(prefix.Leftover())
			}
		},
		OnTerminate: func(err error) {
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			s.fail(err)
		},
	})
	if err != nil {
		return err
	}
	s.ctrl = ctrl
	ctrl.Start()

	cr, err := cancelreader.NewReader(in)
	if err != nil {
		s.restore(nil)
		return fmt.Errorf("wrap input: %w", err)
	}
	defer cr.Close()

	pumpCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := hijackstream.Pump(pumpCtx, s.loop, st, cr); err != nil && !errors.Is(err, cancelreader.ErrCanceled) {
			s.log.Debug("pump stopped", "err", err)
		}
	}()

	runErr := s.loop.Run(ctx)
	cr.Cancel()
	// The loop is gone, so this goroutine owns the stream now.
	if !s.ctrl.Restored() {
		s.restore(nil)
	}
	if runErr != nil {
		return runErr
	}
	return errors.Join(s.errs...)
}

func (s *session) restore(leftover []byte) {
	if err := s.ctrl.Restore(leftover); err != nil {
		s.log.Warn("restore", "err", err)
	}
}

func (s *session) fail(err error) {
	s.errs = append(s.errs, fmt.Errorf("%w: %w", ErrHandshake, err))
}

// rawDelimiter returns the delimiter to look for on a raw terminal, where
// Enter sends \r alone.
func rawDelimiter(delim []byte) []byte {
	switch string(delim) {
	case "\n", "\r\n":
		return []byte("\r")
	}
	return delim
}

func digest(b []byte) string {
	h := hijackstream.NewHashCallback("sha256")
	_ = h.OnData(b)
	return h.HexSum()
}
