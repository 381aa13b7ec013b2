package hijackstream

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/charmbracelet/log"
)

// Channel is the readable source a Controller takes over.
type Channel interface {
	ListenerRegistry
	Flow() FlowMode
	Pause()
	Resume()
	Unshift(chunk []byte)
}

// RawModeChannel is a Channel that may be an interactive terminal.
type RawModeChannel interface {
	Channel
	IsTTY() bool
	IsRaw() bool
	SetRawMode(raw bool) error
	RawModeSetter() RawModeSetter
	SetRawModeSetter(fn RawModeSetter)
}

// Options configures Hijack.
type Options struct {
	Channel Channel

	// OnChunk is called once per chunk, in arrival order.
	OnChunk func(chunk []byte)

	// OnTerminate is called at most once, after the channel was restored:
	// nil on end, the error on error, ErrClosedBeforeRead on close.
	OnTerminate func(err error)

	// SkipRawMode leaves the raw mode of an interactive channel alone.
	SkipRawMode bool

	Logger *log.Logger
}

// seized are the events whose existing listeners are taken away for the
// duration of a hijack.
var seized = []string{EventData, EventReadable, EventKeypress}

// active tracks channels with a live Controller.
var active sync.Map

type rawState int

const (
	rawUntouched rawState = iota
	rawForced
	rawOverridden
)

// Controller is one live interception of a Channel.
type Controller struct {
	ch          Channel
	onChunk     func([]byte)
	onTerminate func(error)
	log         *log.Logger

	snapshot *Snapshot
	flow     FlowMode

	tty        RawModeChannel
	raw        rawState
	wasRaw     bool
	origSetRaw RawModeSetter

	// Held until Start.
	started bool
	pending [][]byte
	ending  bool
	endErr  error

	untracked  bool
	terminated bool
	restored   bool

	onData, onError, onClose, onEnd *Listener
}

// Hijack takes over opts.Channel: its data, readable and keypress listeners
// are set aside, chunks go to opts.OnChunk, and the channel is made to flow.
// Call Restore to hand the channel back.
//
// Chunks the channel already buffered may reach OnChunk before Hijack
// returns. Callbacks that need the Controller, typically to call Restore,
// should use NewController and Start instead.
//
// A channel that had never picked a consumption mode cannot be put back into
// that state. Restore pauses it instead and resumes it as soon as a data or
// readable listener is added or Resume is called.
func Hijack(opts Options) (*Controller, error) {
	c, err := NewController(opts)
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// NewController takes over opts.Channel like Hijack but calls neither
// OnChunk nor OnTerminate until Start. Whatever the channel emits in between
// is held and replayed by Start in order.
func NewController(opts Options) (*Controller, error) {
	if opts.Channel == nil {
		return nil, ErrNilChannel
	}
	if opts.OnChunk == nil {
		return nil, ErrNilOnChunk
	}
	if opts.OnTerminate == nil {
		return nil, ErrNilOnTerminate
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	c := &Controller{
		ch:          opts.Channel,
		onChunk:     opts.OnChunk,
		onTerminate: opts.OnTerminate,
		log:         logger,
	}
	if !c.claim() {
		return nil, ErrAlreadyHijacked
	}

	if tty, ok := opts.Channel.(RawModeChannel); ok && tty.IsTTY() && !opts.SkipRawMode {
		if err := c.forceRaw(tty); err != nil {
			c.release()
			return nil, fmt.Errorf("hijackstream: enable raw mode: %w", err)
		}
	}

	c.snapshot = TakeSnapshot(c.ch, seized...)
	c.flow = c.ch.Flow()
	c.log.Debug("stream hijacked", "mode", c.flow, "listeners", c.snapshot.Len(), "raw", c.raw == rawForced)

	c.onData = NewListener(c.handleData)
	c.onError = NewListener(c.handleError)
	c.onClose = NewListener(c.handleClose)
	c.onEnd = NewListener(c.handleEnd)
	// Terminal handlers go in first: adding a data listener may start the
	// flow right away.
	c.ch.PrependListener(EventError, c.onError)
	c.ch.PrependListener(EventClose, c.onClose)
	c.ch.PrependListener(EventEnd, c.onEnd)
	c.ch.PrependListener(EventData, c.onData)
	return c, nil
}

// Start delivers what the channel emitted since NewController and makes the
// channel flow. It is a no-op after the first call or once restored.
func (c *Controller) Start() {
	if c.started || c.restored {
		return
	}
	c.started = true
	for len(c.pending) > 0 && !c.restored {
		chunk := c.pending[0]
		c.pending = c.pending[1:]
		c.onChunk(chunk)
	}
	switch {
	case c.restored:
	case c.ending:
		c.terminate(c.endErr)
	case c.ch.Flow() != FlowFlowing:
		c.ch.Resume()
	}
}

// forceRaw switches tty to raw mode and wraps its setter so that an outside
// call marks raw mode as owned by the caller and unwraps itself.
func (c *Controller) forceRaw(tty RawModeChannel) error {
	wasRaw := tty.IsRaw()
	if err := tty.SetRawMode(true); err != nil {
		return err
	}
	c.tty = tty
	c.wasRaw = wasRaw
	c.raw = rawForced
	c.origSetRaw = tty.RawModeSetter()
	tty.SetRawModeSetter(func(raw bool) error {
		c.raw = rawOverridden
		tty.SetRawModeSetter(c.origSetRaw)
		c.log.Debug("raw mode overridden during hijack", "raw", raw)
		return tty.SetRawMode(raw)
	})
	return nil
}

// Restore hands the channel back as it was found. A non-empty leftover is
// unshifted so the next consumer sees it first, unless the channel already
// terminated. The returned error only reports a failed raw mode restore.
//
// Restore panics when called a second time, or after the channel terminated.
func (c *Controller) Restore(leftover []byte) error {
	return c.reset(leftover)
}

// Terminated reports whether the channel ended, failed or closed while
// hijacked.
func (c *Controller) Terminated() bool { return c.terminated }

// Restored reports whether the channel was handed back, either through
// Restore or because it terminated.
func (c *Controller) Restored() bool { return c.restored }

func (c *Controller) reset(leftover []byte) error {
	if c.restored {
		panic("hijackstream: tried to restore stream twice")
	}
	c.restored = true
	defer c.release()

	c.ch.RemoveListener(EventData, c.onData)
	c.ch.RemoveListener(EventError, c.onError)
	c.ch.RemoveListener(EventClose, c.onClose)
	c.ch.RemoveListener(EventEnd, c.onEnd)

	var err error
	if c.tty != nil {
		c.tty.SetRawModeSetter(c.origSetRaw)
		if c.raw == rawForced {
			if rerr := c.tty.SetRawMode(c.wasRaw); rerr != nil {
				err = fmt.Errorf("hijackstream: restore raw mode: %w", rerr)
			}
		}
	}

	// Mode and buffer go back before the listeners do: a re-added data
	// listener drains the channel on the spot.
	if c.flow != FlowFlowing {
		c.ch.Pause()
	}
	if !c.terminated {
		for i := len(c.pending) - 1; i >= 0; i-- {
			c.ch.Unshift(c.pending[i])
		}
		if len(leftover) > 0 {
			c.ch.Unshift(leftover)
		}
	}
	c.pending = nil
	c.snapshot.Restore(c.ch)
	if c.flow == FlowUndetermined {
		c.rearm()
	}

	c.log.Debug("stream restored", "mode", c.flow, "terminated", c.terminated,
		"leftover", len(leftover), "raw_overridden", c.raw == rawOverridden)
	c.snapshot = nil
	return err
}

// rearm resumes the channel on the first data/readable listener or Resume
// call, which is as close to the undetermined mode as a paused channel gets.
func (c *Controller) rearm() {
	ch := c.ch
	var onNew, onResume *Listener
	onNew = NewListener(func(ev Event) {
		if ev.Target == EventData || ev.Target == EventReadable {
			ch.Resume()
		}
	})
	onResume = NewListener(func(Event) {
		ch.RemoveListener(EventNewListener, onNew)
		ch.RemoveListener(EventResume, onResume)
	})
	ch.AddListener(EventNewListener, onNew)
	ch.AddListener(EventResume, onResume)
}

func (c *Controller) handleData(ev Event) {
	if c.restored {
		return
	}
	if !c.started {
		c.pending = append(c.pending, ev.Chunk)
		return
	}
	c.onChunk(ev.Chunk)
}

func (c *Controller) handleEnd(Event) {
	c.finish(nil)
}

func (c *Controller) handleError(ev Event) {
	err := ev.Err
	if err == nil {
		err = errors.New("hijackstream: error event without error")
	}
	c.finish(err)
}

func (c *Controller) handleClose(Event) {
	c.finish(ErrClosedBeforeRead)
}

// finish terminates now, or records the first termination for Start.
func (c *Controller) finish(err error) {
	if c.restored {
		return
	}
	if !c.started {
		if !c.ending {
			c.ending = true
			c.endErr = err
		}
		return
	}
	c.terminate(err)
}

func (c *Controller) terminate(err error) {
	c.terminated = true
	if rerr := c.reset(nil); rerr != nil {
		c.log.Warn("raw mode not restored", "err", rerr)
	}
	c.log.Debug("stream terminated", "err", err)
	c.onTerminate(err)
}

// claim registers c as the channel's live session. Channels that cannot be
// map keys are left untracked.
func (c *Controller) claim() (ok bool) {
	if !reflect.TypeOf(c.ch).Comparable() {
		c.untracked = true
		return true
	}
	defer func() {
		// Comparable types may still hold unhashable interface values.
		if recover() != nil {
			c.untracked = true
			ok = true
		}
	}()
	_, loaded := active.LoadOrStore(c.ch, c)
	return !loaded
}

func (c *Controller) release() {
	if c.untracked {
		return
	}
	active.CompareAndDelete(c.ch, c)
}
