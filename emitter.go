package hijackstream

// Event names used by Stream and Controller.
const (
	EventData        = "data"
	EventReadable    = "readable"
	EventKeypress    = "keypress"
	EventEnd         = "end"
	EventError       = "error"
	EventClose       = "close"
	EventPause       = "pause"
	EventResume      = "resume"
	EventNewListener = "newListener"
)

// Event is what a Handler receives.
type Event struct {
	Name   string
	Chunk  []byte // data, keypress
	Err    error  // error
	Target string // newListener: the event the new listener is for
}

// Handler handles one event.
type Handler func(Event)

// Listener is a registered Handler. The pointer is its identity, so a
// listener taken off an emitter can be put back and removed again later.
type Listener struct {
	fn   Handler
	once bool
}

// NewListener wraps fn in a Listener.
func NewListener(fn Handler) *Listener { return &Listener{fn: fn} }

// NewOnceListener wraps fn in a Listener that is removed before its first call.
func NewOnceListener(fn Handler) *Listener { return &Listener{fn: fn, once: true} }

// Once reports whether l is removed before its first call.
func (l *Listener) Once() bool { return l.once }

// ListenerRegistry is the listener half of an emitter.
type ListenerRegistry interface {
	Listeners(name string) []*Listener
	AddListener(name string, l *Listener)
	PrependListener(name string, l *Listener)
	RemoveListener(name string, l *Listener)
	RemoveAllListeners(name string)
}

// Emitter keeps ordered listener lists per event name.
// The zero value is ready to use. It is not safe for concurrent use.
type Emitter struct {
	listeners map[string][]*Listener
	added     func(name string) // called after a listener was registered
}

// On registers fn for name and returns its Listener.
func (e *Emitter) On(name string, fn Handler) *Listener {
	l := NewListener(fn)
	e.AddListener(name, l)
	return l
}

// Once registers fn for a single call.
func (e *Emitter) Once(name string, fn Handler) *Listener {
	l := NewOnceListener(fn)
	e.AddListener(name, l)
	return l
}

// AddListener appends l to the listeners for name.
func (e *Emitter) AddListener(name string, l *Listener) { e.add(name, l, false) }

// PrependListener puts l in front of the listeners for name.
func (e *Emitter) PrependListener(name string, l *Listener) { e.add(name, l, true) }

func (e *Emitter) add(name string, l *Listener, prepend bool) {
	if l == nil {
		return
	}
	if e.ListenerCount(EventNewListener) > 0 {
		e.Emit(Event{Name: EventNewListener, Target: name})
	}
	if e.listeners == nil {
		e.listeners = make(map[string][]*Listener)
	}
	ls := e.listeners[name]
	if prepend {
		ls = append([]*Listener{l}, ls...)
	} else {
		ls = append(ls, l)
	}
	e.listeners[name] = ls
	if e.added != nil {
		e.added(name)
	}
}

// RemoveListener removes the most recently added registration of l.
func (e *Emitter) RemoveListener(name string, l *Listener) {
	ls := e.listeners[name]
	for i := len(ls) - 1; i >= 0; i-- {
		if ls[i] != l {
			continue
		}
		out := make([]*Listener, 0, len(ls)-1)
		out = append(out, ls[:i]...)
		out = append(out, ls[i+1:]...)
		if len(out) == 0 {
			delete(e.listeners, name)
		} else {
			e.listeners[name] = out
		}
		return
	}
}

// RemoveAllListeners drops every listener for name.
func (e *Emitter) RemoveAllListeners(name string) {
	delete(e.listeners, name)
}

// Listeners returns a copy of the listeners for name in call order.
func (e *Emitter) Listeners(name string) []*Listener {
	ls := e.listeners[name]
	if len(ls) == 0 {
		return nil
	}
	out := make([]*Listener, len(ls))
	copy(out, ls)
	return out
}

// ListenerCount returns the number of listeners for name.
func (e *Emitter) ListenerCount(name string) int {
	return len(e.listeners[name])
}

// Emit calls the listeners registered for ev.Name when Emit was called.
// Listeners added or removed by a handler do not change the current round.
func (e *Emitter) Emit(ev Event) bool {
	ls := e.Listeners(ev.Name)
	for _, l := range ls {
		if l.once {
			e.RemoveListener(ev.Name, l)
		}
		l.fn(ev)
	}
	return len(ls) > 0
}
