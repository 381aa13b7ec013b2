package hijackstream

// Snapshot holds the listeners taken off an emitter for a set of events.
type Snapshot struct {
	events    []string
	listeners map[string][]*Listener
}

// TakeSnapshot removes and remembers every listener registered on r for
// events.
func TakeSnapshot(r ListenerRegistry, events ...string) *Snapshot {
	s := &Snapshot{
		events:    append([]string(nil), events...),
		listeners: make(map[string][]*Listener, len(events)),
	}
	for _, ev := range events {
		s.listeners[ev] = r.Listeners(ev)
		r.RemoveAllListeners(ev)
	}
	return s
}

// Len returns the number of captured listeners.
func (s *Snapshot) Len() int {
	n := 0
	for _, ls := range s.listeners {
		n += len(ls)
	}
	return n
}

// Restore adds the captured listeners back to r in their original order,
// after anything registered on r since.
func (s *Snapshot) Restore(r ListenerRegistry) {
	for _, ev := range s.events {
		for _, l := range s.listeners[ev] {
			r.AddListener(ev, l)
		}
	}
}
