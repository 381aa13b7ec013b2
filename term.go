package hijackstream

import (
	"os"

	"golang.org/x/term"
)

// Terminal switches an interactive input between raw and cooked mode.
type Terminal interface {
	IsRaw() bool
	SetRaw(raw bool) error
}

// FileTerminal is a Terminal backed by a tty file descriptor.
type FileTerminal struct {
	fd    int
	state *term.State // saved cooked state while raw
}

// NewFileTerminal returns a FileTerminal for f, or ErrNotTerminal.
func NewFileTerminal(f *os.File) (*FileTerminal, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNotTerminal
	}
	return &FileTerminal{fd: fd}, nil
}

// IsRaw reports whether SetRaw(true) is in effect.
func (t *FileTerminal) IsRaw() bool { return t.state != nil }

// SetRaw enters or leaves raw mode. Repeating the current mode is a no-op.
func (t *FileTerminal) SetRaw(raw bool) error {
	if raw == t.IsRaw() {
		return nil
	}
	if raw {
		st, err := term.MakeRaw(t.fd)
		if err != nil {
			return err
		}
		t.state = st
		return nil
	}
	if err := term.Restore(t.fd, t.state); err != nil {
		return err
	}
	t.state = nil
	return nil
}
