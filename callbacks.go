package hijackstream

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

// HashCallback hashes every chunk it sees.
type HashCallback struct {
	name string
	h    hash.Hash
}

// NewHashCallback returns a HashCallback for "md5", "sha1", "sha256" or
// "sha512". Anything else falls back to sha256.
func NewHashCallback(algorithm string) *HashCallback {
	var h hash.Hash
	switch algorithm {
	case "md5":
		h = md5.New()
	case "sha1":
		h = sha1.New()
	case "sha512":
		h = sha512.New()
	default:
		h = sha256.New()
		algorithm = "sha256"
	}
	return &HashCallback{name: algorithm, h: h}
}

func (hc *HashCallback) Name() string { return hc.name }

func (hc *HashCallback) OnData(chunk []byte) error {
	_, _ = hc.h.Write(chunk)
	return nil
}

func (hc *HashCallback) Result() any { return hc.h.Sum(nil) }

// HexSum returns the digest so far as hex.
func (hc *HashCallback) HexSum() string {
	return hex.EncodeToString(hc.h.Sum(nil))
}

// SizeCallback counts bytes and optionally enforces a limit.
type SizeCallback struct {
	size  int64
	limit int64
}

// NewSizeCallback returns a SizeCallback. A limit <= 0 means unlimited.
func NewSizeCallback(limit int64) *SizeCallback { return &SizeCallback{limit: limit} }

func (sc *SizeCallback) Name() string { return "size" }

func (sc *SizeCallback) OnData(chunk []byte) error {
	sc.size += int64(len(chunk))
	if sc.limit > 0 && sc.size > sc.limit {
		return fmt.Errorf("read %d bytes, limit is %d", sc.size, sc.limit)
	}
	return nil
}

func (sc *SizeCallback) Result() any { return sc.size }

// Size returns the number of bytes seen.
func (sc *SizeCallback) Size() int64 { return sc.size }

// PrefixCallback collects chunks until a delimiter shows up. Everything
// after the delimiter is kept as leftover, ready to be handed to Restore.
type PrefixCallback struct {
	delim []byte
	max   int
	buf   []byte
	done  bool
	cut   int // end of prefix in buf, delimiter included
}

// NewPrefixCallback returns a PrefixCallback that fails with
// ErrPrefixTooLong once max bytes arrived without delim. max <= 0 disables
// the limit.
func NewPrefixCallback(delim []byte, max int) *PrefixCallback {
	return &PrefixCallback{delim: bytes.Clone(delim), max: max}
}

func (pc *PrefixCallback) Name() string { return "prefix" }

func (pc *PrefixCallback) OnData(chunk []byte) error {
	if pc.done {
		pc.buf = append(pc.buf, chunk...)
		return nil
	}
	// Only the tail that could still hold a split delimiter needs rescanning.
	from := len(pc.buf) - len(pc.delim) + 1
	if from < 0 {
		from = 0
	}
	pc.buf = append(pc.buf, chunk...)
	if i := bytes.Index(pc.buf[from:], pc.delim); i >= 0 && len(pc.delim) > 0 {
		pc.done = true
		pc.cut = from + i + len(pc.delim)
		if pc.max > 0 && pc.cut > pc.max {
			return ErrPrefixTooLong
		}
		return nil
	}
	if pc.max > 0 && len(pc.buf) > pc.max {
		return ErrPrefixTooLong
	}
	return nil
}

func (pc *PrefixCallback) Result() any { return pc.Prefix() }

// Done reports whether the delimiter was seen.
func (pc *PrefixCallback) Done() bool { return pc.done }

// Prefix returns the bytes up to and including the delimiter, or nil while
// it has not been seen.
func (pc *PrefixCallback) Prefix() []byte {
	if !pc.done {
		return nil
	}
	return pc.buf[:pc.cut]
}

// Leftover returns the bytes received after the delimiter.
func (pc *PrefixCallback) Leftover() []byte {
	if !pc.done {
		return nil
	}
	return pc.buf[pc.cut:]
}

// TeeCallback copies every chunk to w.
type TeeCallback struct {
	w   io.Writer
	err error
}

// NewTeeCallback returns a TeeCallback writing to w.
func NewTeeCallback(w io.Writer) *TeeCallback { return &TeeCallback{w: w} }

func (t *TeeCallback) Name() string { return "tee" }

func (t *TeeCallback) OnData(chunk []byte) error {
	if t.err != nil {
		return t.err
	}
	if _, err := t.w.Write(chunk); err != nil {
		t.err = err
		return err
	}
	return nil
}

func (t *TeeCallback) Result() any { return nil }
