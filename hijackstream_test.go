package hijackstream

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCallback struct {
	name     string
	chunks   [][]byte
	err      error
	panicVal any
}

func (tc *testCallback) Name() string { return tc.name }

func (tc *testCallback) OnData(chunk []byte) error {
	if tc.panicVal != nil {
		panic(tc.panicVal)
	}
	if tc.err != nil {
		return tc.err
	}
	tc.chunks = append(tc.chunks, append([]byte(nil), chunk...))
	return nil
}

func (tc *testCallback) Result() any { return len(tc.chunks) }

func TestTapFansOut(t *testing.T) {
	a := &testCallback{name: "a"}
	b := &testCallback{name: "b"}
	tap := NewTap(a, b)

	tap.OnData([]byte("one"))
	tap.OnData([]byte("two"))

	require.NoError(t, tap.Err())
	assert.Equal(t, [][]byte{[]byte("one"), []byte("two")}, a.chunks)
	assert.Equal(t, a.chunks, b.chunks)
	assert.Equal(t, map[string]any{"a": 2, "b": 2}, tap.Results())
}

func TestTapStickyError(t *testing.T) {
	boom := errors.New("boom")
	failing := &testCallback{name: "failing", err: boom}
	after := &testCallback{name: "after"}
	tap := NewTap(failing, after)

	tap.OnData([]byte("x"))
	failing.err = nil
	tap.OnData([]byte("y"))

	assert.ErrorIs(t, tap.Err(), boom)
	assert.Empty(t, failing.chunks)
	assert.Empty(t, after.chunks)
}

func TestTapRecoversPanics(t *testing.T) {
	tests := []struct {
		name    string
		val     any
		wantMsg string
	}{
		{name: "string", val: "kaput", wantMsg: "callback panic: kaput"},
		{name: "error", val: errors.New("bad state"), wantMsg: "callback panic: bad state"},
		{name: "other", val: 42, wantMsg: "callback panic: unknown panic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tap := NewTap(&testCallback{name: "p", panicVal: tt.val})
			assert.NotPanics(t, func() { tap.OnData([]byte("x")) })
			assert.EqualError(t, tap.Err(), tt.wantMsg)
		})
	}
}

// A handshake is read off a stream that already has a consumer; the consumer
// only ever sees what follows the handshake.
func TestHandshakeThenHandBack(t *testing.T) {
	s := NewStream()
	var body []string
	s.On(EventData, func(ev Event) { body = append(body, string(ev.Chunk)) })

	prefix := NewPrefixCallback([]byte("\n"), 64)
	hash := NewHashCallback("sha256")
	tap := NewTap(prefix, hash)

	var c *Controller
	c, err := NewController(Options{
		Channel: s,
		OnChunk: func(chunk []byte) {
			tap.OnData(chunk)
			if prefix.Done() {
				require.NoError(t, c.Restore(prefix.Leftover()))
			}
		},
		OnTerminate: func(err error) { t.Fatalf("unexpected termination: %v", err) },
	})
	require.NoError(t, err)

	c.Start()

	for i, chunk := range []string{"HELLO v1", "\nfirst ", "second"} {
		require.True(t, s.Push([]byte(chunk)), fmt.Sprintf("push %d", i))
	}

	require.NoError(t, tap.Err())
	assert.Equal(t, "HELLO v1\n", string(prefix.Prefix()))
	assert.Equal(t, []string{"first ", "second"}, body)
}
