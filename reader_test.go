package hijackstream

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPumpCopiesUntilEOF(t *testing.T) {
	l := NewLoop(16)
	s := NewStream()
	k := attachSink(l, s)
	done := startLoop(t, l)

	r := iotest.OneByteReader(strings.NewReader("hello"))
	require.NoError(t, Pump(context.Background(), l, s, r))

	require.NoError(t, waitRun(t, done))
	assert.Equal(t, "hello", strings.Join(k.chunks, ""))
	assert.Len(t, k.chunks, 5)
	assert.True(t, k.ended)
}

func TestPumpReadError(t *testing.T) {
	l := NewLoop(16)
	s := NewStream()
	k := attachSink(l, s)
	done := startLoop(t, l)

	boom := errors.New("device gone")
	r := io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(boom))
	err := Pump(context.Background(), l, s, r)
	assert.ErrorIs(t, err, boom)

	require.NoError(t, waitRun(t, done))
	assert.Equal(t, []string{"partial"}, k.chunks)
	assert.ErrorIs(t, k.err, boom)
	assert.False(t, k.ended)
}

func TestPumpCanceled(t *testing.T) {
	l := NewLoop(16)
	s := NewStream()
	k := attachSink(l, s)
	done := startLoop(t, l)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Pump(ctx, l, s, strings.NewReader("never read"))
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, waitRun(t, done))
	assert.Empty(t, k.chunks)
	assert.NoError(t, k.err)
	assert.False(t, k.ended)
}

// The whole pipeline: a producer goroutine pumps bytes, a hijack reads the
// handshake on the loop, and the original consumer gets the rest.
func TestPumpIntoHijack(t *testing.T) {
	l := NewLoop(16)
	s := NewStream()
	k := attachSink(l, s)

	prefix := NewPrefixCallback([]byte("\n"), 0)
	var c *Controller
	c, err := NewController(Options{
		Channel: s,
		OnChunk: func(chunk []byte) {
			assert.NoError(t, prefix.OnData(chunk))
			if prefix.Done() {
				assert.NoError(t, c.Restore(prefix.Leftover()))
			}
		},
		OnTerminate: func(err error) { t.Errorf("unexpected termination: %v", err) },
	})
	require.NoError(t, err)

	c.Start()

	done := startLoop(t, l)
	r := iotest.HalfReader(strings.NewReader("AUTH token\npayload-1 payload-2"))
	require.NoError(t, Pump(context.Background(), l, s, r))

	require.NoError(t, waitRun(t, done))
	assert.Equal(t, "AUTH token\n", string(prefix.Prefix()))
	assert.Equal(t, "payload-1 payload-2", strings.Join(k.chunks, ""))
	assert.True(t, k.ended)
}
