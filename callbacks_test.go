package hijackstream

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHashCallback(t *testing.T) {
	tests := []struct {
		name      string
		algorithm string
		wantAlgo  string
		wantHash  string
	}{
		{
			name:      "md5",
			algorithm: "md5",
			wantAlgo:  "md5",
			wantHash:  "5eb63bbbe01eeed093cb22bb8f5acdc3",
		},
		{
			name:      "sha1",
			algorithm: "sha1",
			wantAlgo:  "sha1",
			wantHash:  "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed",
		},
		{
			name:      "sha256",
			algorithm: "sha256",
			wantAlgo:  "sha256",
			wantHash:  "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
		{
			name:      "sha512",
			algorithm: "sha512",
			wantAlgo:  "sha512",
			wantHash:  "309ecc489c12d6eb4cc40f50c902f2b4d0ed77ee511a7c7a9bcd3ca86d4cd86f989dd35bc5ff499670da34255b45b0cfd830e81f605dcf7dc5542e93ae9cd76f",
		},
		{
			name:      "unknown defaults to sha256",
			algorithm: "unknown",
			wantAlgo:  "sha256",
			wantHash:  "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHashCallback(tt.algorithm)
			assert.Equal(t, tt.wantAlgo, hc.Name())

			// Split across chunks, like a hijack would deliver it.
			require.NoError(t, hc.OnData([]byte("hello ")))
			require.NoError(t, hc.OnData([]byte("world")))
			assert.Equal(t, tt.wantHash, hc.HexSum())
			assert.Len(t, hc.Result(), len(tt.wantHash)/2)
		})
	}
}

func TestSizeCallback(t *testing.T) {
	sc := NewSizeCallback(0)
	require.NoError(t, sc.OnData(make([]byte, 10)))
	require.NoError(t, sc.OnData(make([]byte, 5)))
	assert.Equal(t, int64(15), sc.Size())
	assert.Equal(t, int64(15), sc.Result())

	limited := NewSizeCallback(8)
	require.NoError(t, limited.OnData(make([]byte, 8)))
	assert.Error(t, limited.OnData([]byte{1}))
}

func TestPrefixCallback(t *testing.T) {
	tests := []struct {
		name         string
		delim        string
		max          int
		chunks       []string
		wantDone     bool
		wantPrefix   string
		wantLeftover string
		wantErr      error
	}{
		{
			name:         "single chunk",
			delim:        "\n",
			chunks:       []string{"HELLO\nworld"},
			wantDone:     true,
			wantPrefix:   "HELLO\n",
			wantLeftover: "world",
		},
		{
			name:         "prefix across chunks",
			delim:        "\n",
			chunks:       []string{"HEL", "LO\nwor", "ld"},
			wantDone:     true,
			wantPrefix:   "HELLO\n",
			wantLeftover: "world",
		},
		{
			name:         "delimiter across chunks",
			delim:        "\r\n",
			chunks:       []string{"abc\r", "\nrest"},
			wantDone:     true,
			wantPrefix:   "abc\r\n",
			wantLeftover: "rest",
		},
		{
			name:         "exact end",
			delim:        "\n",
			chunks:       []string{"abc\n"},
			wantDone:     true,
			wantPrefix:   "abc\n",
			wantLeftover: "",
		},
		{
			name:   "not yet",
			delim:  "\n",
			chunks: []string{"abc"},
		},
		{
			name:    "too long",
			delim:   "\n",
			max:     4,
			chunks:  []string{"abc", "def"},
			wantErr: ErrPrefixTooLong,
		},
		{
			name:    "delimiter past limit",
			delim:   "\n",
			max:     4,
			chunks:  []string{"abcd\n"},
			wantErr: ErrPrefixTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := NewPrefixCallback([]byte(tt.delim), tt.max)
			var err error
			for _, c := range tt.chunks {
				if err = pc.OnData([]byte(c)); err != nil {
					break
				}
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDone, pc.Done())
			if !tt.wantDone {
				assert.Nil(t, pc.Prefix())
				assert.Nil(t, pc.Leftover())
				return
			}
			assert.Equal(t, tt.wantPrefix, string(pc.Prefix()))
			assert.Equal(t, tt.wantLeftover, string(pc.Leftover()))
			assert.Equal(t, pc.Prefix(), pc.Result())
		})
	}
}

func TestPrefixCallbackKeepsCollectingAfterDone(t *testing.T) {
	pc := NewPrefixCallback([]byte(";"), 0)
	require.NoError(t, pc.OnData([]byte("a;b")))
	require.NoError(t, pc.OnData([]byte("c")))
	assert.Equal(t, "a;", string(pc.Prefix()))
	assert.Equal(t, "bc", string(pc.Leftover()))
}

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

func TestTeeCallback(t *testing.T) {
	var buf bytes.Buffer
	tc := NewTeeCallback(&buf)
	require.NoError(t, tc.OnData([]byte("ab")))
	require.NoError(t, tc.OnData([]byte("cd")))
	assert.Equal(t, "abcd", buf.String())
	assert.Nil(t, tc.Result())

	boom := errors.New("disk full")
	bad := NewTeeCallback(failingWriter{err: boom})
	assert.ErrorIs(t, bad.OnData([]byte("x")), boom)
	assert.ErrorIs(t, bad.OnData([]byte("y")), boom)
}
