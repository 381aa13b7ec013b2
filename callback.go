package hijackstream

// ChunkCallback processes chunks taken from a hijacked stream.
type ChunkCallback interface {
	Name() string              // e.g. "sha256"
	OnData(chunk []byte) error // called for each chunk; chunk MUST NOT be modified
	Result() any               // final or interim result
}
