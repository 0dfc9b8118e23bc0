package compress

// NoOpCompressor returns its input unchanged.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// Compress returns data itself; the result shares its memory.
func (NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data itself; the result shares its memory.
func (NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
