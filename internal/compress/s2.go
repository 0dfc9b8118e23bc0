package compress

import "github.com/klauspost/compress/s2"

// S2Compressor uses the S2 extension of Snappy.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

func (S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return s2.Encode(nil, data), nil
}

func (S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return s2.Decode(nil, data)
}
