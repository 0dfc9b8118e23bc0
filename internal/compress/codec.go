// Package compress compresses the per-variable record tables of a
// collection index.
package compress

import (
	"fmt"
	"strings"
)

// Type identifies the codec of a compressed block. The values are stored
// in index files and must not change.
type Type uint8

const (
	None Type = iota
	Zstd
	S2
	LZ4
)

func (t Type) String() string {
	switch t {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case S2:
		return "s2"
	case LZ4:
		return "lz4"
	}
	return fmt.Sprintf("compression%d", uint8(t))
}

// ParseType accepts the names returned by Type.String.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return None, nil
	case "zstd":
		return Zstd, nil
	case "s2":
		return S2, nil
	case "lz4":
		return LZ4, nil
	}
	return None, fmt.Errorf("unknown compression %q", s)
}

// Codec compresses and decompresses whole blocks. Implementations are safe
// for concurrent use.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

var builtinCodecs = map[Type]Codec{
	None: NoOpCompressor{},
	Zstd: ZstdCompressor{},
	S2:   S2Compressor{},
	LZ4:  LZ4Compressor{},
}

// GetCodec returns the codec for t.
func GetCodec(t Type) (Codec, error) {
	if codec, ok := builtinCodecs[t]; ok {
		return codec, nil
	}
	return nil, fmt.Errorf("unsupported compression type: %s", t)
}
