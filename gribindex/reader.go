package gribindex

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/sdifrance/gribcollection/internal/compress"
	"github.com/sdifrance/gribcollection/rectilinear"
)

// Index is an open index file. Slot tables are read on first use. An
// Index is safe for concurrent use.
type Index struct {
	*rectilinear.Collection
	// ModTime is the modification time of the index file.
	ModTime time.Time

	path      string
	f         *os.File
	blobStart int64
	blobLen   int64
	codec     compress.Codec

	mu sync.Mutex
}

// Open reads the header and metadata of the index at path. Indexes with
// another magic or version, or without files or groups, return errors for
// which NeedsRebuild is true.
func Open(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	idx, err := open(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "opening index %s", path)
	}
	idx.path = path
	return idx, nil
}

func open(f *os.File) (*Index, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	r := bufio.NewReader(f)
	blobLen, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if blobLen < 0 || int64(headerLength)+blobLen > st.Size() {
		return nil, errors.Errorf("record blob length %d overflows the file", blobLen)
	}
	if _, err := r.Discard(int(blobLen)); err != nil {
		return nil, errors.Wrap(err, "skipping record blob")
	}
	metaLen, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading metadata length")
	}
	if metaLen > uint64(st.Size()) {
		return nil, errors.Errorf("metadata length %d overflows the file", metaLen)
	}
	meta := make([]byte, metaLen)
	if _, err := io.ReadFull(r, meta); err != nil {
		return nil, errors.Wrap(err, "reading metadata")
	}
	c, ct, err := decodeMetadata(meta)
	if err != nil {
		return nil, err
	}
	if len(c.Files) == 0 || len(c.Groups) == 0 {
		return nil, errors.Wrapf(ErrEmpty, "%d files, %d groups", len(c.Files), len(c.Groups))
	}
	codec, err := compress.GetCodec(ct)
	if err != nil {
		return nil, err
	}
	for _, g := range c.Groups {
		for _, v := range g.Variables {
			if v.BlobOffset < 0 || v.BlobLength < 0 || v.BlobOffset+v.BlobLength > blobLen {
				return nil, errors.Errorf("slots of %s/%s overflow the record blob", g.Name, v.Name)
			}
		}
	}
	c.Canonicalize()
	glog.V(1).Infof("opened index %s: %d groups, %d variables, %s slot tables", f.Name(), len(c.Groups), c.Variables(), ct)
	return &Index{
		Collection: c,
		ModTime:    st.ModTime(),
		f:          f,
		blobStart:  int64(headerLength),
		blobLen:    blobLen,
		codec:      codec,
	}, nil
}

// readHeader checks the magic and version and returns the blob length.
func readHeader(r io.Reader) (int64, error) {
	var head [headerLength]byte
	n, err := io.ReadFull(r, head[:])
	if n < len(Magic) {
		if bytes.HasPrefix(head[:n], []byte(PartitionMagic)) {
			return 0, ErrPartitioned
		}
		return 0, errors.Wrapf(ErrMagic, "file too short (%d bytes)", n)
	}
	switch {
	case bytes.HasPrefix(head[:], []byte(PartitionMagic)):
		return 0, ErrPartitioned
	case string(head[:len(Magic)]) != Magic:
		return 0, ErrMagic
	case err != nil:
		return 0, errors.Wrap(ErrMagic, "truncated header")
	}
	if v := binary.BigEndian.Uint32(head[len(Magic):]); v != Version {
		return 0, errors.Wrapf(ErrVersion, "version %d, want %d", v, Version)
	}
	return int64(binary.BigEndian.Uint64(head[len(Magic)+4:])), nil
}

// Path returns the file the index was opened from.
func (x *Index) Path() string { return x.path }

// Slots returns the slot table of v, reading it on first use.
func (x *Index) Slots(g *rectilinear.Group, v *rectilinear.Variable) ([]rectilinear.Slot, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if v.Slots != nil {
		return v.Slots, nil
	}
	packed := make([]byte, v.BlobLength)
	if _, err := x.f.ReadAt(packed, x.blobStart+v.BlobOffset); err != nil {
		return nil, errors.Wrapf(err, "reading slots of %s/%s", g.Name, v.Name)
	}
	raw, err := x.codec.Decompress(packed)
	if err != nil {
		return nil, errors.Wrapf(err, "decompressing slots of %s/%s", g.Name, v.Name)
	}
	ntimes, nens, nverts := v.Shape(g)
	slots, err := decodeSlots(raw, ntimes*nens*nverts)
	if err != nil {
		return nil, errors.Wrapf(err, "slots of %s/%s", g.Name, v.Name)
	}
	v.Slots = slots
	return slots, nil
}

// Blob returns the raw record blob.
func (x *Index) Blob() ([]byte, error) {
	b := make([]byte, x.blobLen)
	if _, err := x.f.ReadAt(b, x.blobStart); err != nil {
		return nil, errors.Wrap(err, "reading record blob")
	}
	return b, nil
}

// LoadAll reads the slot tables of every variable.
func (x *Index) LoadAll() error {
	for _, g := range x.Groups {
		for _, v := range g.Variables {
			if _, err := x.Slots(g, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes the index file.
func (x *Index) Close() error { return x.f.Close() }
