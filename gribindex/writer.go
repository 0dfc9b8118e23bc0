package gribindex

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/sdifrance/gribcollection/internal/compress"
	"github.com/sdifrance/gribcollection/rectilinear"
)

// WriteOption configures Write.
type WriteOption func(*writer)

// WithCompression compresses the slot table of each variable.
func WithCompression(t compress.Type) WriteOption {
	return func(w *writer) { w.compression = t }
}

type writer struct {
	compression compress.Type
}

// Write stores c at path. The index is written to a temporary file in the
// same directory and renamed over path once complete, so a partial index
// is never visible at path. c is put in canonical order and its variables
// get their BlobOffset and BlobLength set.
func Write(path string, c *rectilinear.Collection, opts ...WriteOption) (err error) {
	w := &writer{}
	for _, o := range opts {
		o(w)
	}
	if len(c.Files) == 0 || len(c.Groups) == 0 {
		return errors.Wrapf(ErrEmpty, "writing %s: %d files, %d groups", path, len(c.Files), len(c.Groups))
	}
	codec, err := compress.GetCodec(w.compression)
	if err != nil {
		return err
	}

	c.Canonicalize()
	blob, err := encodeBlob(c, codec)
	if err != nil {
		return err
	}
	meta := encodeMetadata(c, w.compression)

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.Wrap(err, "creating index")
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	var head [headerLength]byte
	copy(head[:], Magic)
	binary.BigEndian.PutUint32(head[len(Magic):], Version)
	binary.BigEndian.PutUint64(head[len(Magic)+4:], uint64(len(blob)))
	bw.Write(head[:])
	bw.Write(blob)
	bw.Write(binary.AppendUvarint(nil, uint64(len(meta))))
	bw.Write(meta)
	if err = bw.Flush(); err != nil {
		return errors.Wrapf(err, "writing %s", tmp.Name())
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrapf(err, "syncing %s", tmp.Name())
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", tmp.Name())
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		// Some platforms refuse to rename over an existing file.
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return errors.Wrapf(err, "renaming index to %s", path)
		}
		if err = os.Rename(tmp.Name(), path); err != nil {
			return errors.Wrapf(err, "renaming index to %s", path)
		}
	}
	glog.Infof("wrote index %s: %d groups, %d variables, %d byte record blob, %d byte metadata",
		path, len(c.Groups), c.Variables(), len(blob), len(meta))
	return nil
}

// encodeBlob concatenates the compressed slot tables in canonical order.
func encodeBlob(c *rectilinear.Collection, codec compress.Codec) ([]byte, error) {
	var blob bytes.Buffer
	for _, g := range c.Groups {
		for _, v := range g.Variables {
			ntimes, nens, nverts := v.Shape(g)
			if n := ntimes * nens * nverts; len(v.Slots) != n {
				return nil, errors.Wrapf(rectilinear.ErrInconsistent, "%s/%s has %d slots, shape needs %d", g.Name, v.Name, len(v.Slots), n)
			}
			packed, err := codec.Compress(encodeSlots(v.Slots))
			if err != nil {
				return nil, errors.Wrapf(err, "compressing slots of %s/%s", g.Name, v.Name)
			}
			v.BlobOffset = int64(blob.Len())
			v.BlobLength = int64(len(packed))
			blob.Write(packed)
		}
	}
	return blob.Bytes(), nil
}
