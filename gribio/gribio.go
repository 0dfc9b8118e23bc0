// Package gribio locates GRIB1 messages in files that may also contain
// GRIB2 messages, bulletin headers, padding or damaged records.
package gribio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/sdifrance/gribcollection/grib1"
)

// File is a fully decoded GRIB file.
type File struct {
	grib1Messages []*grib1.Message
	offsets       []int64
}

// GRIB1Messages returns the decoded messages in file order.
func (f *File) GRIB1Messages() []*grib1.Message {
	return f.grib1Messages
}

// Offset returns the byte offset of message i.
func (f *File) Offset(i int) int64 {
	return f.offsets[i]
}

// ReadFile reads r to the end and decodes every GRIB1 message. Messages
// that fail to decode are logged and skipped.
func ReadFile(r io.Reader, opts ...Option) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	f := &File{}
	s := NewScanner(bytes.NewReader(data), int64(len(data)), opts...)
	for s.Scan() {
		m := s.Message()
		glog.V(1).Infof("record @ offset %d is %d bytes", m.Start, m.Len())
		msg, err := grib1.Decode(data[m.Start:m.End])
		if err != nil {
			if errors.Is(err, grib1.ErrCorrupt) || errors.Is(err, grib1.ErrUnsupported) {
				glog.Warningf("skipping GRIB1 message @ byte offset %d: %v", m.Start, err)
				continue
			}
			return nil, fmt.Errorf("error reading GRIB1 message @ byte offset %d: %w", m.Start, err)
		}
		f.grib1Messages = append(f.grib1Messages, msg)
		f.offsets = append(f.offsets, m.Start)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("error parsing file: %w", err)
	}
	return f, nil
}
