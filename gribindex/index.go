// Package gribindex reads and writes collection index files.
//
// An index file is laid out as
//
//	magic     "Grib1CollectionIndex"
//	int32     format version, big endian
//	int64     length of the record blob, big endian
//	bytes     record blob: the slot table of each variable, one after the
//	          other, each compressed on its own
//	uvarint   length of the metadata message
//	bytes     metadata message, protobuf wire format
//
// The metadata locates each variable's slot table in the blob, so slot
// tables are only read and decoded for the variables that are used.
package gribindex

import "github.com/pkg/errors"

const (
	// Magic starts a collection index.
	Magic = "Grib1CollectionIndex"
	// PartitionMagic starts the index of a partitioned collection, which
	// this package does not read.
	PartitionMagic = "Grib1PartitionIndex"
	// Version is the format version written. Other versions are rejected.
	Version = 3

	headerLength = len(Magic) + 4 + 8
)

var (
	// ErrMagic is returned for files that are not collection indexes.
	ErrMagic = errors.New("gribindex: not a collection index")
	// ErrPartitioned is returned for partitioned collection indexes.
	ErrPartitioned = errors.New("gribindex: partitioned collection index")
	// ErrVersion is returned for indexes written with another format version.
	ErrVersion = errors.New("gribindex: unsupported index version")
	// ErrEmpty is returned for indexes without files or groups.
	ErrEmpty = errors.New("gribindex: empty collection")
)

// NeedsRebuild reports whether err means the index must be rebuilt rather
// than read.
func NeedsRebuild(err error) bool {
	return errors.Is(err, ErrMagic) || errors.Is(err, ErrVersion) ||
		errors.Is(err, ErrEmpty) || errors.Is(err, ErrPartitioned)
}
