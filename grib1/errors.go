package grib1

import "github.com/pkg/errors"

var (
	// ErrCorrupt marks a message that cannot be decoded but does not
	// invalidate the rest of the file: bad trailer, inconsistent section
	// lengths, unsupported packing flags or a bitmap that does not match
	// the grid. Callers skip the record and continue.
	ErrCorrupt = errors.New("grib1: corrupt message")

	// ErrUnsupported marks a message using a feature that cannot be
	// interpreted without guessing (unknown grid template, unknown time
	// range indicator, unknown predefined grid). Builders treat it as fatal.
	ErrUnsupported = errors.New("grib1: unsupported feature")
)

func corruptf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrCorrupt, format, args...)
}

func unsupportedf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrUnsupported, format, args...)
}
