package ingest

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the requested path does not exist.
var ErrFileNotFound = errors.New("ingest: file not found")

// ErrNotAFile indicates the path exists but is not a regular file.
var ErrNotAFile = errors.New("ingest: not a regular file")

// UnsupportedFormatError carries the unrecognized file extension.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("ingest: unsupported file format: %s", e.Ext)
}

// IsUnsupportedFormat reports whether err wraps an UnsupportedFormatError.
func IsUnsupportedFormat(err error) bool {
	var ufe *UnsupportedFormatError
	return errors.As(err, &ufe)
}
