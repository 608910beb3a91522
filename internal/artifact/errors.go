package artifact

import "errors"

var (
	// ErrNoSnapshot is returned when no durable snapshot exists at the
	// configured path.
	ErrNoSnapshot = errors.New("no saved artifact snapshot")

	// ErrCorruptSnapshot is returned when the snapshot file exists but
	// cannot be decoded.
	ErrCorruptSnapshot = errors.New("corrupt artifact snapshot")
)
