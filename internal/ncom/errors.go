package ncom

import (
	"errors"
	"fmt"
)

var (
	// ErrLengthMismatch matches any LengthMismatchError.
	ErrLengthMismatch = errors.New("ncom: length mismatch")
	// ErrSyncMismatch matches any SyncMismatchError.
	ErrSyncMismatch = errors.New("ncom: sync mismatch")
)

// LengthMismatchError reports a buffer that is not exactly one packet long.
type LengthMismatchError struct {
	Got  int
	Want int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("ncom: packet length %d, expected %d", e.Got, e.Want)
}

func (e *LengthMismatchError) Unwrap() error { return ErrLengthMismatch }

// SyncMismatchError reports a first byte other than SyncByte. The buffer
// should be discarded and the upstream stream resynchronised.
type SyncMismatchError struct {
	Got uint8
}

func (e *SyncMismatchError) Error() string {
	return fmt.Sprintf("ncom: sync byte not matched: 0x%02x, expected 0x%02x", e.Got, SyncByte)
}

func (e *SyncMismatchError) Unwrap() error { return ErrSyncMismatch }
