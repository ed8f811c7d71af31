package comm

import (
	"errors"
	"fmt"

	"github.com/robotalks/flash.go/pkg/flash/store"
)

var (
	// ErrNotReady indicates the link is not synchronized yet.
	ErrNotReady = errors.New("link not ready")
	// ErrNoReply indicates no reply was received for a command.
	// This happens when a reply arrives for a later command: all
	// commands before it fail with this error.
	ErrNoReply = errors.New("no reply")
	// ErrTimeout indicates a command waited too long for its reply.
	ErrTimeout = errors.New("command timeout")
)

// Status is the result code carried in reply frames.
type Status byte

// Status codes mirroring the store's error conditions.
const (
	StatusOK Status = iota
	StatusUnaligned
	StatusOutOfBounds
	StatusOversized
	StatusEmptyPayload
	StatusInvalidData
	StatusBadOp
	StatusDeviceErr
)

var statusNames = map[Status]string{
	StatusOK:           "ok",
	StatusUnaligned:    "unaligned",
	StatusOutOfBounds:  "out of bounds",
	StatusOversized:    "oversized payload",
	StatusEmptyPayload: "empty payload",
	StatusInvalidData:  "invalid data",
	StatusBadOp:        "bad operation",
	StatusDeviceErr:    "device error",
}

// String implements fmt.Stringer.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status %d", byte(s))
}

// StatusOf maps a store error to its wire status.
func StatusOf(err error) Status {
	switch err {
	case nil:
		return StatusOK
	case store.ErrUnaligned:
		return StatusUnaligned
	case store.ErrOutOfBounds:
		return StatusOutOfBounds
	case store.ErrOversizedPayload:
		return StatusOversized
	case store.ErrEmptyPayload:
		return StatusEmptyPayload
	case store.ErrInvalidData:
		return StatusInvalidData
	}
	return StatusDeviceErr
}

// Err maps a wire status back to an error, using the store's sentinel
// errors so remote and local operation failures compare equal.
func (s Status) Err() error {
	switch s {
	case StatusOK:
		return nil
	case StatusUnaligned:
		return store.ErrUnaligned
	case StatusOutOfBounds:
		return store.ErrOutOfBounds
	case StatusOversized:
		return store.ErrOversizedPayload
	case StatusEmptyPayload:
		return store.ErrEmptyPayload
	case StatusInvalidData:
		return store.ErrInvalidData
	}
	return &StatusError{Code: s}
}

// StatusError wraps status codes with no local sentinel.
type StatusError struct {
	Code Status
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("command failed: %s", e.Code)
}
