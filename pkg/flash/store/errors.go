package store

import "errors"

var (
	// ErrUnaligned indicates an offset not on a sector boundary.
	ErrUnaligned = errors.New("offset not sector aligned")
	// ErrOutOfBounds indicates an offset outside the managed region.
	ErrOutOfBounds = errors.New("offset out of bounds")
	// ErrOversizedPayload indicates the payload does not fit a sector
	// alongside the header.
	ErrOversizedPayload = errors.New("payload exceeds sector capacity")
	// ErrEmptyPayload indicates a write with no payload bytes.
	ErrEmptyPayload = errors.New("payload is empty")
	// ErrInvalidData indicates a read of a sector holding no valid
	// record (never written, or erased).
	ErrInvalidData = errors.New("no valid record in sector")
)
