package x12

import (
	"errors"
	"fmt"
)

// Hard parse failures. These abort parsing and are always wrapped in a
// *ParseError that carries the offending position.
var (
	ErrEmptyInput          = errors.New("empty input")
	ErrInvalidHeader       = errors.New("invalid interchange header")
	ErrInvalidSegment      = errors.New("invalid segment")
	ErrInvalidDelimiters   = errors.New("separators must be set and pairwise distinct")
	ErrMissingControlField = errors.New("missing required control field")
	ErrOrphanSegment       = errors.New("segment outside any transaction")
)

// Structural failures reported by ValidateStructure.
var (
	ErrMissingEnvelope = errors.New("missing envelope segment")
	ErrControlMismatch = errors.New("control number mismatch")
)

// ParseError describes a hard failure at a position in the token stream.
type ParseError struct {
	// Position is the index of the record in the token stream.
	Position int

	// SegmentID is the identifier of the record, when known.
	SegmentID string

	// Detail is a human-readable explanation.
	Detail string

	Err error
}

func (e *ParseError) Error() string {
	if e.SegmentID != "" {
		return fmt.Sprintf("%v at position %d (%s): %s", e.Err, e.Position, e.SegmentID, e.Detail)
	}
	return fmt.Sprintf("%v at position %d: %s", e.Err, e.Position, e.Detail)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StructureError is the first envelope violation found by ValidateStructure.
type StructureError struct {
	// Level is "interchange", "group" or "transaction".
	Level string

	// Group and Transaction are 1-based indexes, 0 when not applicable.
	Group       int
	Transaction int

	Detail string

	Err error
}

func (e *StructureError) Error() string {
	switch e.Level {
	case "group":
		return fmt.Sprintf("%v: group %d: %s", e.Err, e.Group, e.Detail)
	case "transaction":
		return fmt.Sprintf("%v: group %d, transaction %d: %s", e.Err, e.Group, e.Transaction, e.Detail)
	default:
		return fmt.Sprintf("%v: interchange: %s", e.Err, e.Detail)
	}
}

func (e *StructureError) Unwrap() error {
	return e.Err
}
