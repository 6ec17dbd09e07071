package supervisor

import "errors"

// Predefined supervisor errors.
var (
	// ErrAlreadyInitialized is returned when a second supervisor is
	// constructed in the same process.
	ErrAlreadyInitialized = errors.New("a node supervisor already exists in this process")

	// ErrInvalidNodeType is returned when the node type tag is not one
	// of the recognized values.
	ErrInvalidNodeType = errors.New("invalid node type")

	// ErrInvalidSeverity is returned by Log for an unrecognized severity.
	ErrInvalidSeverity = errors.New("invalid log severity")

	// ErrInvalidHealthState is returned by SetHealth for an unrecognized
	// health tag.
	ErrInvalidHealthState = errors.New("invalid health state")
)
