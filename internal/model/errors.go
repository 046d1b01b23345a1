package model

import "github.com/rotisserie/eris"

// Caller-facing error sentinels. Producers wrap these with eris.Wrapf for
// context; callers discriminate with eris.Is.
var (
	// ErrNotFound marks lookups of unknown references or fields.
	ErrNotFound = eris.New("not found")
	// ErrInvalidRequest marks malformed input and wrong-state operations,
	// such as submitting to a non-pending field or assembling with pending
	// fields remaining.
	ErrInvalidRequest = eris.New("invalid request")
)
