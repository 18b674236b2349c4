package session

import "errors"

var (
	// ErrSuperseded is the cancel cause of a generation replaced by a newer one
	ErrSuperseded = errors.New("session: generation superseded by a newer request")
	// ErrClosed is the cancel cause of a generation whose session was removed
	ErrClosed = errors.New("session: closed")
)
