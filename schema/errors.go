package schema

import "errors"

var (
	// ErrSessionNotFound indicates an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed indicates an operation on a torn-down session.
	ErrSessionClosed = errors.New("session closed")
	// ErrNotRetriable indicates retry was invoked outside the spawn-error state.
	ErrNotRetriable = errors.New("session is not in a retriable state")
	// ErrSessionNotRunning indicates a write to a session without a live process.
	ErrSessionNotRunning = errors.New("session is not running")
	// ErrAlreadyStarted indicates start was invoked twice.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrProcessManagerUnavailable indicates no process manager was injected.
	ErrProcessManagerUnavailable = errors.New("process manager unavailable")
	// ErrDisplayUnavailable indicates no display factory was injected.
	ErrDisplayUnavailable = errors.New("display unavailable")
	// ErrInvalidSessionID indicates an empty or malformed session id.
	ErrInvalidSessionID = errors.New("invalid session id")
)
