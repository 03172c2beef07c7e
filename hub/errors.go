package hub

import "errors"

// Sentinel errors for hub operations.
var (
	// ErrProtocolViolation covers a bad or missing hello, an unrecognized
	// frame, and other contract breaches on a backend stream.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrBackendExists means a hello claimed a namespaced backend id that
	// another active connection already owns.
	ErrBackendExists = errors.New("backend id already connected")

	// ErrBackendNotFound means no active connection is bound to the
	// requested namespace.
	ErrBackendNotFound = errors.New("backend not connected")

	// ErrDispatchTimeout means a correlated request saw no response before
	// its deadline. The hub never retries; retry policy belongs to callers.
	ErrDispatchTimeout = errors.New("request timed out")

	// ErrConnectionLost means the backend connection terminated while the
	// request was in flight.
	ErrConnectionLost = errors.New("backend connection lost")

	// ErrReservedCommandName rejects registration of the built-in "help"
	// command name.
	ErrReservedCommandName = errors.New("command name is reserved")

	// ErrInconsistentMetadata rejects a command descriptor whose name does
	// not match its registry key.
	ErrInconsistentMetadata = errors.New("command metadata does not match registry key")

	// ErrShuttingDown means the hub no longer accepts new connections or
	// sessions.
	ErrShuttingDown = errors.New("hub is shutting down")
)

// BackendError is an explicit failure marker from a backend, distinct from
// transport errors. Reason is surfaced verbatim.
type BackendError struct {
	Reason string
}

func (e *BackendError) Error() string {
	return "backend failure: " + e.Reason
}
