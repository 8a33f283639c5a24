package services

import "errors"

// Typed errors returned by the connection lifecycle engine and the
// conversation gate. Callers branch with errors.Is; the HTTP layer maps
// each one onto a status code.
var (
	// ErrValidation - the caller's input is malformed or missing a required
	// field. Wrapped with the field detail, surfaced as 400.
	ErrValidation = errors.New("invalid input")

	// ErrDuplicateRequest - a live connection record (or a declined one
	// still inside its reconsideration window) already exists for the pair.
	ErrDuplicateRequest = errors.New("a connection request for this pair already exists")

	// ErrInvalidTransition - the requested transition is not legal from the
	// record's current state.
	ErrInvalidTransition = errors.New("invalid connection state transition")

	// ErrSelfResponseForbidden - the party that initiated a request (or a
	// reconnection) tried to respond to it.
	ErrSelfResponseForbidden = errors.New("the requesting party cannot respond to its own request")

	// ErrStaleState - a conditional write lost a race: the record changed
	// between read and commit. The caller may re-read and retry.
	ErrStaleState = errors.New("connection state changed concurrently, please retry")

	// ErrConnectionNotAccepted - a message write was attempted while the
	// pair's connection is not currently accepted.
	ErrConnectionNotAccepted = errors.New("the connection is not accepted, messaging is disabled")

	// ErrRecordNotFound - no connection record matches the given id or pair.
	ErrRecordNotFound = errors.New("connection request not found")

	// ErrConversationNotFound - no conversation matches the given id.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrConversationExists - a conversation for the pair was created
	// concurrently; the caller should fetch the winning row.
	ErrConversationExists = errors.New("conversation already exists for this pair")

	// ErrStorageUnavailable - the storage layer kept failing after retries.
	ErrStorageUnavailable = errors.New("storage temporarily unavailable")
)
