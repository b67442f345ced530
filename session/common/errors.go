package common

import (
	"encoding/json"
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Sentinel Errors
// --------------------------------------------------------------------------

var (
	// ErrEncryptionKeyMissing is returned when an encrypted send is attempted
	// before keys have been supplied via UpdateKeys.
	ErrEncryptionKeyMissing = errors.New("encryption key missing")

	// ErrInvalidPayloadType is returned when a binary-kind send is attempted
	// with a payload that is not a message tree node.
	ErrInvalidPayloadType = errors.New("invalid payload type for binary frame")

	// ErrConnectionClosed is returned by operations on a connection that is
	// already closing or closed.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrQueryTimedOut is returned when a query was not answered within its
	// timeout.
	ErrQueryTimedOut = errors.New("query timed out")
)

// StatusNoResponseExpected is the status carried by the liveness
// cancellation error: once the remote peer is known reachable, a pending
// query older than the grace period is presumed abandoned.
const StatusNoResponseExpected = 422

// --------------------------------------------------------------------------
// Status Error
// --------------------------------------------------------------------------

// StatusError is returned for queries that settled with a non-success status.
// Payload carries the original request payload so callers can correlate or
// re-issue it.
type StatusError struct {
	Status  int
	Message string
	Payload any
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("query failed with status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("query failed with status %d", e.Status)
}

// NewNoResponseError creates the 422-class error used to cancel a pending
// query after the peer-reachable grace period elapsed.
func NewNoResponseError(payload any) *StatusError {
	return &StatusError{
		Status:  StatusNoResponseExpected,
		Message: "not expecting a response",
		Payload: payload,
	}
}

// --------------------------------------------------------------------------
// Disconnect Reason
// --------------------------------------------------------------------------

// DisconnectReason classifies why a connection was torn down. Every closure
// carries exactly one reason, chosen by the first trigger to fire.
type DisconnectReason uint8

const (
	ReasonUnknown DisconnectReason = iota

	ReasonConnectionLost     // transport fault or silent network death
	ReasonConnectionClosed   // orderly local close
	ReasonConnectionReplaced // another client took over the session
	ReasonTimedOut           // server-side session timeout
	ReasonServerOverloaded   // server declared overload (status 599)
	ReasonBadSession         // server rejected the session
)

// String returns the string representation of a DisconnectReason.
func (r DisconnectReason) String() string {
	switch r {
	case ReasonConnectionLost:
		return "connectionLost"
	case ReasonConnectionClosed:
		return "connectionClosed"
	case ReasonConnectionReplaced:
		return "connectionReplaced"
	case ReasonTimedOut:
		return "timedOut"
	case ReasonServerOverloaded:
		return "serverOverloaded"
	case ReasonBadSession:
		return "badSession"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for DisconnectReason.
// This allows DisconnectReason to be serialized as a string in JSON.
func (r DisconnectReason) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for
// DisconnectReason. This allows DisconnectReason to be deserialized from a
// string in JSON.
func (r *DisconnectReason) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "connectionLost":
		*r = ReasonConnectionLost
	case "connectionClosed":
		*r = ReasonConnectionClosed
	case "connectionReplaced":
		*r = ReasonConnectionReplaced
	case "timedOut":
		*r = ReasonTimedOut
	case "serverOverloaded":
		*r = ReasonServerOverloaded
	case "badSession":
		*r = ReasonBadSession
	default:
		return fmt.Errorf("unknown disconnect reason: %s", s)
	}

	return nil
}

// CloseError wraps the DisconnectReason and the underlying cause (if any)
// reported through the terminal close notification.
type CloseError struct {
	Reason DisconnectReason
	Cause  error
}

func (e *CloseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("connection closed (%s): %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("connection closed (%s)", e.Reason)
}

func (e *CloseError) Unwrap() error { return e.Cause }
