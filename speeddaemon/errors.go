package speeddaemon

import (
	"errors"
	"fmt"
)

var (
	// ErrFraming is returned when the byte stream cannot be decoded into a message.
	ErrFraming = errors.New("framing error")
	// ErrProtocolViolation is returned when a well-formed message is illegal in the current session state.
	ErrProtocolViolation = errors.New("protocol violation")
)

var (
	// ErrUnknownMessageType is returned for a message type byte the protocol does not define.
	ErrUnknownMessageType = fmt.Errorf("%w: unknown message type", ErrFraming)
	// ErrTruncatedMessage is returned when the stream ends inside a message.
	ErrTruncatedMessage = fmt.Errorf("%w: truncated message", ErrFraming)

	// ErrAlreadyIdentified is returned when a client sends IAmCamera or IAmDispatcher a second time.
	ErrAlreadyIdentified = fmt.Errorf("%w: client has already identified itself", ErrProtocolViolation)
	// ErrNotCamera is returned when a client that is not a camera sends Plate.
	ErrNotCamera = fmt.Errorf("%w: client is not a camera", ErrProtocolViolation)
	// ErrMultipleWantHeartbeat is returned when a client sends WantHeartbeat a second time.
	ErrMultipleWantHeartbeat = fmt.Errorf("%w: multiple WantHeartbeat messages", ErrProtocolViolation)
	// ErrIllegalMessage is returned when a client sends a message only the server may send.
	ErrIllegalMessage = fmt.Errorf("%w: illegal message", ErrProtocolViolation)
)

// reportable reports whether err must be sent to the peer as an Error message before disconnecting.
func reportable(err error) bool {
	return errors.Is(err, ErrFraming) || errors.Is(err, ErrProtocolViolation)
}

// errorKind is used as a metric label.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrFraming):
		return "framing"
	case errors.Is(err, ErrProtocolViolation):
		return "protocol"
	default:
		return "transport"
	}
}
