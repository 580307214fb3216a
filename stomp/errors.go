package stomp

import "fmt"

// Hint is an advisory restartability classification attached to every
// failure the engine produces. The core never acts on a Hint itself; it is
// a contract for recovery logic built above the core (spec §7).
type Hint int

const (
	// HintNone is used only for the zero value; real errors always carry
	// one of the hints below.
	HintNone Hint = iota
	// HintAbort marks an unrecoverable condition: retrying will not help.
	HintAbort
	// HintReconnect marks transport breakage or unexpected protocol shape;
	// the caller should drop the connection and re-establish it.
	HintReconnect
	// HintRetry marks a transient per-message anomaly that can be skipped
	// and retried without tearing down the connection.
	HintRetry
)

func (h Hint) String() string {
	switch h {
	case HintAbort:
		return "abort"
	case HintReconnect:
		return "reconnect"
	case HintRetry:
		return "retry"
	default:
		return "none"
	}
}

// ConnSubKind distinguishes the varieties of ConnectionError.
type ConnSubKind int

const (
	// ConnClosed means the connection was already closed, or became
	// closed mid-operation.
	ConnClosed ConnSubKind = iota
	// ConnRefused means the transport refused the connection at open time.
	ConnRefused
	// ConnAccessRefused means the server returned ERROR with
	// message: access_refused during the CONNECT handshake.
	ConnAccessRefused
)

func (k ConnSubKind) String() string {
	switch k {
	case ConnRefused:
		return "connection_refused"
	case ConnAccessRefused:
		return "access_refused"
	default:
		return "closed"
	}
}

// Kind is the typed error classification carried by Error.
type Kind interface {
	isKind()
}

// ConnectionError wraps a ConnSubKind.
type ConnectionError struct {
	Sub ConnSubKind
}

func (ConnectionError) isKind() {}

func (e ConnectionError) String() string {
	return "connection_error:" + e.Sub.String()
}

// ProtocolError wraps the offending frame's command (and, where available,
// a short description of what was wrong with it).
type ProtocolError struct {
	Frame  string
	Detail string
}

func (ProtocolError) isKind() {}

func (e ProtocolError) String() string {
	if e.Detail == "" {
		return "protocol_error:" + e.Frame
	}
	return fmt.Sprintf("protocol_error:%s:%s", e.Frame, e.Detail)
}

// NodeError is reserved for future use; the current engine never emits it.
type NodeError struct {
	Detail string
}

func (NodeError) isKind() {}

func (e NodeError) String() string { return "node_error:" + e.Detail }

// Error is the failure value produced by every engine operation. It
// carries a restartability Hint, a typed Kind, and a human context string.
type Error struct {
	Hint    Hint
	Kind    Kind
	Context string
	// Cause is the underlying transport or decode error, if any.
	Cause error
}

func (e *Error) Error() string {
	var kindStr string
	if s, ok := e.Kind.(fmt.Stringer); ok {
		kindStr = s.String()
	} else {
		kindStr = fmt.Sprintf("%v", e.Kind)
	}
	if e.Context == "" {
		return fmt.Sprintf("stomp: %s [%s]", kindStr, e.Hint)
	}
	return fmt.Sprintf("stomp: %s [%s]: %s", kindStr, e.Hint, e.Context)
}

func (e *Error) Unwrap() error { return e.Cause }

func newError(hint Hint, kind Kind, context string, cause error) *Error {
	return &Error{Hint: hint, Kind: kind, Context: context, Cause: cause}
}

func errClosed() *Error {
	return newError(HintReconnect, ConnectionError{Sub: ConnClosed}, "connection is closed", nil)
}

func errConnectionRefused(cause error) *Error {
	return newError(HintAbort, ConnectionError{Sub: ConnRefused}, "connection refused", cause)
}

func errAccessRefused() *Error {
	return newError(HintAbort, ConnectionError{Sub: ConnAccessRefused}, "access refused by broker", nil)
}

func errConnClosedByTransport(cause error) *Error {
	return newError(HintReconnect, ConnectionError{Sub: ConnClosed}, "transport failure", cause)
}

func errProtocol(frame string, detail string) *Error {
	return newError(HintReconnect, ProtocolError{Frame: frame, Detail: detail}, "unexpected frame", nil)
}

func errRetryProtocol(frame string, detail string) *Error {
	return newError(HintRetry, ProtocolError{Frame: frame, Detail: detail}, "malformed frame", nil)
}
