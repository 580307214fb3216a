// Package stomp implements a STOMP 1.0 client: frame codec, connection
// handshake, receipt-correlated verbs, transactions, and a pending-message
// buffer. Broker-specific behavior (destination prefixing, header
// injection, subscription bookkeeping) lives in the sibling activemq,
// ocamlmq and rabbitmq packages, all built on top of this engine.
package stomp

import "strings"

// STOMP 1.0 commands recognized on the wire.
const (
	CONNECT     = "CONNECT"
	CONNECTED   = "CONNECTED"
	DISCONNECT  = "DISCONNECT"
	SEND        = "SEND"
	SUBSCRIBE   = "SUBSCRIBE"
	UNSUBSCRIBE = "UNSUBSCRIBE"
	ACK         = "ACK"
	BEGIN       = "BEGIN"
	COMMIT      = "COMMIT"
	ABORT       = "ABORT"
	MESSAGE     = "MESSAGE"
	RECEIPT     = "RECEIPT"
	ERROR       = "ERROR"
)

// Well-known header names.
const (
	HeaderLogin         = "login"
	HeaderPasscode      = "passcode"
	HeaderReceipt       = "receipt"
	HeaderReceiptID     = "receipt-id"
	HeaderDestination   = "destination"
	HeaderContentLength = "content-length"
	HeaderTransaction   = "transaction"
	HeaderMessageID     = "message-id"
	HeaderMessage       = "message"
	HeaderPersistent    = "persistent"
	HeaderAckTimeout    = "ack-timeout"
	HeaderAck           = "ack"
	HeaderID            = "id"
	HeaderPrefetch      = "prefetch"
	HeaderExchange      = "exchange"
	HeaderRoutingKey    = "routing_key"
	HeaderContentType   = "content-type"
	HeaderDurable       = "durable"
	HeaderAutoDelete    = "auto-delete"
)

// Header is a single (name, value) pair. Order of caller-supplied headers
// is preserved; the library prepends its own headers ahead of them.
type Header struct {
	Name  string
	Value string
}

// Headers is an ordered sequence of header pairs. Unlike a map, it
// tolerates duplicate names and preserves insertion order, matching the
// wire representation directly.
type Headers []Header

// NewHeaders builds a Headers value from name/value pairs, e.g.
// NewHeaders("destination", "q1", "persistent", "true").
func NewHeaders(pairs ...string) Headers {
	h := make(Headers, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		h = append(h, Header{Name: pairs[i], Value: pairs[i+1]})
	}
	return h
}

// Prepend returns a new Headers value with (name, value) placed before h.
// Used to add library-chosen headers (receipt, content-length, ...) ahead
// of caller-supplied ones without mutating the caller's slice.
func (h Headers) Prepend(name, value string) Headers {
	out := make(Headers, 0, len(h)+1)
	out = append(out, Header{Name: name, Value: value})
	out = append(out, h...)
	return out
}

// Append returns a new Headers value with (name, value) placed after h.
func (h Headers) Append(name, value string) Headers {
	out := make(Headers, 0, len(h)+1)
	out = append(out, h...)
	out = append(out, Header{Name: name, Value: value})
	return out
}

// Get returns the value of the first header named name (case-sensitive,
// since headers read off the wire are already lowercased) and whether it
// was found.
func (h Headers) Get(name string) (string, bool) {
	for _, kv := range h {
		if kv.Name == name {
			return kv.Value, true
		}
	}
	return "", false
}

// Frame is the (command, headers, body) triple described in spec §3.
type Frame struct {
	Command string
	Headers Headers
	Body    []byte
}

// NewFrame builds a Frame with the given command and header pairs.
func NewFrame(command string, headerPairs ...string) *Frame {
	return &Frame{Command: command, Headers: NewHeaders(headerPairs...)}
}

// isMessage reports whether f is a MESSAGE frame.
func (f *Frame) isMessage() bool {
	return f != nil && f.Command == MESSAGE
}

// messageID returns the frame's message-id header and whether it is present.
func (f *Frame) messageID() (string, bool) {
	return f.Headers.Get(HeaderMessageID)
}

// splitHeaderLine splits a raw header line at the first ':', lowercasing
// the name and trimming whitespace around the value. Missing colons are
// not rejected: a line with none becomes a header whose name is the whole
// line, as written, with an empty value.
func splitHeaderLine(line string) (name, value string) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return line, ""
	}
	name = line[:idx]
	value = strings.TrimSpace(line[idx+1:])
	return strings.ToLower(name), value
}
