// Package activemq provides the ActiveMQ-style STOMP dialect (spec §4.7):
// the generic client used almost verbatim, with destination prefixing and
// a default persistent header on SEND.
package activemq

import (
	"github.com/nsheridan/gostomp/stomp"
	"github.com/nsheridan/gostomp/stomp/transport"
)

// Conn is an ActiveMQ-dialect connection. It embeds the generic engine
// directly; every method not overridden here (Disconnect, ReceiveMsg,
// AckMsg, the transaction verbs) is the generic implementation.
type Conn struct {
	*stomp.Conn
}

// Connect dials addr and performs the CONNECT handshake with eof_nl=true,
// the ActiveMQ/ocamlmq terminator convention.
func Connect(d transport.Dialer, network, addr string, login, passcode *string, extra stomp.Headers) (*Conn, error) {
	c, err := stomp.Connect(d, network, addr, stomp.Options{
		Login:      login,
		Passcode:   passcode,
		EOFNewline: true,
		Extra:      extra,
	})
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: c}, nil
}

// QueueDestination returns the caller-facing name for a point-to-point
// destination: "/queue/<name>".
func QueueDestination(name string) string {
	return "/queue/" + name
}

// TopicDestination returns the caller-facing name for a publish-subscribe
// destination: "/topic/<name>".
func TopicDestination(name string) string {
	return "/topic/" + name
}

// SendOptions configures Send/SendNoAck beyond the generic
// stomp.SendOptions: an explicit Persistent override, and any extra
// headers to carry (spec §4.7).
type SendOptions struct {
	Transaction string
	// Persistent overrides the default persistent header value. Ignored
	// unless PersistentSet is true.
	Persistent    bool
	PersistentSet bool
	Extra         stomp.Headers
}

func (c *Conn) send(destination string, body []byte, opts SendOptions, noAck bool) error {
	persistent := !noAck
	if opts.PersistentSet {
		persistent = opts.Persistent
	}
	h := opts.Extra.Append(stomp.HeaderPersistent, boolString(persistent))
	return c.Conn.Send(destination, h, body, stomp.SendOptions{
		Transaction: opts.Transaction,
		NoAck:       noAck,
	})
}

// Send writes a SEND frame, defaulting persistent to "true" (spec §4.7).
func (c *Conn) Send(destination string, body []byte, opts SendOptions) error {
	return c.send(destination, body, opts, false)
}

// SendNoAck writes a no-ack SEND (suppresses receipt correlation),
// defaulting persistent to "false" (spec §4.7).
func (c *Conn) SendNoAck(destination string, body []byte, opts SendOptions) error {
	return c.send(destination, body, opts, true)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
