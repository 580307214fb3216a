// Package ocamlmq extends the ActiveMQ dialect for the purpose-built
// "ocamlmq" server (spec §4.8): a control-plane queue-size query, and a
// per-message ack-timeout header.
package ocamlmq

import (
	"strconv"

	"github.com/nsheridan/gostomp/stomp"
	"github.com/nsheridan/gostomp/stomp/activemq"
	"github.com/nsheridan/gostomp/stomp/transport"
)

// Conn is an ocamlmq-dialect connection, built on the ActiveMQ baseline.
type Conn struct {
	*activemq.Conn
}

// Connect dials addr and performs the CONNECT handshake (eof_nl=true, as
// for the ActiveMQ baseline).
func Connect(d transport.Dialer, network, addr string, login, passcode *string, extra stomp.Headers) (*Conn, error) {
	c, err := activemq.Connect(d, network, addr, login, passcode, extra)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: c}, nil
}

// SendOptions extends activemq.SendOptions with an optional ack-timeout.
type SendOptions struct {
	activemq.SendOptions
	// AckTimeout, in seconds, becomes the "ack-timeout" header when
	// AckTimeoutSet is true (spec §4.8).
	AckTimeout    float64
	AckTimeoutSet bool
}

// Send writes a SEND to "/queue/<queue>", honoring AckTimeout if set.
func (c *Conn) Send(queue string, body []byte, opts SendOptions) error {
	amqOpts := opts.SendOptions
	if opts.AckTimeoutSet {
		amqOpts.Extra = amqOpts.Extra.Append(stomp.HeaderAckTimeout, strconv.FormatFloat(opts.AckTimeout, 'g', -1, 64))
	}
	return c.Conn.Send(activemq.QueueDestination(queue), body, amqOpts)
}

// QueueSize queries the server's synthetic control destination for the
// number of messages on queue, returning nil if the server's reply lacks
// a parseable num-messages header (spec §4.8).
func (c *Conn) QueueSize(queue string) (*int64, error) {
	f := stomp.NewFrame(stomp.SEND, stomp.HeaderDestination, "/control/count-msgs/"+queue)
	replyHeaders, err := c.SendAwaitReceipt(f)
	if err != nil {
		return nil, err
	}
	text, ok := replyHeaders.Get("num-messages")
	if !ok {
		return nil, nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, nil
	}
	return &n, nil
}
