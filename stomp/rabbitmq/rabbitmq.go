// Package rabbitmq provides the RabbitMQ STOMP gateway dialect (spec
// §4.9): a bare-NUL terminator convention, prefetch on connect, topic
// subscription bookkeeping, content-type/exchange header injection, and a
// durable-queue-creation idiom built on a transient side connection.
package rabbitmq

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/nsheridan/gostomp/internal/uuid"
	"github.com/nsheridan/gostomp/stomp"
	"github.com/nsheridan/gostomp/stomp/transport"
)

// Conn is a RabbitMQ-dialect connection. It embeds the generic engine and
// additionally remembers the connection's own address/credentials (to
// open transient side-connections for CreateQueue) and the topic name to
// server subscription-id mapping (spec §3's "RabbitMQ connection" record).
type Conn struct {
	*stomp.Conn

	dialer   transport.Dialer
	network  string
	address  string
	login    string
	passcode string

	mu        sync.Mutex
	topicSubs map[string]string
	topicSeq  uint64
}

// Connect dials addr, performs the CONNECT handshake with eof_nl=false
// (RabbitMQ's bare-NUL terminator), and, if prefetch is non-nil, sends a
// prefetch header on CONNECT (spec §4.9).
func Connect(d transport.Dialer, network, addr string, login, passcode *string, prefetch *int) (*Conn, error) {
	var extra stomp.Headers
	if prefetch != nil {
		extra = extra.Append(stomp.HeaderPrefetch, strconv.Itoa(*prefetch))
	}

	inner, err := stomp.Connect(d, network, addr, stomp.Options{
		Login:      login,
		Passcode:   passcode,
		EOFNewline: false,
		Extra:      extra,
	})
	if err != nil {
		return nil, err
	}

	return &Conn{
		Conn:      inner,
		dialer:    d,
		network:   network,
		address:   addr,
		login:     deref(login),
		passcode:  deref(passcode),
		topicSubs: make(map[string]string),
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SendOptions configures a queue or topic send.
type SendOptions struct {
	Transaction string
	NoAck       bool
	Extra       stomp.Headers
}

func (c *Conn) send(destination string, body []byte, opts SendOptions, extraHeaders stomp.Headers) error {
	h := opts.Extra
	for _, kv := range extraHeaders {
		h = h.Append(kv.Name, kv.Value)
	}
	h = h.Append(stomp.HeaderContentType, "application/octet-stream")
	return c.Conn.Send(destination, h, body, stomp.SendOptions{
		Transaction: opts.Transaction,
		NoAck:       opts.NoAck,
	})
}

// Send writes a SEND to "/queue/<queue>" with content-type:
// application/octet-stream (spec §4.9).
func (c *Conn) Send(queue string, body []byte, opts SendOptions) error {
	return c.send(QueueDestination(queue), body, opts, nil)
}

// SendNoAck writes a no-ack SEND to "/queue/<queue>".
func (c *Conn) SendNoAck(queue string, body []byte, opts SendOptions) error {
	opts.NoAck = true
	return c.send(QueueDestination(queue), body, opts, nil)
}

// SendTopic writes a SEND to "/topic/<topic>" with an additional
// exchange: amq.topic header (spec §4.9).
func (c *Conn) SendTopic(topic string, body []byte, opts SendOptions) error {
	return c.send(TopicDestination(topic), body, opts,
		stomp.NewHeaders(stomp.HeaderExchange, "amq.topic"))
}

// SendTopicNoAck writes a no-ack SEND to "/topic/<topic>".
func (c *Conn) SendTopicNoAck(topic string, body []byte, opts SendOptions) error {
	opts.NoAck = true
	return c.send(TopicDestination(topic), body, opts,
		stomp.NewHeaders(stomp.HeaderExchange, "amq.topic"))
}

// QueueDestination returns "/queue/<name>".
func QueueDestination(name string) string { return "/queue/" + name }

// TopicDestination returns "/topic/<name>".
func TopicDestination(name string) string { return "/topic/" + name }

// SubscribeQueue subscribes to "/queue/<queue>" with the durable,
// non-auto-delete, client-ack headers RabbitMQ expects for a durable
// queue subscription (spec §4.9).
func (c *Conn) SubscribeQueue(queue string) error {
	return c.Conn.Subscribe(QueueDestination(queue), stomp.NewHeaders(
		stomp.HeaderAutoDelete, "false",
		stomp.HeaderDurable, "true",
		stomp.HeaderAck, "client",
	))
}

// UnsubscribeQueue unsubscribes from "/queue/<queue>". SubscribeQueue
// assigns no id header (the subscription is addressed by destination
// alone), so this is the symmetric counterpart: an UNSUBSCRIBE carrying
// only the destination header. The spec does not name this verb's wire
// shape explicitly; this is the implementation's own decision, recorded
// in DESIGN.md.
func (c *Conn) UnsubscribeQueue(queue string) error {
	return c.Conn.Unsubscribe(stomp.NewHeaders(stomp.HeaderDestination, QueueDestination(queue)))
}

// SubscribeTopic subscribes to topic if not already subscribed on this
// connection; otherwise it is a no-op (spec §4.9). The SUBSCRIBE carries
// a freshly generated topic-N id and a body containing a random base64url
// UUID, which RabbitMQ's STOMP plugin uses to seed the name of the
// transient queue backing this topic subscription.
func (c *Conn) SubscribeTopic(topic string) error {
	c.mu.Lock()
	if _, ok := c.topicSubs[topic]; ok {
		c.mu.Unlock()
		return nil
	}
	c.topicSeq++
	id := fmt.Sprintf("topic-%d", c.topicSeq)
	c.mu.Unlock()

	f := &stomp.Frame{
		Command: stomp.SUBSCRIBE,
		Headers: stomp.NewHeaders(
			stomp.HeaderDestination, TopicDestination(topic),
			stomp.HeaderExchange, "amq.topic",
			stomp.HeaderRoutingKey, TopicDestination(topic),
			stomp.HeaderID, id,
		),
		Body: []byte(uuid.New()),
	}
	if _, err := c.Conn.SendAwaitReceipt(f); err != nil {
		return err
	}

	c.mu.Lock()
	c.topicSubs[topic] = id
	c.mu.Unlock()
	return nil
}

// UnsubscribeTopic unsubscribes from topic if a mapping exists; otherwise
// it is a no-op (spec §4.9).
func (c *Conn) UnsubscribeTopic(topic string) error {
	c.mu.Lock()
	id, ok := c.topicSubs[topic]
	c.mu.Unlock()
	if !ok {
		return nil
	}

	if err := c.Conn.Unsubscribe(stomp.NewHeaders(
		stomp.HeaderDestination, TopicDestination(topic),
		stomp.HeaderID, id,
	)); err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.topicSubs, topic)
	c.mu.Unlock()
	return nil
}

// CreateQueue declares a durable, non-auto-delete queue by opening a
// transient side-connection with prefetch=1 using this connection's saved
// credentials and address, subscribing to it (which is how RabbitMQ's
// STOMP plugin is told to declare the queue), and disconnecting without
// consuming or acknowledging anything (spec §4.9). The broker is expected
// to persist the queue across that disconnect because of the durable and
// auto-delete:false headers sent with the subscription; this is
// documented broker behavior, not a protocol guarantee (spec §9).
func (c *Conn) CreateQueue(queue string) error {
	prefetch := 1
	side, err := Connect(c.dialer, c.network, c.address, strPtr(c.login), strPtr(c.passcode), &prefetch)
	if err != nil {
		return err
	}
	if err := side.SubscribeQueue(queue); err != nil {
		_ = side.Disconnect()
		return err
	}
	return side.Disconnect()
}

func strPtr(s string) *string { return &s }
