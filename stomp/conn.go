package stomp

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/nsheridan/gostomp/stomp/transport"
)

// Message is a delivered STOMP message: the payload of an inbound MESSAGE
// frame that carried a message-id header (spec §3).
type Message struct {
	ID      string
	Headers Headers
	Body    []byte
}

// Options configures Connect. Login/Passcode are pointers because their
// presence, not their value, decides whether credential headers are sent
// at all (spec §4.3: "if either of login/passcode is supplied").
type Options struct {
	Login    *string
	Passcode *string
	// EOFNewline selects the terminator convention for frames read from
	// the peer: true for ActiveMQ/ocamlmq (\0\n), false for RabbitMQ
	// (bare \0). See spec §4.2.
	EOFNewline bool
	// Extra is appended after any credential headers, in caller order.
	Extra Headers
	// Logger receives diagnostic records (discarded frames, transport
	// failures). A nil Logger defaults to slog.Default().
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Conn is a generic STOMP 1.0 connection: frame codec, receipt
// correlation, transaction tracking, and pending-message buffering (spec
// §3, §4). Broker dialects wrap a *Conn to reshape destinations, headers,
// and subscription bookkeeping; they never need to touch these fields.
type Conn struct {
	mu sync.Mutex

	t      transport.Conn
	eofNL  bool
	closed bool
	logger *slog.Logger

	transactions map[string]struct{}
	pending      []Message

	receiptSeq uint64
	txSeq      uint64
}

// Connect opens a transport connection via d, performs the CONNECT
// handshake, and returns a ready-to-use *Conn (spec §4.3).
func Connect(d transport.Dialer, network, addr string, opts Options) (*Conn, error) {
	t, err := d.Dial(network, addr)
	if err != nil {
		if transport.IsConnectionRefused(err) {
			return nil, errConnectionRefused(err)
		}
		return nil, err
	}

	c := &Conn{
		t:            t,
		eofNL:        opts.EOFNewline,
		logger:       opts.logger(),
		transactions: make(map[string]struct{}),
	}

	headers := opts.Extra
	if opts.Login != nil || opts.Passcode != nil {
		passcode := ""
		if opts.Passcode != nil {
			passcode = *opts.Passcode
		}
		login := ""
		if opts.Login != nil {
			login = *opts.Login
		}
		headers = headers.Prepend(HeaderPasscode, passcode)
		headers = headers.Prepend(HeaderLogin, login)
	}

	if err := writeFrame(t, &Frame{Command: CONNECT, Headers: headers}); err != nil {
		_ = t.Close()
		return nil, errConnClosedByTransport(err)
	}

	reply, err := c.drainUntilNonMessage()
	if err != nil {
		_ = t.Close()
		return nil, errConnClosedByTransport(err)
	}

	switch reply.Command {
	case CONNECTED:
		return c, nil
	case ERROR:
		if msg, ok := reply.Headers.Get(HeaderMessage); ok && msg == "access_refused" {
			_ = t.Close()
			return nil, errAccessRefused()
		}
		_ = t.Close()
		return nil, errProtocol(reply.Command, "unexpected ERROR during connect")
	default:
		_ = t.Close()
		return nil, errProtocol(reply.Command, "expected CONNECTED")
	}
}

// Disconnect sends DISCONNECT (no receipt) and closes the underlying
// transport. It is idempotent: calling it twice both times returns nil and
// writes at most one DISCONNECT frame (spec §4.3, §8).
func (c *Conn) Disconnect() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	t := c.t
	c.closed = true
	c.mu.Unlock()

	if err := writeFrame(t, &Frame{Command: DISCONNECT}); err != nil {
		c.logger.Debug("disconnect: swallowing write error, closing anyway", "error", err)
	}
	if err := t.Close(); err != nil {
		c.logger.Debug("disconnect: swallowing close error", "error", err)
	}
	return nil
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) markClosed() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *Conn) nextReceiptID() string {
	c.mu.Lock()
	c.receiptSeq++
	n := c.receiptSeq
	c.mu.Unlock()
	return fmt.Sprintf("receipt-%d", n)
}

func (c *Conn) nextTransactionID() string {
	c.mu.Lock()
	c.txSeq++
	n := c.txSeq
	c.mu.Unlock()
	return fmt.Sprintf("transaction-%d", n)
}

// bufferPending appends m to the pending-message FIFO, preserving wire
// arrival order (spec §4.5).
func (c *Conn) bufferPending(m Message) {
	c.mu.Lock()
	c.pending = append(c.pending, m)
	c.mu.Unlock()
}

// popPending dequeues the oldest buffered message, if any.
func (c *Conn) popPending() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return Message{}, false
	}
	m := c.pending[0]
	c.pending = c.pending[1:]
	return m, true
}

// drainUntilNonMessage reads frames off the wire, buffering well-formed
// MESSAGE frames (those with a message-id) and silently dropping
// malformed ones, until a non-MESSAGE frame arrives, which it returns
// (spec §4.4, §4.5).
func (c *Conn) drainUntilNonMessage() (*Frame, error) {
	for {
		f, err := readFrame(c.t, c.eofNL)
		if err != nil {
			return nil, err
		}
		if f.Command != MESSAGE {
			return f, nil
		}
		id, ok := f.messageID()
		if !ok {
			c.logger.Debug("dropping MESSAGE frame without message-id")
			continue
		}
		c.bufferPending(Message{ID: id, Headers: f.Headers, Body: f.Body})
	}
}

// sendWithReceipt prepends a fresh receipt header to f, writes it, and
// waits for the matching RECEIPT (spec §4.4).
func (c *Conn) sendWithReceipt(f *Frame) error {
	if c.isClosed() {
		return errClosed()
	}
	id := c.nextReceiptID()
	f.Headers = f.Headers.Prepend(HeaderReceipt, id)

	if err := writeFrame(c.t, f); err != nil {
		c.markClosed()
		return errConnClosedByTransport(err)
	}

	reply, err := c.drainUntilNonMessage()
	if err != nil {
		c.markClosed()
		return errConnClosedByTransport(err)
	}

	if reply.Command == RECEIPT {
		if rid, ok := reply.Headers.Get(HeaderReceiptID); ok && rid == id {
			return nil
		}
	}
	return errProtocol(reply.Command, "expected RECEIPT "+id)
}

// sendWithoutReceipt writes f with no receipt correlation at all (used for
// transactional SEND and no-ack SEND, spec §4.4).
func (c *Conn) sendWithoutReceipt(f *Frame) error {
	if c.isClosed() {
		return errClosed()
	}
	if err := writeFrame(c.t, f); err != nil {
		c.markClosed()
		return errConnClosedByTransport(err)
	}
	return nil
}

// SendAwaitReceipt is the low-level receipt-correlated primitive exposed
// for broker dialects that need the RECEIPT frame's own headers (e.g.
// ocamlmq's queue_size, which reads num-messages off the reply). f is
// sent as-is, with a fresh receipt header prepended.
func (c *Conn) SendAwaitReceipt(f *Frame) (Headers, error) {
	if c.isClosed() {
		return nil, errClosed()
	}
	id := c.nextReceiptID()
	f.Headers = f.Headers.Prepend(HeaderReceipt, id)

	if err := writeFrame(c.t, f); err != nil {
		c.markClosed()
		return nil, errConnClosedByTransport(err)
	}

	reply, err := c.drainUntilNonMessage()
	if err != nil {
		c.markClosed()
		return nil, errConnClosedByTransport(err)
	}

	if reply.Command == RECEIPT {
		if rid, ok := reply.Headers.Get(HeaderReceiptID); ok && rid == id {
			return reply.Headers, nil
		}
	}
	return nil, errProtocol(reply.Command, "expected RECEIPT "+id)
}

// SendOptions configures a generic Send call. Destination and header
// shaping (prefixes, persistent/exchange/content-type headers) are the
// responsibility of the broker dialect; Conn.Send only knows about
// transaction suppression and no-ack suppression (spec §4.4, §4.7–§4.9).
type SendOptions struct {
	Transaction string
	NoAck       bool
}

// Send writes a SEND frame for destination with the given headers and
// body. A content-length header is added automatically whenever body is
// non-empty (spec §4.2). Receipt correlation is used unless the send is
// transactional or NoAck (spec §4.4).
func (c *Conn) Send(destination string, headers Headers, body []byte, opts SendOptions) error {
	h := headers.Prepend(HeaderDestination, destination)
	if opts.Transaction != "" {
		h = h.Append(HeaderTransaction, opts.Transaction)
	}
	if len(body) > 0 {
		h = h.Prepend(HeaderContentLength, strconv.Itoa(len(body)))
	}
	f := &Frame{Command: SEND, Headers: h, Body: body}

	if opts.Transaction != "" || opts.NoAck {
		return c.sendWithoutReceipt(f)
	}
	return c.sendWithReceipt(f)
}

// Subscribe sends a SUBSCRIBE frame for destination with the given
// headers, awaiting a receipt.
func (c *Conn) Subscribe(destination string, headers Headers) error {
	h := headers.Prepend(HeaderDestination, destination)
	return c.sendWithReceipt(&Frame{Command: SUBSCRIBE, Headers: h})
}

// Unsubscribe sends an UNSUBSCRIBE frame with the given headers (typically
// an id header), awaiting a receipt.
func (c *Conn) Unsubscribe(headers Headers) error {
	return c.sendWithReceipt(&Frame{Command: UNSUBSCRIBE, Headers: headers})
}

// AckMsg sends an ACK frame with the given headers (typically a
// message-id header), awaiting a receipt.
func (c *Conn) AckMsg(headers Headers) error {
	return c.sendWithReceipt(&Frame{Command: ACK, Headers: headers})
}

// ReceiveMsg returns the next delivered Message: the head of the pending
// FIFO if non-empty, else the next well-formed MESSAGE frame read off the
// wire, discarding any non-MESSAGE frame seen along the way (spec §4.5).
func (c *Conn) ReceiveMsg() (Message, error) {
	if c.isClosed() {
		return Message{}, errClosed()
	}
	if m, ok := c.popPending(); ok {
		return m, nil
	}
	for {
		f, err := readFrame(c.t, c.eofNL)
		if err != nil {
			c.markClosed()
			return Message{}, errConnClosedByTransport(err)
		}
		if f.Command != MESSAGE {
			c.logger.Debug("discarding non-MESSAGE frame while receiving", "command", f.Command)
			continue
		}
		id, ok := f.messageID()
		if !ok {
			return Message{}, errRetryProtocol(f.Command, "MESSAGE missing message-id")
		}
		return Message{ID: id, Headers: f.Headers, Body: f.Body}, nil
	}
}
