package rabbitmq

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsheridan/gostomp/stomp"
	"github.com/nsheridan/gostomp/stomp/transport"
)

type fakeDialer struct{ conn transport.Conn }

func (d fakeDialer) Dial(network, addr string) (transport.Conn, error) { return d.conn, nil }

func connectedPair(t *testing.T) (*Conn, transport.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	client := transport.NewStreamConn(a)
	server := transport.NewStreamConn(b)

	ready := make(chan struct{})
	go func() {
		drainBodylessFrame(t, server, true)
		_ = server.WriteString("CONNECTED\n\n\x00")
		_ = server.Flush()
		close(ready)
	}()

	login, passcode := "guest", "guest"
	c, err := Connect(fakeDialer{conn: client}, "tcp", "broker:61613", &login, &passcode, nil)
	require.NoError(t, err)
	<-ready
	return c, server
}

// drainBodylessFrame reads a body-less frame; eofNL says whether a newline
// follows the NUL. Frames written by the client always end in NUL+newline,
// whatever convention the connection uses for reading.
func drainBodylessFrame(t *testing.T, conn transport.Conn, eofNL bool) (command string, headers stomp.Headers) {
	t.Helper()
	command, err := conn.ReadLine()
	require.NoError(t, err)
	for {
		line, err := conn.ReadLine()
		require.NoError(t, err)
		if line == "" {
			break
		}
		headers = append(headers, parseHeader(line))
	}
	_, err = conn.ReadByte()
	require.NoError(t, err)
	if eofNL {
		_, err = conn.ReadByte()
		require.NoError(t, err)
	}
	return command, headers
}

func parseHeader(line string) stomp.Header {
	for i := 0; i < len(line); i++ {
		if line[i] == ':' {
			return stomp.Header{Name: line[:i], Value: line[i+2:]}
		}
	}
	return stomp.Header{Name: line}
}

func TestConnectAddsPrefetchHeader(t *testing.T) {
	a, b := net.Pipe()
	t.Cleanup(func() { _ = a.Close(); _ = b.Close() })
	client := transport.NewStreamConn(a)
	server := transport.NewStreamConn(b)

	headersCh := make(chan stomp.Headers, 1)
	go func() {
		_, headers := drainBodylessFrame(t, server, true)
		headersCh <- headers
		_ = server.WriteString("CONNECTED\n\n\x00")
		_ = server.Flush()
	}()

	prefetch := 10
	_, err := Connect(fakeDialer{conn: client}, "tcp", "broker:61613", nil, nil, &prefetch)
	require.NoError(t, err)

	headers := <-headersCh
	v, ok := headers.Get(stomp.HeaderPrefetch)
	assert.True(t, ok)
	assert.Equal(t, "10", v)
}

func TestSendTopicAddsExchangeAndContentType(t *testing.T) {
	c, server := connectedPair(t)

	done := make(chan stomp.Headers, 1)
	go func() {
		command, err := server.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, stomp.SEND, command)
		var headers stomp.Headers
		var n int
		for {
			line, err := server.ReadLine()
			require.NoError(t, err)
			if line == "" {
				break
			}
			h := parseHeader(line)
			headers = append(headers, h)
			if h.Name == stomp.HeaderContentLength {
				for _, c := range h.Value {
					n = n*10 + int(c-'0')
				}
			}
		}
		_, err = server.ReadN(n)
		require.NoError(t, err)
		_, err = server.ReadByte()
		require.NoError(t, err)
		done <- headers
		rid, _ := headers.Get(stomp.HeaderReceipt)
		_ = server.WriteString("RECEIPT\nreceipt-id: " + rid + "\n\n\x00")
		_ = server.Flush()
	}()

	err := c.SendTopic("events", []byte("hi"), SendOptions{})
	require.NoError(t, err)

	headers := <-done
	dest, _ := headers.Get(stomp.HeaderDestination)
	assert.Equal(t, "/topic/events", dest)
	exchange, _ := headers.Get(stomp.HeaderExchange)
	assert.Equal(t, "amq.topic", exchange)
	ct, _ := headers.Get(stomp.HeaderContentType)
	assert.Equal(t, "application/octet-stream", ct)
}

func TestSubscribeTopicIsIdempotent(t *testing.T) {
	c, server := connectedPair(t)

	var ids []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, headers := drainBodylessFrameWithBody(t, server)
		id, _ := headers.Get(stomp.HeaderID)
		ids = append(ids, id)
		rid, _ := headers.Get(stomp.HeaderReceipt)
		_ = server.WriteString("RECEIPT\nreceipt-id: " + rid + "\n\n\x00")
		_ = server.Flush()
	}()

	require.NoError(t, c.SubscribeTopic("events"))
	<-done
	// Second call on an already-subscribed topic must not touch the wire.
	require.NoError(t, c.SubscribeTopic("events"))
	assert.Len(t, ids, 1)
}

// drainBodylessFrameWithBody reads a frame without a content-length header
// whose body (if any) is scanned byte-by-byte up to the NUL, matching
// SubscribeTopic's UUID-bearing SUBSCRIBE frame. The newline after the NUL
// is left unread.
func drainBodylessFrameWithBody(t *testing.T, conn transport.Conn) (command string, headers stomp.Headers) {
	t.Helper()
	command, err := conn.ReadLine()
	require.NoError(t, err)
	for {
		line, err := conn.ReadLine()
		require.NoError(t, err)
		if line == "" {
			break
		}
		headers = append(headers, parseHeader(line))
	}
	for {
		b, err := conn.ReadByte()
		require.NoError(t, err)
		if b == 0 {
			break
		}
	}
	return command, headers
}

func TestUnsubscribeTopicNoOpWithoutPriorSubscribe(t *testing.T) {
	c, _ := connectedPair(t)
	assert.NoError(t, c.UnsubscribeTopic("never-subscribed"))
}

// countingDialer hands out a fresh net.Pipe per Dial call, recording the
// count and invoking a per-dial server func, so CreateQueue's side
// connection can be scripted independently of the primary connection it is
// called from.
type countingDialer struct {
	t     *testing.T
	dials int
	serve func(dial int, server transport.Conn)
}

func (d *countingDialer) Dial(network, addr string) (transport.Conn, error) {
	d.t.Helper()
	d.dials++
	dial := d.dials
	a, b := net.Pipe()
	d.t.Cleanup(func() { _ = a.Close(); _ = b.Close() })
	server := transport.NewStreamConn(b)
	go d.serve(dial, server)
	return transport.NewStreamConn(a), nil
}

func TestCreateQueueOpensSideConnectionAndDeclaresDurableQueue(t *testing.T) {
	var subscribeHeaders stomp.Headers
	subscribeSeen := make(chan struct{}, 1)

	dialer := &countingDialer{t: t, serve: func(dial int, server transport.Conn) {
		_, connectHeaders := drainBodylessFrame(t, server, true)
		_ = server.WriteString("CONNECTED\n\n\x00")
		_ = server.Flush()

		if dial == 1 {
			// The primary connection never subscribes or disconnects within
			// this test; nothing more to serve on it.
			return
		}

		prefetch, _ := connectHeaders.Get(stomp.HeaderPrefetch)
		assert.Equal(t, "1", prefetch)

		command, headers := drainBodylessFrame(t, server, true)
		require.Equal(t, stomp.SUBSCRIBE, command)
		subscribeHeaders = headers
		rid, _ := headers.Get(stomp.HeaderReceipt)
		_ = server.WriteString("RECEIPT\nreceipt-id: " + rid + "\n\n\x00")
		_ = server.Flush()
		subscribeSeen <- struct{}{}

		_, _ = drainBodylessFrame(t, server, true) // DISCONNECT
	}}

	login, passcode := "guest", "guest"
	c, err := Connect(dialer, "tcp", "broker:61613", &login, &passcode, nil)
	require.NoError(t, err)
	require.Equal(t, 1, dialer.dials)

	require.NoError(t, c.CreateQueue("orders"))
	<-subscribeSeen
	assert.Equal(t, 2, dialer.dials)

	dest, _ := subscribeHeaders.Get(stomp.HeaderDestination)
	assert.Equal(t, "/queue/orders", dest)
	durable, _ := subscribeHeaders.Get(stomp.HeaderDurable)
	assert.Equal(t, "true", durable)
	autoDelete, _ := subscribeHeaders.Get(stomp.HeaderAutoDelete)
	assert.Equal(t, "false", autoDelete)
	ack, _ := subscribeHeaders.Get(stomp.HeaderAck)
	assert.Equal(t, "client", ack)
}
