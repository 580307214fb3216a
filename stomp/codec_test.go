package stomp

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsheridan/gostomp/stomp/transport"
)

// pipeConns returns two transport.Conn values connected by an in-memory
// net.Pipe, standing in for the two ends of a socket in codec tests.
func pipeConns(t *testing.T) (client, server transport.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	return transport.NewStreamConn(a), transport.NewStreamConn(b)
}

func TestWriteReadFrameRoundTripWithContentLength(t *testing.T) {
	client, server := pipeConns(t)

	f := NewFrame(SEND, HeaderDestination, "/queue/a", HeaderContentLength, "5")
	f.Body = []byte("hello")

	errCh := make(chan error, 1)
	go func() { errCh <- writeFrame(client, f) }()

	got, err := readFrame(server, true)
	require.NoError(t, err)
	require.NoError(t, <-errCh)

	assert.Equal(t, SEND, got.Command)
	assert.Equal(t, []byte("hello"), got.Body)
	v, ok := got.Headers.Get(HeaderDestination)
	assert.True(t, ok)
	assert.Equal(t, "/queue/a", v)
}

func TestReadFrameNoContentLengthJoinsLines(t *testing.T) {
	client, server := pipeConns(t)

	go func() {
		_ = client.WriteString("MESSAGE\nmessage-id: m1\n\nline one\nline two\x00\n")
		_ = client.Flush()
	}()

	got, err := readFrame(server, true)
	require.NoError(t, err)
	assert.Equal(t, []byte("line one\nline two"), got.Body)
}

func TestReadFrameNoContentLengthDropsTrailingNewlineBeforeNUL(t *testing.T) {
	// A body ending in '\n' immediately before the NUL loses that trailing
	// newline: the in-progress empty line at NUL time is not appended.
	client, server := pipeConns(t)

	go func() {
		_ = client.WriteString("MESSAGE\nmessage-id: m1\n\nonly line\n\x00\n")
		_ = client.Flush()
	}()

	got, err := readFrame(server, true)
	require.NoError(t, err)
	assert.Equal(t, []byte("only line"), got.Body)
}

func TestReadFrameRabbitMQBareNULTerminator(t *testing.T) {
	client, server := pipeConns(t)

	go func() {
		_ = client.WriteString("RECEIPT\nreceipt-id: receipt-1\n\n\x00")
		_ = client.WriteString("RECEIPT\nreceipt-id: receipt-2\n\n\x00")
		_ = client.Flush()
	}()

	first, err := readFrame(server, false)
	require.NoError(t, err)
	v, _ := first.Headers.Get(HeaderReceiptID)
	assert.Equal(t, "receipt-1", v)

	second, err := readFrame(server, false)
	require.NoError(t, err)
	v, _ = second.Headers.Get(HeaderReceiptID)
	assert.Equal(t, "receipt-2", v, "bare-NUL scan must not over-read into the next frame")
}

func TestReadFrameSkipsLeadingBlankLines(t *testing.T) {
	client, server := pipeConns(t)

	go func() {
		_ = client.WriteString("\n\nCONNECTED\nsession: s1\n\n\x00\n")
		_ = client.Flush()
	}()

	got, err := readFrame(server, true)
	require.NoError(t, err)
	assert.Equal(t, CONNECTED, got.Command)
}
