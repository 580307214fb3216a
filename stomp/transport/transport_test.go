package transport

import (
	"errors"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamConnReadWriteRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	ca := NewStreamConn(a)
	cb := NewStreamConn(b)

	go func() {
		require.NoError(t, ca.WriteString("hello\n"))
		require.NoError(t, ca.Flush())
	}()

	line, err := cb.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "hello", line)
}

func TestStreamConnReadN(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	ca := NewStreamConn(a)
	cb := NewStreamConn(b)

	go func() {
		require.NoError(t, ca.WriteString("abcde"))
		require.NoError(t, ca.Flush())
	}()

	buf, err := cb.ReadN(5)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcde"), buf)
}

func TestStreamConnReadNZero(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	buf, err := NewStreamConn(b).ReadN(0)
	require.NoError(t, err)
	assert.Empty(t, buf)
	_ = a
}

func TestIsConnectionRefused(t *testing.T) {
	assert.True(t, IsConnectionRefused(syscall.ECONNREFUSED))
	assert.True(t, IsConnectionRefused(&net.OpError{Err: syscall.ECONNREFUSED}))
	assert.False(t, IsConnectionRefused(errors.New("boom")))
}
