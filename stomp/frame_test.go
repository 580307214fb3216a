package stomp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeadersPrependAppendOrder(t *testing.T) {
	h := NewHeaders("destination", "/queue/a", "persistent", "true")
	h = h.Prepend("receipt", "receipt-1")
	h = h.Append("transaction", "transaction-1")

	want := Headers{
		{Name: "receipt", Value: "receipt-1"},
		{Name: "destination", Value: "/queue/a"},
		{Name: "persistent", Value: "true"},
		{Name: "transaction", Value: "transaction-1"},
	}
	assert.Equal(t, want, h)
}

func TestHeadersPrependDoesNotMutateOriginal(t *testing.T) {
	base := NewHeaders("destination", "/queue/a")
	_ = base.Prepend("receipt", "receipt-1")
	assert.Len(t, base, 1, "Prepend must not mutate the caller's slice")
}

func TestHeadersGetFirstMatchWins(t *testing.T) {
	h := NewHeaders("foo", "1", "foo", "2")
	v, ok := h.Get("foo")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = h.Get("missing")
	assert.False(t, ok)
}

func TestSplitHeaderLine(t *testing.T) {
	cases := []struct {
		line      string
		wantName  string
		wantValue string
	}{
		{"destination:/queue/a", "destination", "/queue/a"},
		{"Content-Length: 12", "content-length", "12"},
		{"no-colon-here", "no-colon-here", ""},
		{"x: a:b:c", "x", "a:b:c"},
	}
	for _, c := range cases {
		name, value := splitHeaderLine(c.line)
		assert.Equal(t, c.wantName, name, "name for %q", c.line)
		assert.Equal(t, c.wantValue, value, "value for %q", c.line)
	}
}

func TestFrameMessageID(t *testing.T) {
	f := NewFrame(MESSAGE, HeaderMessageID, "msg-1")
	id, ok := f.messageID()
	assert.True(t, ok)
	assert.Equal(t, "msg-1", id)
	assert.True(t, f.isMessage())

	f2 := NewFrame(MESSAGE)
	_, ok = f2.messageID()
	assert.False(t, ok)
}
