// Package stomptrace propagates OpenTelemetry trace context across STOMP
// sends and receives (SPEC_FULL.md §4.10). STOMP frames have no built-in
// trace propagation, so the trace context travels as ordinary headers, the
// same way common/broker/tracing.go carries it across AMQP publishes.
package stomptrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/nsheridan/gostomp/stomp"
)

// Inject returns headers with the trace context from ctx added, leaving
// headers itself untouched.
func Inject(ctx context.Context, headers stomp.Headers) stomp.Headers {
	carrier := &headersCarrier{headers: append(stomp.Headers(nil), headers...)}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.headers
}

// Extract returns a context carrying the trace context found in headers,
// if any, derived from ctx.
func Extract(ctx context.Context, headers stomp.Headers) context.Context {
	carrier := &headersCarrier{headers: headers}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// headersCarrier adapts stomp.Headers to propagation.TextMapCarrier.
// stomp.Headers is an ordered, duplicate-tolerant slice rather than a map;
// Set replaces the first existing header of that name, or appends one.
type headersCarrier struct {
	headers stomp.Headers
}

var _ propagation.TextMapCarrier = (*headersCarrier)(nil)

func (c *headersCarrier) Get(key string) string {
	v, _ := c.headers.Get(key)
	return v
}

func (c *headersCarrier) Set(key, value string) {
	for i, kv := range c.headers {
		if kv.Name == key {
			c.headers[i].Value = value
			return
		}
	}
	c.headers = c.headers.Append(key, value)
}

func (c *headersCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, kv := range c.headers {
		keys = append(keys, kv.Name)
	}
	return keys
}
