// Package stompmetrics instruments a connection's transport layer with
// Prometheus metrics (SPEC_FULL.md §4.10). It decorates the transport
// capability, not the protocol engine: wrap a transport.Dialer before
// passing it to stomp.Connect (or a dialect's Connect) and every byte the
// connection reads or writes, and every frame it writes, is counted, the same way
// common/metrics instruments HTTP and gRPC call sites.
package stompmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/nsheridan/gostomp/stomp/transport"
)

// Metrics holds the Prometheus collectors for one subsystem (typically
// one per logical connection role, e.g. "producer" or "consumer").
type Metrics struct {
	BytesRead     prometheus.Counter
	BytesWritten  prometheus.Counter
	FramesWritten prometheus.Counter
	DialErrors    prometheus.Counter
	DialDuration  prometheus.Histogram
}

// New registers and returns the metrics for subsystem. Calling New twice
// with the same subsystem panics, the same as any other promauto
// registration; callers should construct one Metrics per process.
func New(subsystem string) *Metrics {
	return &Metrics{
		BytesRead: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stomp_" + subsystem + "_bytes_read_total",
			Help: "Total bytes read from the STOMP transport.",
		}),
		BytesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stomp_" + subsystem + "_bytes_written_total",
			Help: "Total bytes written to the STOMP transport.",
		}),
		FramesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stomp_" + subsystem + "_frames_written_total",
			Help: "Total STOMP frames flushed to the transport.",
		}),
		DialErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stomp_" + subsystem + "_dial_errors_total",
			Help: "Total failed dial attempts.",
		}),
		DialDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "stomp_" + subsystem + "_dial_duration_seconds",
			Help:    "Time spent establishing the transport connection.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// WrapDialer returns a transport.Dialer that records dial latency/errors
// and wraps every connection it produces with byte/frame counters.
func (m *Metrics) WrapDialer(d transport.Dialer) transport.Dialer {
	return &instrumentedDialer{inner: d, m: m}
}

type instrumentedDialer struct {
	inner transport.Dialer
	m     *Metrics
}

func (d *instrumentedDialer) Dial(network, addr string) (transport.Conn, error) {
	start := time.Now()
	c, err := d.inner.Dial(network, addr)
	d.m.DialDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		d.m.DialErrors.Inc()
		return nil, err
	}
	return &instrumentedConn{inner: c, m: d.m}, nil
}

type instrumentedConn struct {
	inner transport.Conn
	m     *Metrics
}

func (c *instrumentedConn) ReadLine() (string, error) {
	line, err := c.inner.ReadLine()
	if err == nil {
		// ReadLine strips the '\n' it consumed.
		c.m.BytesRead.Add(float64(len(line) + 1))
	}
	return line, err
}

func (c *instrumentedConn) ReadByte() (byte, error) {
	b, err := c.inner.ReadByte()
	if err == nil {
		c.m.BytesRead.Add(1)
	}
	return b, err
}

func (c *instrumentedConn) ReadN(n int) ([]byte, error) {
	buf, err := c.inner.ReadN(n)
	c.m.BytesRead.Add(float64(len(buf)))
	return buf, err
}

func (c *instrumentedConn) WriteString(s string) error {
	err := c.inner.WriteString(s)
	if err == nil {
		c.m.BytesWritten.Add(float64(len(s)))
	}
	return err
}

func (c *instrumentedConn) Flush() error {
	err := c.inner.Flush()
	if err == nil {
		c.m.FramesWritten.Inc()
	}
	return err
}

func (c *instrumentedConn) Close() error {
	return c.inner.Close()
}
