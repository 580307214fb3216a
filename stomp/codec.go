package stomp

import (
	"strconv"
	"strings"

	"github.com/nsheridan/gostomp/stomp/transport"
)

// terminator is always written on send, regardless of the connection's
// eof_nl convention — both RabbitMQ and ActiveMQ/ocamlmq accept a NUL
// followed by a newline (spec §4.2).
const terminator = "\x00\n"

// writeFrame serializes and writes f to t, flushing afterwards. Header
// order is preserved exactly as given in f.Headers.
func writeFrame(t transport.Conn, f *Frame) error {
	var b strings.Builder
	b.WriteString(f.Command)
	b.WriteByte('\n')
	for _, h := range f.Headers {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	if err := t.WriteString(b.String()); err != nil {
		return err
	}
	if len(f.Body) > 0 {
		if err := t.WriteString(string(f.Body)); err != nil {
			return err
		}
	}
	if err := t.WriteString(terminator); err != nil {
		return err
	}
	return t.Flush()
}

// readFrame reads one frame from t. eofNL selects the terminator
// convention: true consumes a trailing newline after the body/NUL (the
// ActiveMQ/ocamlmq convention); false consumes a single byte (RabbitMQ's
// bare NUL), per spec §4.2.
func readFrame(t transport.Conn, eofNL bool) (*Frame, error) {
	command, err := readNonBlankLine(t)
	if err != nil {
		return nil, err
	}

	f := &Frame{Command: command}
	for {
		line, err := t.ReadLine()
		if err != nil {
			return nil, err
		}
		if line == "" {
			break
		}
		name, value := splitHeaderLine(line)
		f.Headers = append(f.Headers, Header{Name: name, Value: value})
	}

	if err := readBody(t, f, eofNL); err != nil {
		return nil, err
	}
	return f, nil
}

// readNonBlankLine skips leading blank lines before a command line, as
// permitted by spec §4.2 ("leading blank lines before a command are
// skipped").
func readNonBlankLine(t transport.Conn) (string, error) {
	for {
		line, err := t.ReadLine()
		if err != nil {
			return "", err
		}
		if line != "" {
			return line, nil
		}
	}
}

func readBody(t transport.Conn, f *Frame, eofNL bool) error {
	if text, ok := f.Headers.Get(HeaderContentLength); ok {
		if n, err := strconv.ParseUint(text, 10, 32); err == nil {
			body, err := t.ReadN(int(n))
			if err != nil {
				return err
			}
			f.Body = body
			return consumeTerminator(t, eofNL)
		}
	}

	// No (valid) content-length: rebuild the body from lines read one byte
	// at a time, joined with '\n', stopping at the NUL that ends the body
	// (spec §4.2). Byte-at-a-time reading, rather than a buffered ReadLine,
	// is what keeps this correct under RabbitMQ's bare-NUL convention: the
	// NUL may be immediately followed by the next frame's command with no
	// intervening newline, so we must never read past it to find one. This
	// is also why a body that ends in '\n' immediately before the NUL loses
	// that trailing newline — the in-progress (empty) line at the time the
	// NUL arrives is dropped rather than joined in, a latent quirk of this
	// framing the spec leaves unresolved (spec §9).
	var lines [][]byte
	var cur []byte
	for {
		c, err := t.ReadByte()
		if err != nil {
			return err
		}
		switch c {
		case 0:
			if len(cur) > 0 {
				lines = append(lines, cur)
			}
			f.Body = []byte(joinLines(lines))
			return consumeTerminatorTail(t, eofNL)
		case '\n':
			lines = append(lines, cur)
			cur = nil
		default:
			cur = append(cur, c)
		}
	}
}

func joinLines(lines [][]byte) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.Write(l)
	}
	return b.String()
}

// consumeTerminator discards the terminator after a content-length-framed
// body, where the NUL itself has not yet been consumed.
func consumeTerminator(t transport.Conn, eofNL bool) error {
	if _, err := t.ReadByte(); err != nil { // the NUL
		return err
	}
	if eofNL {
		if _, err := t.ReadByte(); err != nil { // the trailing newline
			return err
		}
	}
	return nil
}

// consumeTerminatorTail discards the terminator when the NUL has already
// been consumed as part of scanning the content-length-less body.
func consumeTerminatorTail(t transport.Conn, eofNL bool) error {
	if eofNL {
		if _, err := t.ReadByte(); err != nil { // the trailing newline
			return err
		}
	}
	// eofNL == false: RabbitMQ's bare-NUL convention. The NUL that ended
	// the body scan was itself the terminator; nothing further to consume.
	return nil
}
