package protocol

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Framer owns a single duplex byte stream and exposes the two read/write
// primitive pairs the session state machine needs to keep line-structured
// and binary data from ever being misaligned: ReadLine /
// ReadExact on input, WriteLine / WriteBinary on output. Reads are
// buffered so that bytes read ahead of a line boundary are available to
// a subsequent ReadExact without re-reading the socket; writes go
// straight to the underlying stream, retrying on short writes.
type Framer struct {
	r *bufio.Reader
	w io.Writer
}

// NewFramer wraps rw (typically a net.Conn) in a Framer.
func NewFramer(rw io.ReadWriter) *Framer {
	return &Framer{r: bufio.NewReaderSize(rw, 4096), w: rw}
}

// ReadLine reads bytes up to and including "\r\n" and returns the line
// with the terminator stripped. A line whose length (including the
// terminator) exceeds MaxLineLength is rejected with ErrLineTooLong.
func (f *Framer) ReadLine() (string, error) {
	raw, err := f.r.ReadString('\n')
	if err != nil {
		return "", err
	}
	if len(raw) > MaxLineLength {
		return "", ErrLineTooLong
	}
	return strings.TrimRight(raw, "\r\n"), nil
}

// ReadExact reads exactly n bytes of binary payload. Any bytes already
// buffered from a prior ReadLine are consumed first, so the framer never
// re-reads past a mode boundary.
func (f *Framer) ReadExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if _, err := io.ReadFull(f.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadByte reads a single byte, used by the session state machine to
// peek at the handshake-artefact escape sequence one byte at a time
// without losing buffered lookahead.
func (f *Framer) ReadByte() (byte, error) { return f.r.ReadByte() }

// UnreadByte pushes the most recently read byte back, allowing the
// session to re-evaluate it as the start of an ordinary command line
// once it has determined the handshake escape sequence does not apply.
func (f *Framer) UnreadByte() error { return f.r.UnreadByte() }

// Peek returns, without consuming, the next n bytes, blocking until they
// have arrived; it returns fewer only together with an error.
func (f *Framer) Peek(n int) ([]byte, error) { return f.r.Peek(n) }

// WriteLine writes line, appending "\r\n" if not already present.
func (f *Framer) WriteLine(line string) error {
	if !strings.HasSuffix(line, "\r\n") {
		line += "\r\n"
	}
	return f.writeAll([]byte(line))
}

// WriteBinary writes a raw binary block with no framing of its own; the
// caller is responsible for having already sent any length-prefix or
// header line the recipient needs to know how many bytes follow.
func (f *Framer) WriteBinary(data []byte) error {
	return f.writeAll(data)
}

func (f *Framer) writeAll(data []byte) error {
	for len(data) > 0 {
		n, err := f.w.Write(data)
		if err != nil {
			return err
		}
		if n == 0 {
			return errors.New("xbdm: zero-length write")
		}
		data = data[n:]
	}
	return nil
}
