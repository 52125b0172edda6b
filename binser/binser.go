package binser

import (
	"bytes"
	stderrors "errors"
	"io"
	"math"

	"github.com/pkg/errors"
)

// ErrMalformed is returned (wrapped) when the input cannot be decoded, e.g.
// when it is truncated or contains invalid UTF-8. Use errors.Is to test for it.
var ErrMalformed = stderrors.New("binser: malformed data")

// Codec encodes and decodes values of type T.
type Codec[T any] interface {
	// Encode writes v to w and returns the number of bytes written.
	Encode(w io.Writer, v T) (int, error)
	// Decode reads a single value from r. Decoded values never share
	// memory with the input.
	Decode(r io.Reader) (T, error)
}

// Marshal encodes v into a new byte slice.
func Marshal[T any](c Codec[T], v T) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := c.Encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a single value from data. Trailing bytes are ignored.
func Unmarshal[T any](c Codec[T], data []byte) (T, error) {
	return c.Decode(bytes.NewReader(data))
}

// --------------------------------------------------------------------

// chunkSize limits upfront allocations for length prefixed data, a corrupt
// length must not be able to trigger a huge allocation.
const chunkSize = 64 * 1024

func malformedf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrMalformed, format, args...)
}

// readFull reads exactly len(p) bytes, a short read is malformed data.
func readFull(r io.Reader, p []byte) error {
	if _, err := io.ReadFull(r, p); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return malformedf("unexpected end of input, %d bytes required", len(p))
		}
		return err
	}
	return nil
}

// readBytes reads exactly n bytes into a freshly allocated slice.
func readBytes(r io.Reader, n uint64) ([]byte, error) {
	if n <= chunkSize {
		p := make([]byte, int(n))
		if err := readFull(r, p); err != nil {
			return nil, err
		}
		return p, nil
	}
	if n > math.MaxInt64 {
		return nil, malformedf("length %d out of range", n)
	}

	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, r, int64(n)); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, malformedf("unexpected end of input, %d bytes required", n)
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeAll(w io.Writer, p []byte) (int, error) {
	n, err := w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type byteReader struct {
	r   io.Reader
	buf [1]byte
}

func (b *byteReader) ReadByte() (byte, error) {
	if _, err := io.ReadFull(b.r, b.buf[:]); err != nil {
		return 0, err
	}
	return b.buf[0], nil
}
