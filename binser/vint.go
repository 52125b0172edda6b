package binser

import (
	"io"
)

// MaxVIntLen is the maximum length of a VInt-encoded 64-bit value.
const MaxVIntLen = 10

// VInt is a uint64 which serializes as a variable length integer.
type VInt uint64

// WriteTo implements io.WriterTo.
func (v VInt) WriteTo(w io.Writer) (int64, error) {
	var buf [MaxVIntLen]byte
	n, err := writeAll(w, AppendVInt(buf[:0], uint64(v)))
	return int64(n), err
}

// SizeVInt returns the number of bytes required to encode v.
func SizeVInt(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

// PutVInt encodes v into buf and returns the number of bytes written.
// It panics if buf is too small.
func PutVInt(buf []byte, v uint64) int {
	i := 0
	for v >= 0x80 {
		buf[i] = byte(v & 0x7f)
		v >>= 7
		i++
	}
	buf[i] = byte(v) | 0x80
	return i + 1
}

// AppendVInt appends the encoding of v to dst.
func AppendVInt(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v&0x7f))
		v >>= 7
	}
	return append(dst, byte(v)|0x80)
}

// ConsumeVInt decodes a VInt from the start of buf and returns the value and
// the number of bytes read. n == 0 means that buf is truncated, n < 0 means
// that the value overflows 64 bits.
func ConsumeVInt(buf []byte) (v uint64, n int) {
	for i, b := range buf {
		if i == MaxVIntLen {
			return 0, -(i + 1)
		}
		if i == MaxVIntLen-1 && b&0x7f > 1 {
			return 0, -(i + 1)
		}
		v |= uint64(b&0x7f) << (7 * uint(i))
		if b&0x80 != 0 {
			return v, i + 1
		}
	}
	return 0, 0
}

// ReadVInt reads a VInt from r. A truncated or overflowing encoding
// is reported as ErrMalformed.
func ReadVInt(r io.Reader) (uint64, error) {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = &byteReader{r: r}
	}

	var v uint64
	for i := 0; i < MaxVIntLen; i++ {
		b, err := br.ReadByte()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return 0, malformedf("truncated vint after %d bytes", i)
		} else if err != nil {
			return 0, err
		}

		if i == MaxVIntLen-1 && b&0x7f > 1 {
			return 0, malformedf("vint overflows 64 bits")
		}
		v |= uint64(b&0x7f) << (7 * uint(i))
		if b&0x80 != 0 {
			return v, nil
		}
	}
	return 0, malformedf("vint exceeds %d bytes", MaxVIntLen)
}

// --------------------------------------------------------------------

// VIntCodec encodes uint64 values as VInts.
var VIntCodec Codec[uint64] = vintCodec{}

type vintCodec struct{}

func (vintCodec) Encode(w io.Writer, v uint64) (int, error) {
	n, err := VInt(v).WriteTo(w)
	return int(n), err
}

func (vintCodec) Decode(r io.Reader) (uint64, error) { return ReadVInt(r) }
