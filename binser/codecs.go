package binser

import (
	"encoding/binary"
	"io"
	"unicode/utf8"
)

// Supported primitive codecs.
var (
	Unit   Codec[struct{}] = unitCodec{}
	Uint8  Codec[uint8]    = uint8Codec{}
	Uint32 Codec[uint32]   = uint32Codec{}
	Int32  Codec[int32]    = int32Codec{}
	Uint64 Codec[uint64]   = uint64Codec{}
	Int64  Codec[int64]    = int64Codec{}

	// String encodes UTF-8 text, prefixed by its byte length.
	String Codec[string] = stringCodec{}
	// Bytes encodes arbitrary byte strings, prefixed by their length.
	Bytes Codec[[]byte] = bytesCodec{}
)

type unitCodec struct{}

func (unitCodec) Encode(io.Writer, struct{}) (int, error) { return 0, nil }
func (unitCodec) Decode(io.Reader) (struct{}, error)      { return struct{}{}, nil }

type uint8Codec struct{}

func (uint8Codec) Encode(w io.Writer, v uint8) (int, error) {
	return writeAll(w, []byte{v})
}

func (uint8Codec) Decode(r io.Reader) (uint8, error) {
	var buf [1]byte
	if err := readFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

type uint32Codec struct{}

func (uint32Codec) Encode(w io.Writer, v uint32) (int, error) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return writeAll(w, buf[:])
}

func (uint32Codec) Decode(r io.Reader) (uint32, error) {
	var buf [4]byte
	if err := readFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

type int32Codec struct{}

func (int32Codec) Encode(w io.Writer, v int32) (int, error) {
	return uint32Codec{}.Encode(w, uint32(v))
}

func (int32Codec) Decode(r io.Reader) (int32, error) {
	u, err := uint32Codec{}.Decode(r)
	return int32(u), err
}

type uint64Codec struct{}

func (uint64Codec) Encode(w io.Writer, v uint64) (int, error) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return writeAll(w, buf[:])
}

func (uint64Codec) Decode(r io.Reader) (uint64, error) {
	var buf [8]byte
	if err := readFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

type int64Codec struct{}

func (int64Codec) Encode(w io.Writer, v int64) (int, error) {
	return uint64Codec{}.Encode(w, uint64(v))
}

func (int64Codec) Decode(r io.Reader) (int64, error) {
	u, err := uint64Codec{}.Decode(r)
	return int64(u), err
}

// --------------------------------------------------------------------

type bytesCodec struct{}

func (bytesCodec) Encode(w io.Writer, v []byte) (int, error) {
	n, err := VInt(len(v)).WriteTo(w)
	if err != nil {
		return int(n), err
	}
	m, err := writeAll(w, v)
	return int(n) + m, err
}

func (bytesCodec) Decode(r io.Reader) ([]byte, error) {
	n, err := ReadVInt(r)
	if err != nil {
		return nil, err
	}
	return readBytes(r, n)
}

type stringCodec struct{}

func (stringCodec) Encode(w io.Writer, v string) (int, error) {
	return bytesCodec{}.Encode(w, []byte(v))
}

func (stringCodec) Decode(r io.Reader) (string, error) {
	p, err := bytesCodec{}.Decode(r)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(p) {
		return "", malformedf("invalid UTF-8 sequence in %d byte string", len(p))
	}
	return string(p), nil
}

// --------------------------------------------------------------------

// Slice returns a codec for sequences of elements. Sequences are prefixed
// by their element count.
func Slice[T any](elem Codec[T]) Codec[[]T] {
	return sliceCodec[T]{elem: elem}
}

type sliceCodec[T any] struct {
	elem Codec[T]
}

func (c sliceCodec[T]) Encode(w io.Writer, vv []T) (int, error) {
	total, err := VInt(len(vv)).WriteTo(w)
	if err != nil {
		return int(total), err
	}
	for _, v := range vv {
		n, err := c.elem.Encode(w, v)
		total += int64(n)
		if err != nil {
			return int(total), err
		}
	}
	return int(total), nil
}

func (c sliceCodec[T]) Decode(r io.Reader) ([]T, error) {
	n, err := ReadVInt(r)
	if err != nil {
		return nil, err
	}

	capacity := n
	if capacity > chunkSize {
		capacity = chunkSize
	}

	vv := make([]T, 0, int(capacity))
	if n > chunkSize {
		// zero-width elements do not consume input, so the count must
		// be bounded explicitly
		cr := &countingReader{r: r}
		v, err := c.elem.Decode(cr)
		if err != nil {
			return nil, err
		}
		if cr.n == 0 {
			return nil, malformedf("%d zero-width elements exceed limit of %d", n, chunkSize)
		}
		vv = append(vv, v)
	}

	for i := uint64(len(vv)); i < n; i++ {
		v, err := c.elem.Decode(r)
		if err != nil {
			return nil, err
		}
		vv = append(vv, v)
	}
	return vv, nil
}

// Pair holds two values which are serialized back to back.
type Pair[A, B any] struct {
	First  A
	Second B
}

// PairOf returns a codec for pairs.
func PairOf[A, B any](first Codec[A], second Codec[B]) Codec[Pair[A, B]] {
	return pairCodec[A, B]{first: first, second: second}
}

type pairCodec[A, B any] struct {
	first  Codec[A]
	second Codec[B]
}

func (c pairCodec[A, B]) Encode(w io.Writer, p Pair[A, B]) (int, error) {
	n, err := c.first.Encode(w, p.First)
	if err != nil {
		return n, err
	}
	m, err := c.second.Encode(w, p.Second)
	return n + m, err
}

func (c pairCodec[A, B]) Decode(r io.Reader) (Pair[A, B], error) {
	var p Pair[A, B]
	var err error

	if p.First, err = c.first.Decode(r); err != nil {
		return p, err
	}
	if p.Second, err = c.second.Decode(r); err != nil {
		return p, err
	}
	return p, nil
}
