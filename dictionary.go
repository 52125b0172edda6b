package termdict

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/bsm/termdict/binser"
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// Dictionary is an immutable map of terms to values.
// Dictionaries are safe for concurrent use.
type Dictionary[V any] struct {
	fst    Automaton
	values []byte
	codec  binser.Codec[V]
	closer io.Closer
}

// Open opens a dictionary of the given size. The value blob is loaded into
// memory, terms are read from r on demand. Values are decoded using codec.
func Open[V any](r io.ReaderAt, size int64, codec binser.Codec[V]) (*Dictionary[V], error) {
	if size < footerLen {
		return nil, errors.Wrapf(ErrMalformed, "%d bytes are too short for a footer", size)
	}

	// read footer
	footer := make([]byte, footerLen)
	if _, err := r.ReadAt(footer, size-footerLen); err != nil {
		return nil, errors.Wrap(err, "termdict: read footer")
	}

	// parse footer
	if !bytes.Equal(footer[24:], magic) {
		return nil, errors.Wrap(ErrMalformed, "bad magic byte sequence")
	}
	fstSize := binary.LittleEndian.Uint64(footer[0:])
	blobSize := binary.LittleEndian.Uint64(footer[8:])
	checksum := binary.LittleEndian.Uint64(footer[16:])
	if payload := uint64(size - footerLen); fstSize > payload || blobSize != payload-fstSize {
		return nil, errors.Wrapf(ErrMalformed, "section sizes %d+%d do not match payload size %d", fstSize, blobSize, payload)
	}

	// read value blob
	values := make([]byte, int(blobSize))
	if _, err := r.ReadAt(values, int64(fstSize)); err != nil {
		return nil, errors.Wrap(err, "termdict: read value blob")
	}
	if xxhash.Sum64(values) != checksum {
		return nil, errors.Wrap(ErrMalformed, "value blob checksum mismatch")
	}

	// open automaton
	fst, err := openTableAutomaton(io.NewSectionReader(r, 0, int64(fstSize)), int64(fstSize))
	if err != nil {
		return nil, errors.Wrap(err, "termdict: open automaton")
	}

	return &Dictionary[V]{
		fst:    fst,
		values: values,
		codec:  codec,
	}, nil
}

// OpenFile opens a dictionary file. Please call Close to release the
// file handle once the dictionary is no longer needed.
func OpenFile[V any](name string, codec binser.Codec[V]) (*Dictionary[V], error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	fs, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	d, err := Open(f, fs.Size(), codec)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	d.closer = f
	return d, nil
}

// Close releases the underlying file, if the dictionary was opened by OpenFile.
func (d *Dictionary[V]) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

// NumBytes returns the size of the value blob.
func (d *Dictionary[V]) NumBytes() int { return len(d.values) }

// Get returns the address of term.
func (d *Dictionary[V]) Get(term []byte) (uint64, bool, error) {
	return d.fst.Get(term)
}

// GetValue returns the value of term.
func (d *Dictionary[V]) GetValue(term []byte) (V, bool, error) {
	var zero V

	addr, ok, err := d.Get(term)
	if err != nil || !ok {
		return zero, ok, err
	}

	v, err := d.ValueAt(addr)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// ValueAt decodes the value stored at addr. Addresses must be obtained
// from this dictionary.
func (d *Dictionary[V]) ValueAt(addr uint64) (V, error) {
	// zero-sized values may be stored at the very end of the blob
	if addr > uint64(len(d.values)) {
		var zero V
		return zero, errors.Wrapf(ErrMalformed, "address %d out of range", addr)
	}

	v, err := d.codec.Decode(bytes.NewReader(d.values[addr:]))
	if err != nil {
		return v, errors.Wrapf(err, "termdict: decode value at %d", addr)
	}
	return v, nil
}

// Stream returns a builder for a stream over all terms.
func (d *Dictionary[V]) Stream() *StreamerBuilder[V] {
	return &StreamerBuilder[V]{dict: d}
}

// Range returns a builder for a stream over the terms within
// [lower, upper). A nil bound is unbounded.
func (d *Dictionary[V]) Range(lower, upper []byte) *StreamerBuilder[V] {
	b := d.Stream()
	if lower != nil {
		b = b.Ge(lower)
	}
	if upper != nil {
		b = b.Lt(upper)
	}
	return b
}
