package termdict

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bsm/termdict/binser"
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Builder writes a dictionary. Terms must be inserted in strictly increasing
// byte-wise order. Builders are not safe for concurrent use.
type Builder[V any] struct {
	w     *countingWriter
	codec binser.Codec[V]
	fst   AutomatonBuilder
	log   *zap.Logger

	values bytes.Buffer // the value blob
	last   []byte       // the last inserted term
	count  int
	closed bool
}

// NewBuilder wraps a writer and returns a Builder. Values are encoded
// using codec.
func NewBuilder[V any](w io.Writer, codec binser.Codec[V], o *Options) *Builder[V] {
	o = o.norm()
	cw := &countingWriter{w: w}

	return &Builder[V]{
		w:     cw,
		codec: codec,
		fst:   newTableBuilder(cw, o),
		log:   o.Logger,
	}
}

// NumTerms returns the number of inserted terms.
func (b *Builder[V]) NumTerms() int { return b.count }

// Insert appends a term and its value. It panics if term is not greater
// than the previously inserted term.
func (b *Builder[V]) Insert(term []byte, value V) error {
	if b.closed {
		return errClosed
	}
	if b.count != 0 && bytes.Compare(term, b.last) <= 0 {
		panic(fmt.Sprintf("termdict: out-of-order insert, %q must be > %q", term, b.last))
	}

	addr := b.values.Len()
	if _, err := b.codec.Encode(&b.values, value); err != nil {
		b.values.Truncate(addr)
		return errors.Wrapf(err, "termdict: encode value of %q", term)
	}

	if err := b.fst.Insert(term, uint64(addr)); err != nil {
		b.closed = true
		return errors.Wrap(err, "termdict: write automaton")
	}

	b.last = append(b.last[:0], term...)
	b.count++
	return nil
}

// Finish flushes the automaton, the value blob and the footer. The builder
// must not be used after this method is called.
func (b *Builder[V]) Finish() error {
	if b.closed {
		return errClosed
	}
	b.closed = true

	if err := b.fst.Close(); err != nil {
		return errors.Wrap(err, "termdict: flush automaton")
	}
	fstSize := b.w.n

	blob := b.values.Bytes()
	if _, err := b.w.Write(blob); err != nil {
		return errors.Wrap(err, "termdict: write value blob")
	}

	footer := make([]byte, footerLen)
	binary.LittleEndian.PutUint64(footer[0:], uint64(fstSize))
	binary.LittleEndian.PutUint64(footer[8:], uint64(len(blob)))
	binary.LittleEndian.PutUint64(footer[16:], xxhash.Sum64(blob))
	copy(footer[24:], magic)
	if _, err := b.w.Write(footer); err != nil {
		return errors.Wrap(err, "termdict: write footer")
	}

	b.log.Debug("Dictionary written",
		zap.Int("terms", b.count),
		zap.Int64("automaton_bytes", fstSize),
		zap.Int("value_bytes", len(blob)),
	)
	b.values = bytes.Buffer{}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (w *countingWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.n += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}
