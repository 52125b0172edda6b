package termdict

import (
	"bytes"

	"github.com/pkg/errors"
)

type bound struct {
	key       []byte
	inclusive bool
}

// below reports whether key sorts below a lower bound.
func (b *bound) below(key []byte) bool {
	if b == nil {
		return false
	}
	c := bytes.Compare(key, b.key)
	return c < 0 || (c == 0 && !b.inclusive)
}

// above reports whether key sorts above an upper bound.
func (b *bound) above(key []byte) bool {
	if b == nil {
		return false
	}
	c := bytes.Compare(key, b.key)
	return c > 0 || (c == 0 && !b.inclusive)
}

// StreamerBuilder configures the bounds of a Streamer.
type StreamerBuilder[V any] struct {
	dict         *Dictionary[V]
	lower, upper *bound
}

// Ge limits the stream to terms >= key.
func (b *StreamerBuilder[V]) Ge(key []byte) *StreamerBuilder[V] {
	b.lower = &bound{key: append([]byte{}, key...), inclusive: true}
	return b
}

// Gt limits the stream to terms > key.
func (b *StreamerBuilder[V]) Gt(key []byte) *StreamerBuilder[V] {
	b.lower = &bound{key: append([]byte{}, key...)}
	return b
}

// Le limits the stream to terms <= key.
func (b *StreamerBuilder[V]) Le(key []byte) *StreamerBuilder[V] {
	b.upper = &bound{key: append([]byte{}, key...), inclusive: true}
	return b
}

// Lt limits the stream to terms < key.
func (b *StreamerBuilder[V]) Lt(key []byte) *StreamerBuilder[V] {
	b.upper = &bound{key: append([]byte{}, key...)}
	return b
}

// Into creates the Streamer.
func (b *StreamerBuilder[V]) Into() (*Streamer[V], error) {
	var start []byte
	if b.lower != nil {
		start = b.lower.key
	}

	iter, err := b.dict.fst.Seek(start)
	if err != nil {
		return nil, errors.Wrap(err, "termdict: seek automaton")
	}

	return &Streamer[V]{
		dict:  b.dict,
		iter:  iter,
		lower: b.lower,
		upper: b.upper,
	}, nil
}

// --------------------------------------------------------------------

// Streamer iterates over (term, value) pairs in increasing term order.
// Streamers are forward-only, Advance must be called before the first
// access.
type Streamer[V any] struct {
	dict         *Dictionary[V]
	iter         AutomatonIterator
	lower, upper *bound

	key   []byte
	addr  uint64
	valid bool
	err   error
}

// Advance moves to the next term and returns true if successful.
func (s *Streamer[V]) Advance() bool {
	s.valid = false
	if s.iter == nil {
		return false
	}

	for s.iter.Next() {
		key := s.iter.Key()
		if s.lower.below(key) {
			continue
		}
		if s.upper.above(key) {
			break
		}

		s.key = key
		s.addr = s.iter.Value()
		s.valid = true
		return true
	}

	s.err = s.iter.Err()
	s.Close()
	return false
}

// Key returns the current term. Please note that terms are temporary
// buffers and must be copied if used beyond the next call to Advance.
func (s *Streamer[V]) Key() []byte {
	if !s.valid {
		return nil
	}
	return s.key
}

// Address returns the address of the current term's value or 0 if the
// streamer is not positioned.
func (s *Streamer[V]) Address() uint64 {
	if !s.valid {
		return 0
	}
	return s.addr
}

// Value decodes the value of the current term.
func (s *Streamer[V]) Value() (V, error) {
	if !s.valid {
		var zero V
		return zero, errNoStream
	}
	return s.dict.ValueAt(s.addr)
}

// Err exposes iteration errors, if any.
func (s *Streamer[V]) Err() error { return s.err }

// Close releases the streamer. It is safe to abandon a streamer without
// calling Close, but resources are returned to the pool earlier when it is
// called.
func (s *Streamer[V]) Close() {
	s.valid = false
	if s.iter != nil {
		s.iter.Release()
		s.iter = nil
	}
}
