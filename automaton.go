package termdict

import (
	"io"

	"github.com/bsm/termdict/sstable"
	"github.com/pkg/errors"
)

// AutomatonBuilder builds an automaton from keys which are inserted in
// strictly increasing byte-wise order.
type AutomatonBuilder interface {
	// Insert maps key to addr.
	Insert(key []byte, addr uint64) error
	// Close flushes the automaton.
	Close() error
}

// Automaton is an immutable, sorted map of byte-string keys to integers.
// Implementations must be safe for concurrent use.
type Automaton interface {
	// Get returns the integer mapped to key.
	Get(key []byte) (uint64, bool, error)
	// Seek returns an iterator positioned before the first key >= key.
	Seek(key []byte) (AutomatonIterator, error)
}

// AutomatonIterator iterates over automaton entries in key order.
type AutomatonIterator interface {
	Next() bool
	Key() []byte
	Value() uint64
	Err() error
	Release()
}

// --------------------------------------------------------------------

type tableBuilder struct {
	*sstable.Writer
}

func newTableBuilder(w io.Writer, o *Options) AutomatonBuilder {
	return tableBuilder{Writer: sstable.NewWriter(w, o.tableOptions())}
}

func (b tableBuilder) Insert(key []byte, addr uint64) error {
	return b.Append(key, addr)
}

type tableAutomaton struct {
	*sstable.Reader
}

func openTableAutomaton(r io.ReaderAt, size int64) (Automaton, error) {
	tr, err := sstable.NewReader(r, size)
	if err != nil {
		return nil, automatonError(err)
	}
	return tableAutomaton{Reader: tr}, nil
}

func (a tableAutomaton) Get(key []byte) (uint64, bool, error) {
	addr, err := a.Reader.Get(key)
	if err == sstable.ErrNotFound {
		return 0, false, nil
	} else if err != nil {
		return 0, false, automatonError(err)
	}
	return addr, true, nil
}

func (a tableAutomaton) Seek(key []byte) (AutomatonIterator, error) {
	iter, err := a.Reader.Seek(key)
	if err != nil {
		return nil, automatonError(err)
	}
	return tableIterator{Iterator: iter}, nil
}

type tableIterator struct {
	*sstable.Iterator
}

func (i tableIterator) Err() error { return automatonError(i.Iterator.Err()) }

// automatonError marks corrupt automaton data as malformed, I/O errors
// are passed through.
func automatonError(err error) error {
	if err != nil && errors.Is(err, sstable.ErrMalformed) {
		return errors.Wrap(ErrMalformed, err.Error())
	}
	return err
}
