package termdict

import (
	"errors"

	"github.com/bsm/termdict/sstable"
	"go.uber.org/zap"
)

var magic = []byte{84, 68, 73, 67, 84, 46, 118, 49}

const footerLen = 32

// ErrMalformed is returned (wrapped) when a dictionary file is corrupt.
var ErrMalformed = errors.New("termdict: malformed dictionary")

var (
	errClosed   = errors.New("termdict: builder is closed")
	errNoStream = errors.New("termdict: streamer is not positioned")
)

// Options configure builders.
type Options struct {
	// BlockSize is the minimum uncompressed size in bytes of each
	// automaton block.
	// Default: 4KiB.
	BlockSize int

	// BlockRestartInterval is the number of terms between restart points
	// for prefix compression of terms.
	// Default: 16.
	BlockRestartInterval int

	// The compression codec to use for automaton blocks.
	// Default: sstable.SnappyCompression.
	Compression sstable.Compression

	// Logger receives debug output.
	// Default: no-op.
	Logger *zap.Logger
}

func (o *Options) norm() *Options {
	var oo Options
	if o != nil {
		oo = *o
	}

	if oo.Logger == nil {
		oo.Logger = zap.NewNop()
	}
	return &oo
}

func (o *Options) tableOptions() *sstable.WriterOptions {
	return &sstable.WriterOptions{
		BlockSize:            o.BlockSize,
		BlockRestartInterval: o.BlockRestartInterval,
		Compression:          o.Compression,
	}
}
