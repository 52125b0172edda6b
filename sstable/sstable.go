package sstable

import (
	"errors"
	"fmt"
)

var magic = []byte{84, 68, 134, 190, 31, 122, 101, 219}

const footerLen = 16

const (
	blockNoCompression     = 0
	blockSnappyCompression = 1
)

// ErrNotFound is returned by the reader when a key cannot be found.
var ErrNotFound = errors.New("sstable: not found")

// ErrMalformed is wrapped by all errors caused by corrupt table data.
// Use errors.Is to test for it.
var ErrMalformed = errors.New("sstable: malformed data")

var (
	errClosed   = errors.New("sstable: is closed")
	errReleased = errors.New("sstable: iterator was released")

	errBadMagic       error = malformedError("sstable: bad magic byte sequence")
	errBadCompression error = malformedError("sstable: bad compression codec")
	errBadIndex       error = malformedError("sstable: bad block index")
	errBadBlock       error = malformedError("sstable: bad block")
	errBadSection     error = malformedError("sstable: bad section")
)

type malformedError string

func (e malformedError) Error() string { return string(e) }
func (e malformedError) Unwrap() error { return ErrMalformed }

// corruptBlock reports undecodable block data.
func corruptBlock(err error) error {
	return fmt.Errorf("sstable: bad block: %v: %w", err, ErrMalformed)
}

type blockInfo struct {
	MaxKey []byte // maximum key in the block
	Offset int64  // block offset position
}

// sharedPrefixLen returns the length of the common prefix of a and b.
func sharedPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// --------------------------------------------------------------------

// Compression is the compression codec
type Compression byte

func (c Compression) isValid() bool {
	return c >= SnappyCompression && c < unknownCompression
}

// Supported compression codecs
const (
	SnappyCompression Compression = iota
	NoCompression
	unknownCompression
)
