package sstable

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"
	"sync"

	"github.com/golang/snappy"
)

// Reader instances can seek and iterate across data in tables.
// Readers are safe for concurrent use, iterators are not.
type Reader struct {
	r io.ReaderAt

	index     []blockInfo
	maxOffset int64
}

// NewReader opens a reader.
func NewReader(r io.ReaderAt, size int64) (*Reader, error) {
	if size < footerLen {
		return nil, errBadMagic
	}

	// read footer
	tmp := make([]byte, footerLen)
	footerOffset := size - footerLen
	if _, err := r.ReadAt(tmp, footerOffset); err != nil {
		return nil, err
	}

	// parse footer
	if !bytes.Equal(tmp[8:16], magic) {
		return nil, errBadMagic
	}
	indexOffset := int64(binary.LittleEndian.Uint64(tmp[:8]))
	if indexOffset < 0 || indexOffset > footerOffset {
		return nil, errBadIndex
	}

	// read index
	raw := make([]byte, int(footerOffset-indexOffset))
	if _, err := r.ReadAt(raw, indexOffset); err != nil {
		return nil, err
	}

	var index []blockInfo
	var offset int64

	for pos := 0; pos < len(raw); {
		kln, n := binary.Uvarint(raw[pos:])
		if n <= 0 || kln > uint64(len(raw)-pos-n) {
			return nil, errBadIndex
		}
		pos += n

		maxKey := raw[pos : pos+int(kln)]
		pos += int(kln)

		inc, n := binary.Uvarint(raw[pos:])
		if n <= 0 {
			return nil, errBadIndex
		}
		pos += n

		offset += int64(inc)
		if offset >= indexOffset {
			return nil, errBadIndex
		}
		index = append(index, blockInfo{MaxKey: maxKey, Offset: offset})
	}

	return &Reader{
		r: r,

		index:     index, // block offsets
		maxOffset: indexOffset,
	}, nil
}

// NumBlocks returns the number of stored blocks.
func (r *Reader) NumBlocks() int {
	return len(r.index)
}

// Get retrieves the value for a key.
// It may return an ErrNotFound error.
func (r *Reader) Get(key []byte) (uint64, error) {
	iter, err := r.Seek(key)
	if err != nil {
		return 0, err
	}
	defer iter.Release()

	if !iter.Next() {
		if err := iter.Err(); err != nil {
			return 0, err
		}
		return 0, ErrNotFound
	}
	if !bytes.Equal(iter.Key(), key) {
		return 0, ErrNotFound
	}
	return iter.Value(), nil
}

// Seek returns an iterator starting at the position >= key.
func (r *Reader) Seek(key []byte) (*Iterator, error) {
	b, err := r.SeekBlock(key)
	if err != nil {
		return nil, err
	}

	s := b.SeekSection(key)
	s.Seek(key)
	return &Iterator{r: r, b: b, s: s}, nil
}

// GetBlock returns a reader for the n-th block.
func (r *Reader) GetBlock(bpos int) (*BlockReader, error) {
	if len(r.index) == 0 {
		return &BlockReader{}, nil
	}
	if bpos < 0 {
		bpos = 0
	}
	if bpos >= len(r.index) {
		return &BlockReader{
			bpos: len(r.index),
		}, nil
	}
	return r.readBlock(bpos)
}

// SeekBlock seeks the block containing the key.
func (r *Reader) SeekBlock(key []byte) (*BlockReader, error) {
	bpos := sort.Search(len(r.index), func(i int) bool {
		return bytes.Compare(r.index[i].MaxKey, key) >= 0
	})
	return r.GetBlock(bpos)
}

func (r *Reader) readBlock(bpos int) (*BlockReader, error) {
	min := r.index[bpos].Offset
	max := r.maxOffset
	if next := bpos + 1; next < len(r.index) {
		max = r.index[next].Offset
	}
	if max-min < 2 {
		return nil, errBadBlock
	}

	raw := fetchBuffer(int(max - min))
	if _, err := r.r.ReadAt(raw, min); err != nil {
		releaseBuffer(raw)
		return nil, err
	}

	var block []byte
	switch cBitPos := len(raw) - 1; raw[cBitPos] {
	case blockNoCompression:
		block = raw[:cBitPos]
	case blockSnappyCompression:
		defer releaseBuffer(raw)

		sz, err := snappy.DecodedLen(raw[:cBitPos])
		if err != nil {
			return nil, corruptBlock(err)
		}

		plain := fetchBuffer(sz)
		if block, err = snappy.Decode(plain, raw[:cBitPos]); err != nil {
			releaseBuffer(plain)
			return nil, corruptBlock(err)
		}
	default:
		releaseBuffer(raw)
		return nil, errBadCompression
	}

	if len(block) < 4 {
		releaseBuffer(block)
		return nil, errBadBlock
	}
	scnt := int(binary.LittleEndian.Uint32(block[len(block)-4:]))
	if scnt < 1 || scnt*4 > len(block) {
		releaseBuffer(block)
		return nil, errBadBlock
	}

	return &BlockReader{
		block:  block,
		bpos:   bpos,
		scnt:   scnt,
		maxKey: r.index[bpos].MaxKey,
	}, nil
}

// --------------------------------------------------------------------

// BlockReader reads a single block.
type BlockReader struct {
	block  []byte
	bpos   int // the current block position
	scnt   int // the section count
	maxKey []byte
}

// NumSections returns the number of sections in this block.
func (r *BlockReader) NumSections() int { return r.scnt }

// Pos returns the index position the current block within the table.
func (r *BlockReader) Pos() int { return r.bpos }

// GetSection gets a single section.
func (r *BlockReader) GetSection(spos int) *SectionReader {
	if spos < 0 {
		spos = 0
	}
	if spos >= r.scnt {
		return &SectionReader{spos: r.scnt}
	}

	min := r.sectionOffset(spos)
	max := r.sectionOffset(spos + 1)
	if min > max || max > len(r.block) {
		return &SectionReader{spos: spos, err: errBadSection}
	}
	return &SectionReader{section: r.block[min:max], spos: spos}
}

// SeekSection seeks the section for a key.
func (r *BlockReader) SeekSection(key []byte) *SectionReader {
	if bytes.Compare(key, r.maxKey) > 0 {
		return r.GetSection(r.scnt)
	}

	spos := sort.Search(r.scnt, func(i int) bool {
		return bytes.Compare(r.firstKey(i), key) > 0
	}) - 1
	return r.GetSection(spos)
}

// Release releases the block reader and frees up resources. The reader must not be used
// after this method is called.
func (r *BlockReader) Release() {
	releaseBuffer(r.block)
	r.block = nil
}

// The starting offset of the section within the block.
func (r *BlockReader) sectionOffset(spos int) int {
	if spos < 1 {
		return 0
	} else if spos >= r.scnt {
		return len(r.block) - r.scnt*4
	} else {
		nn := len(r.block) - r.scnt*4 + (spos-1)*4
		return int(binary.LittleEndian.Uint32(r.block[nn:]))
	}
}

// The first, uncompressed key of a section.
func (r *BlockReader) firstKey(spos int) []byte {
	min, max := r.sectionOffset(spos), r.sectionOffset(spos+1)
	if min > max || max > len(r.block) {
		return nil
	}
	section := r.block[min:max]

	_, n := binary.Uvarint(section) // shared, always 0
	if n <= 0 {
		return nil
	}
	kln, m := binary.Uvarint(section[n:])
	if m <= 0 || kln > uint64(len(section)-n-m) {
		return nil
	}
	return section[n+m : n+m+int(kln)]
}

// SectionReader reads an individual section within a block.
type SectionReader struct {
	section []byte

	spos int  // the section
	read int  // bytes read
	peek bool // current entry was positioned by Seek but not yet returned by Next

	key []byte // current key
	val uint64 // current value
	err error
}

// Seek positions the cursor before the first entry with a key >= key.
// It returns false if no such entry exists in the section.
func (r *SectionReader) Seek(key []byte) bool {
	for r.More() {
		if !r.Next() {
			return false
		}
		if bytes.Compare(r.key, key) >= 0 {
			r.peek = true
			return true
		}
	}
	return false
}

// Pos returns the index position the current section within the block.
func (r *SectionReader) Pos() int { return r.spos }

// Key returns the key if the current entry. Please note that keys
// are temporary buffers and must be copied if used beyond the next cursor move.
func (r *SectionReader) Key() []byte { return r.key }

// Value returns the value of the current entry.
func (r *SectionReader) Value() uint64 { return r.val }

// More returns true if more data can be read in the section.
func (r *SectionReader) More() bool { return r.peek || (r.err == nil && r.read < len(r.section)) }

// Err returns an error if the section data was found to be corrupt.
func (r *SectionReader) Err() error { return r.err }

// Next advances the cursor to the next entry within the section and
// returns true if successful.
func (r *SectionReader) Next() bool {
	if r.peek {
		r.peek = false
		return true
	}
	if !r.More() {
		return false
	}

	shared, n := binary.Uvarint(r.section[r.read:])
	if n <= 0 || shared > uint64(len(r.key)) {
		return r.corrupt()
	}
	r.read += n

	unshared, n := binary.Uvarint(r.section[r.read:])
	if n <= 0 || unshared > uint64(len(r.section)-r.read-n) {
		return r.corrupt()
	}
	r.read += n

	r.key = append(r.key[:int(shared)], r.section[r.read:r.read+int(unshared)]...)
	r.read += int(unshared)

	val, n := binary.Uvarint(r.section[r.read:])
	if n <= 0 {
		return r.corrupt()
	}
	r.read += n
	r.val = val

	return true
}

func (r *SectionReader) corrupt() bool {
	r.err = errBadSection
	r.read = len(r.section)
	return false
}

// --------------------------------------------------------------------

// Iterator is a convenience wrapper around BlockReader and SectionReader
// which can (forward-) iterate over keys across block and section boundaries.
type Iterator struct {
	r *Reader
	b *BlockReader
	s *SectionReader

	err error
}

// Key returns the key if the current entry. Please note that keys
// are temporary buffers and must be copied if used beyond the next cursor move.
func (i *Iterator) Key() []byte { return i.s.Key() }

// Value returns the value of the current entry.
func (i *Iterator) Value() uint64 { return i.s.Value() }

// More returns true if more data can be read.
func (i *Iterator) More() bool {
	if i.err != nil {
		return false
	}

	return i.s.More() || i.s.Pos()+1 < i.b.NumSections() || i.b.Pos()+1 < i.r.NumBlocks()
}

// Next advances the cursor to the next entry and returns true if successful.
func (i *Iterator) Next() bool {
	if i.err != nil {
		return false
	}

	for {
		// more entries in the section
		if i.s.Next() {
			return true
		}
		if err := i.s.Err(); err != nil {
			i.err = err
			return false
		}

		// more sections in the block
		if n := i.s.Pos() + 1; n < i.b.NumSections() {
			i.s = i.b.GetSection(n)
			continue
		}

		// more blocks
		if n := i.b.Pos() + 1; n < i.r.NumBlocks() {
			b, err := i.r.GetBlock(n)
			if err != nil {
				i.err = err
				return false
			}
			i.b.Release()
			i.b = b
			i.s = b.GetSection(0)
			continue
		}

		return false
	}
}

// Err exposes iterator errors, if any.
func (i *Iterator) Err() error {
	if i.err == errReleased {
		return nil
	}
	return i.err
}

// Release releases the iterator and frees up resources. The iterator must not be used
// after this method is called.
func (i *Iterator) Release() {
	if i.err == errReleased {
		return
	}
	i.b.Release()
	i.err = errReleased
}

// --------------------------------------------------------------------

var bufPool sync.Pool

func fetchBuffer(sz int) []byte {
	if v := bufPool.Get(); v != nil {
		if p := v.([]byte); sz <= cap(p) {
			return p[:sz]
		}
	}
	return make([]byte, sz)
}

func releaseBuffer(p []byte) {
	if cap(p) != 0 {
		bufPool.Put(p)
	}
}
