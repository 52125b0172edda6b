package termdict

import (
	"bytes"
	"container/heap"

	"go.uber.org/zap"
)

// MergeEntry is the occurrence of a merged term in one of the source
// dictionaries.
type MergeEntry[V any] struct {
	Segment int    // the position of the source streamer
	Address uint64 // the term's address in the source dictionary

	dict *Dictionary[V]
}

// Value decodes the value from the source dictionary.
func (e MergeEntry[V]) Value() (V, error) {
	return e.dict.ValueAt(e.Address)
}

// Merger merges the streams of multiple dictionaries into a single stream
// of distinct terms in increasing order. Occurrences of the same term in
// multiple sources are grouped into a single merged entry.
type Merger[V any] struct {
	heap    mergeHeap[V]
	group   []*mergeCursor[V] // cursors positioned at the current term
	entries []MergeEntry[V]
	key     []byte

	log *zap.Logger
	err error
}

// NewMerger creates a merger. Segments are identified by the position of
// their streamer in the argument list.
func NewMerger[V any](streamers ...*Streamer[V]) *Merger[V] {
	group := make([]*mergeCursor[V], 0, len(streamers))
	for i, s := range streamers {
		group = append(group, &mergeCursor[V]{segment: i, stream: s})
	}

	return &Merger[V]{
		heap:    make(mergeHeap[V], 0, len(streamers)),
		group:   group,
		entries: make([]MergeEntry[V], 0, len(streamers)),
		log:     zap.NewNop(),
	}
}

// WithLogger sets the logger for the merger.
func (m *Merger[V]) WithLogger(log *zap.Logger) *Merger[V] {
	m.log = log.With(zap.String("service", "termdict_merger"))
	return m
}

// Advance moves to the next distinct term and returns true if successful.
func (m *Merger[V]) Advance() bool {
	// advance all cursors of the current group, retire exhausted ones
	for _, c := range m.group {
		if c.stream.Advance() {
			heap.Push(&m.heap, c)
			continue
		}
		if err := c.stream.Err(); err != nil && m.err == nil {
			m.err = err
		}
		m.log.Debug("Segment exhausted", zap.Int("segment", c.segment))
	}
	m.group = m.group[:0]
	m.entries = m.entries[:0]
	m.key = nil

	if m.err != nil {
		m.Close()
		return false
	}
	if len(m.heap) == 0 {
		return false
	}

	// pop all cursors positioned at the smallest term
	first := heap.Pop(&m.heap).(*mergeCursor[V])
	m.group = append(m.group, first)
	for len(m.heap) != 0 && bytes.Equal(m.heap[0].stream.Key(), first.stream.Key()) {
		m.group = append(m.group, heap.Pop(&m.heap).(*mergeCursor[V]))
	}

	m.key = first.stream.Key()
	for _, c := range m.group {
		m.entries = append(m.entries, MergeEntry[V]{
			Segment: c.segment,
			Address: c.stream.Address(),
			dict:    c.stream.dict,
		})
	}
	return true
}

// Key returns the current term. Please note that terms are temporary
// buffers and must be copied if used beyond the next call to Advance.
func (m *Merger[V]) Key() []byte { return m.key }

// Entries returns the occurrences of the current term, ordered by segment.
// The returned slice is reused by subsequent calls to Advance.
func (m *Merger[V]) Entries() []MergeEntry[V] { return m.entries }

// Err exposes errors of the source streamers, if any.
func (m *Merger[V]) Err() error { return m.err }

// Close closes all source streamers.
func (m *Merger[V]) Close() {
	for _, c := range m.group {
		c.stream.Close()
	}
	for _, c := range m.heap {
		c.stream.Close()
	}
	m.group = m.group[:0]
	m.heap = m.heap[:0]
	m.entries = m.entries[:0]
	m.key = nil
}

// --------------------------------------------------------------------

type mergeCursor[V any] struct {
	segment int
	stream  *Streamer[V]
}

type mergeHeap[V any] []*mergeCursor[V]

func (h mergeHeap[V]) Len() int      { return len(h) }
func (h mergeHeap[V]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h mergeHeap[V]) Less(i, j int) bool {
	if c := bytes.Compare(h[i].stream.Key(), h[j].stream.Key()); c != 0 {
		return c < 0
	}
	return h[i].segment < h[j].segment
}

func (h *mergeHeap[V]) Push(x interface{}) { *h = append(*h, x.(*mergeCursor[V])) }
func (h *mergeHeap[V]) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}
