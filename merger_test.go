package termdict_test

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/bsm/termdict"
	"github.com/bsm/termdict/binser"
	"github.com/bsm/termdict/sstable"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var _ = Describe("Merger", func() {
	var d1, d2 *termdict.Dictionary[uint64]

	type occurrence struct {
		Segment int
		Value   uint64
	}

	type merged struct {
		Term        string
		Occurrences []occurrence
	}

	drain := func(m *termdict.Merger[uint64]) []merged {
		var res []merged
		for m.Advance() {
			row := merged{Term: string(m.Key())}
			for _, e := range m.Entries() {
				v, err := e.Value()
				Expect(err).NotTo(HaveOccurred())
				row.Occurrences = append(row.Occurrences, occurrence{Segment: e.Segment, Value: v})
			}
			res = append(res, row)
		}
		Expect(m.Err()).NotTo(HaveOccurred())
		return res
	}

	streamOf := func(d *termdict.Dictionary[uint64]) *termdict.Streamer[uint64] {
		s, err := d.Stream().Into()
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	BeforeEach(func() {
		var err error
		d1, err = seedDict(binser.Uint64, nil,
			seedPair[uint64]{Term: "a", Value: 1},
			seedPair[uint64]{Term: "c", Value: 3},
		)
		Expect(err).NotTo(HaveOccurred())

		d2, err = seedDict(binser.Uint64, nil,
			seedPair[uint64]{Term: "b", Value: 2},
			seedPair[uint64]{Term: "c", Value: 30},
		)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should merge", func() {
		m := termdict.NewMerger(streamOf(d1), streamOf(d2))
		Expect(drain(m)).To(Equal([]merged{
			{Term: "a", Occurrences: []occurrence{{Segment: 0, Value: 1}}},
			{Term: "b", Occurrences: []occurrence{{Segment: 1, Value: 2}}},
			{Term: "c", Occurrences: []occurrence{{Segment: 0, Value: 3}, {Segment: 1, Value: 30}}},
		}))
		Expect(m.Advance()).To(BeFalse())
	})

	It("should expose addresses", func() {
		m := termdict.NewMerger(streamOf(d2), streamOf(d1))
		defer m.Close()

		Expect(m.Advance()).To(BeTrue())
		Expect(m.Key()).To(Equal([]byte("a")))
		Expect(m.Entries()).To(HaveLen(1))
		Expect(m.Entries()[0].Segment).To(Equal(1))
		Expect(m.Entries()[0].Address).To(Equal(uint64(0)))

		Expect(m.Advance()).To(BeTrue())
		Expect(m.Advance()).To(BeTrue())
		Expect(m.Key()).To(Equal([]byte("c")))
		Expect(m.Entries()).To(HaveLen(2))
		Expect(m.Entries()[0].Segment).To(Equal(0))
		Expect(m.Entries()[0].Address).To(Equal(uint64(8)))
		Expect(m.Entries()[1].Segment).To(Equal(1))
		Expect(m.Entries()[1].Address).To(Equal(uint64(8)))
	})

	It("should merge nothing", func() {
		m := termdict.NewMerger[uint64]()
		Expect(m.Advance()).To(BeFalse())
		Expect(m.Key()).To(BeNil())
		Expect(m.Entries()).To(BeEmpty())
	})

	It("should merge a single source", func() {
		Expect(drain(termdict.NewMerger(streamOf(d1)))).To(Equal([]merged{
			{Term: "a", Occurrences: []occurrence{{Segment: 0, Value: 1}}},
			{Term: "c", Occurrences: []occurrence{{Segment: 0, Value: 3}}},
		}))
	})

	It("should merge empty sources", func() {
		empty, err := seedDict[uint64](binser.Uint64, nil)
		Expect(err).NotTo(HaveOccurred())

		m := termdict.NewMerger(streamOf(empty), streamOf(d2), streamOf(empty))
		Expect(drain(m)).To(Equal([]merged{
			{Term: "b", Occurrences: []occurrence{{Segment: 1, Value: 2}}},
			{Term: "c", Occurrences: []occurrence{{Segment: 1, Value: 30}}},
		}))
	})

	It("should merge ranges", func() {
		s1, err := d1.Range([]byte("b"), nil).Into()
		Expect(err).NotTo(HaveOccurred())
		s2, err := d2.Range(nil, []byte("c")).Into()
		Expect(err).NotTo(HaveOccurred())

		Expect(drain(termdict.NewMerger(s1, s2))).To(Equal([]merged{
			{Term: "b", Occurrences: []occurrence{{Segment: 1, Value: 2}}},
			{Term: "c", Occurrences: []occurrence{{Segment: 0, Value: 3}}},
		}))
	})

	It("should merge many dictionaries", func() {
		union := make(map[string][]int)
		var streams []*termdict.Streamer[[]uint32]

		for seg := 0; seg < 5; seg++ {
			pairs := seedPostings(int64(100+seg), 1000)
			dict, err := seedDict(binser.Slice(binser.Uint32), &termdict.Options{BlockSize: 256}, pairs...)
			Expect(err).NotTo(HaveOccurred())

			s, err := dict.Stream().Into()
			Expect(err).NotTo(HaveOccurred())
			streams = append(streams, s)

			for _, p := range pairs {
				union[p.Term] = append(union[p.Term], seg)
			}
		}

		exp := make([]string, 0, len(union))
		for t := range union {
			exp = append(exp, t)
		}
		sort.Strings(exp)

		m := termdict.NewMerger(streams...)
		defer m.Close()

		var act []string
		for m.Advance() {
			term := string(m.Key())
			act = append(act, term)

			var segs []int
			for _, e := range m.Entries() {
				segs = append(segs, e.Segment)
			}
			Expect(segs).To(Equal(union[term]), "for %q", term)
		}
		Expect(m.Err()).NotTo(HaveOccurred())
		Expect(act).To(Equal(exp))
	})

	It("should log exhausted segments", func() {
		core, logs := observer.New(zap.DebugLevel)
		m := termdict.NewMerger(streamOf(d1), streamOf(d2)).WithLogger(zap.New(core))
		drain(m)

		Expect(logs.FilterMessage("Segment exhausted").Len()).To(Equal(2))
	})

	It("should stop and release sources on errors", func() {
		var healthy, flaky []seedPair[uint64]
		for i := 0; i < 100; i++ {
			flaky = append(flaky, seedPair[uint64]{Term: fmt.Sprintf("a%03d", i), Value: uint64(i)})
			healthy = append(healthy, seedPair[uint64]{Term: fmt.Sprintf("b%03d", i), Value: uint64(i)})
		}
		o := &termdict.Options{BlockSize: 64, Compression: sstable.NoCompression}

		buf := new(bytes.Buffer)
		Expect(seedFile(buf, binser.Uint64, o, flaky...)).To(Succeed())
		r := &failingReaderAt{r: bytes.NewReader(buf.Bytes())}
		fd, err := termdict.Open(r, int64(buf.Len()), binser.Uint64)
		Expect(err).NotTo(HaveOccurred())

		hd, err := seedDict(binser.Uint64, o, healthy...)
		Expect(err).NotTo(HaveOccurred())

		s1, s2 := streamOf(fd), streamOf(hd)
		m := termdict.NewMerger(s1, s2)
		Expect(m.Advance()).To(BeTrue())
		Expect(m.Key()).To(Equal([]byte("a000")))

		r.fail = true
		for m.Advance() {
		}
		Expect(m.Err()).To(MatchError(ContainSubstring("disk gone")))
		Expect(m.Key()).To(BeNil())
		Expect(s2.Advance()).To(BeFalse())
	})

	It("should close all sources", func() {
		s1, s2 := streamOf(d1), streamOf(d2)
		m := termdict.NewMerger(s1, s2)
		Expect(m.Advance()).To(BeTrue())

		m.Close()
		Expect(m.Advance()).To(BeFalse())
		Expect(s1.Advance()).To(BeFalse())
		Expect(s2.Advance()).To(BeFalse())
	})
})
