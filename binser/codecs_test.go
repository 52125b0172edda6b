package binser_test

import (
	"bytes"
	"errors"
	"math"

	"github.com/bsm/termdict/binser"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Codecs", func() {
	It("should serialize unit", func() {
		Expect(roundTrip(binser.Unit, struct{}{}, 0)).To(Equal(struct{}{}))
	})

	It("should serialize fixed-width integers", func() {
		Expect(roundTrip(binser.Uint8, uint8(3), 1)).To(Equal(uint8(3)))
		Expect(roundTrip(binser.Uint8, uint8(255), 1)).To(Equal(uint8(255)))
		Expect(roundTrip(binser.Uint32, uint32(3), 4)).To(Equal(uint32(3)))
		Expect(roundTrip(binser.Uint32, uint32(math.MaxUint32), 4)).To(Equal(uint32(math.MaxUint32)))
		Expect(roundTrip(binser.Int32, int32(-5), 4)).To(Equal(int32(-5)))
		Expect(roundTrip(binser.Uint64, uint64(math.MaxUint64), 8)).To(Equal(uint64(math.MaxUint64)))
		Expect(roundTrip(binser.Int64, int64(math.MinInt64), 8)).To(Equal(int64(math.MinInt64)))
	})

	It("should encode fixed-width integers as little endian", func() {
		Expect(binser.Marshal(binser.Uint32, 0x01020304)).To(Equal([]byte{4, 3, 2, 1}))
		Expect(binser.Marshal(binser.Int64, -2)).To(Equal([]byte{0xfe, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}))
	})

	It("should serialize strings", func() {
		Expect(roundTrip(binser.String, "", 1)).To(Equal(""))
		Expect(roundTrip(binser.String, "hello", 6)).To(Equal("hello"))
		Expect(roundTrip(binser.String, "ぽよぽよ", 1+3*4)).To(Equal("ぽよぽよ"))
		Expect(roundTrip(binser.String, "富士さん見える。", 1+3*8)).To(Equal("富士さん見える。"))

		long := string(bytes.Repeat([]byte("x"), 200))
		Expect(roundTrip(binser.String, long, 2+200)).To(Equal(long))

		huge := string(bytes.Repeat([]byte("y"), 100000))
		Expect(roundTrip(binser.String, huge, 3+100000)).To(Equal(huge))
	})

	It("should reject invalid UTF-8", func() {
		_, err := binser.Unmarshal(binser.String, []byte{0x82, 0xff, 0xfe})
		Expect(errors.Is(err, binser.ErrMalformed)).To(BeTrue())

		// the same payload is fine as raw bytes
		Expect(binser.Unmarshal(binser.Bytes, []byte{0x82, 0xff, 0xfe})).To(Equal([]byte{0xff, 0xfe}))
	})

	It("should reject truncated strings", func() {
		_, err := binser.Unmarshal(binser.String, []byte{0x85, 'a', 'b'})
		Expect(errors.Is(err, binser.ErrMalformed)).To(BeTrue())

		_, err = binser.Unmarshal(binser.String, nil)
		Expect(errors.Is(err, binser.ErrMalformed)).To(BeTrue())

		data := binser.AppendVInt(nil, 200000)
		data = append(data, bytes.Repeat([]byte("z"), 1000)...)
		_, err = binser.Unmarshal(binser.String, data)
		Expect(errors.Is(err, binser.ErrMalformed)).To(BeTrue())
	})

	It("should not alias the source", func() {
		data := []byte{0x83, 'f', 'o', 'o'}
		val, err := binser.Unmarshal(binser.Bytes, data)
		Expect(err).NotTo(HaveOccurred())
		data[1] = 'x'
		Expect(val).To(Equal([]byte("foo")))
	})

	It("should serialize slices", func() {
		Expect(roundTrip(binser.Slice(binser.Uint8), []uint8{}, 1)).To(BeEmpty())
		Expect(roundTrip(binser.Slice(binser.Uint32), []uint32{1, 3}, 1+4*2)).To(Equal([]uint32{1, 3}))
		Expect(roundTrip(binser.Slice(binser.String), []string{"a", "", "bc"}, 1+2+1+3)).To(Equal([]string{"a", "", "bc"}))

		nested := [][]uint64{{1}, {}, {1 << 40, 7}}
		Expect(roundTrip(binser.Slice(binser.Slice(binser.VIntCodec)), nested, -1)).To(Equal(nested))
	})

	It("should reject truncated slices", func() {
		data, err := binser.Marshal(binser.Slice(binser.Uint32), []uint32{1, 2, 3})
		Expect(err).NotTo(HaveOccurred())

		_, err = binser.Unmarshal(binser.Slice(binser.Uint32), data[:len(data)-1])
		Expect(errors.Is(err, binser.ErrMalformed)).To(BeTrue())

		// declared count far exceeds available bytes
		_, err = binser.Unmarshal(binser.Slice(binser.Uint8), binser.AppendVInt(nil, math.MaxUint32))
		Expect(errors.Is(err, binser.ErrMalformed)).To(BeTrue())
	})

	It("should serialize long slices", func() {
		long := make([]uint8, 70000)
		for i := range long {
			long[i] = uint8(i)
		}
		Expect(roundTrip(binser.Slice(binser.Uint8), long, 3+70000)).To(Equal(long))

		units := make([]struct{}, 64*1024)
		Expect(roundTrip(binser.Slice(binser.Unit), units, 3)).To(HaveLen(64 * 1024))
	})

	It("should reject excessive counts of zero-width elements", func() {
		_, err := binser.Unmarshal(binser.Slice(binser.Unit), binser.AppendVInt(nil, 1<<34))
		Expect(errors.Is(err, binser.ErrMalformed)).To(BeTrue())

		_, err = binser.Unmarshal(binser.Slice(binser.PairOf(binser.Unit, binser.Unit)), binser.AppendVInt(nil, math.MaxUint64))
		Expect(errors.Is(err, binser.ErrMalformed)).To(BeTrue())
	})

	It("should serialize pairs", func() {
		c := binser.PairOf(binser.String, binser.Uint32)
		p := binser.Pair[string, uint32]{First: "abc", Second: 42}
		Expect(roundTrip(c, p, 4+4)).To(Equal(p))

		pp := []binser.Pair[string, uint32]{p, {First: "", Second: 1}}
		Expect(roundTrip(binser.Slice(c), pp, 1+8+5)).To(Equal(pp))
	})

	It("should reject truncated pairs", func() {
		c := binser.PairOf(binser.VIntCodec, binser.Uint64)
		_, err := binser.Unmarshal(c, []byte{0x81, 1, 2})
		Expect(errors.Is(err, binser.ErrMalformed)).To(BeTrue())
	})

	It("should propagate I/O errors", func() {
		_, err := binser.Uint64.Decode(errReader{})
		Expect(err).To(MatchError(errBoom))
		Expect(errors.Is(err, binser.ErrMalformed)).To(BeFalse())

		_, err = binser.String.Encode(&errWriter{n: 2}, "hello")
		Expect(err).To(MatchError(errBoom))

		_, err = binser.Slice(binser.Uint32).Encode(&errWriter{n: 5}, []uint32{1, 2})
		Expect(err).To(MatchError(errBoom))
	})
})
