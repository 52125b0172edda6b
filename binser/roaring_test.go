package binser_test

import (
	"errors"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/bsm/termdict/binser"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Bitmap", func() {
	It("should serialize", func() {
		bm := roaring.BitmapOf(1, 4, 9, 1<<20, 1<<31)
		res := roundTrip(binser.Bitmap, bm, -1)
		Expect(res.ToArray()).To(Equal([]uint32{1, 4, 9, 1 << 20, 1 << 31}))
	})

	It("should serialize empty bitmaps", func() {
		Expect(roundTrip(binser.Bitmap, roaring.New(), -1).IsEmpty()).To(BeTrue())
		Expect(roundTrip(binser.Bitmap, nil, -1).IsEmpty()).To(BeTrue())
	})

	It("should serialize sequences of bitmaps", func() {
		bms := []*roaring.Bitmap{roaring.BitmapOf(1), roaring.New(), roaring.BitmapOf(2, 3)}
		res := roundTrip(binser.Slice(binser.Bitmap), bms, -1)
		Expect(res).To(HaveLen(3))
		for i := range bms {
			Expect(res[i].Equals(bms[i])).To(BeTrue())
		}
	})

	It("should reject garbage", func() {
		_, err := binser.Unmarshal(binser.Bitmap, []byte{0x83, 1, 2, 3})
		Expect(errors.Is(err, binser.ErrMalformed)).To(BeTrue())
	})
})
