package binser

import (
	"io"

	"github.com/RoaringBitmap/roaring/v2"
)

// Bitmap encodes compressed sets of document IDs, e.g. posting lists,
// as a length-prefixed roaring bitmap. A nil bitmap is encoded as an empty one.
var Bitmap Codec[*roaring.Bitmap] = bitmapCodec{}

type bitmapCodec struct{}

func (bitmapCodec) Encode(w io.Writer, v *roaring.Bitmap) (int, error) {
	if v == nil {
		v = roaring.New()
	}

	p, err := v.ToBytes()
	if err != nil {
		return 0, err
	}
	return bytesCodec{}.Encode(w, p)
}

func (bitmapCodec) Decode(r io.Reader) (*roaring.Bitmap, error) {
	p, err := bytesCodec{}.Decode(r)
	if err != nil {
		return nil, err
	}

	bm := roaring.New()
	if err := bm.UnmarshalBinary(p); err != nil {
		return nil, malformedf("invalid bitmap: %v", err)
	}
	return bm, nil
}
