/*
Package binser implements the compact binary serialization used by term
dictionaries and everything stored alongside them.

Every serializable type is described by a Codec. Codecs for primitives are
provided as package level values, containers are composed generically:

    // []Pair[string, uint32]
    c := binser.Slice(binser.PairOf(binser.String, binser.Uint32))

Encodings

    VInt:     1-10 bytes, base-128 digits, least significant first,
              bit 7 set on the final byte only
    uint8:    1 byte
    (u)int32: 4 bytes, little endian
    (u)int64: 8 bytes, little endian
    string:   VInt byte length + raw UTF-8 bytes
    bytes:    VInt byte length + raw bytes
    slice:    VInt element count + elements
    pair:     first + second, no separator
    bitmap:   VInt byte length + portable roaring bitmap
    unit:     nothing

Note that the VInt flags the LAST byte of a value, which is the inverse of the
LEB128 convention used by encoding/binary. The value 0 is therefore encoded as
0x80.
*/
package binser
