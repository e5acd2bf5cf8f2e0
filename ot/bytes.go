package ot

import (
	"errors"
)

// Reading and writing bytes of a lookup's binary representation.
// All OpenType table data is big-endian.

var errBufferBounds = errors.New("internal inconsistency: buffer bounds error")

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

// binarySegm is a segment of byte data. We use it throughout this module to
// navigate a lookup's binary data.
type binarySegm []byte

func (b binarySegm) Size() int {
	return len(b)
}

func (b binarySegm) Bytes() []byte {
	return b
}

func (b binarySegm) U16(i int) uint16 {
	n, err := b.u16(i)
	if err != nil {
		return 0
	}
	return n
}

// view returns n bytes at the given offset.
// The byte segment returned is a sub-slice of b.
func (b binarySegm) view(offset, n int) (binarySegm, error) {
	if offset < 0 || n <= 0 || offset+n > len(b) {
		return nil, errBufferBounds
	}
	return b[offset : offset+n], nil
}

// u16 returns the uint16 in b at the relative offset i.
func (b binarySegm) u16(i int) (uint16, error) {
	buf, err := b.view(i, 2)
	if err != nil {
		return 0, err
	}
	return u16(buf), nil
}

// putU16 stores an uint16 in b at byte index i.
func putU16(b []byte, i int, n uint16) {
	b[i] = byte(n >> 8 & 0xff)
	b[i+1] = byte(n & 0xff)
}

// putS16 stores a signed 16-bit value in b at byte index i.
func putS16(b []byte, i int, n int16) {
	putU16(b, i, uint16(n))
}

// PutU16 stores an uint16 in b at byte index i, big-endian.
func PutU16(b []byte, i int, n uint16) {
	putU16(b, i, n)
}
