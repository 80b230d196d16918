// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package bitstream packs and unpacks bits, bytes and 32-bit integers into a
// fixed byte slice.
//
// Bits fill each byte from the least significant end: bit 0 of a byte is the
// first bit written into it. A byte written at a non-zero bit offset spans two
// buffer bytes. Nothing is ever written or read outside the slice; instead
// [ErrCapacity] and [ErrTruncated] are returned and the cursor stays put.
package bitstream

import "errors"

var (
	ErrCapacity  = errors.New("bitstream: output capacity exceeded")
	ErrTruncated = errors.New("bitstream: truncated stream")
)

// Writer appends bits to a caller-owned buffer.
// The length of the buffer is the capacity.
type Writer struct {
	buf []byte
	off int   // current byte
	bit uint8 // next free bit within buf[off], 0-7
}

func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

func (w *Writer) fits(nbits uint) bool {
	return uint(w.off)*8+uint(w.bit)+nbits <= uint(len(w.buf))*8
}

func (w *Writer) WriteBit(b bool) error {
	if !w.fits(1) {
		return ErrCapacity
	}
	if w.bit == 0 {
		w.buf[w.off] = 0
	}
	if b {
		w.buf[w.off] |= 1 << w.bit
	}
	w.bit++
	if w.bit == 8 {
		w.off++
		w.bit = 0
	}
	return nil
}

// WriteByte satisfies [io.ByteWriter].
func (w *Writer) WriteByte(c byte) error {
	if !w.fits(8) {
		return ErrCapacity
	}
	if w.bit == 0 {
		w.buf[w.off] = c
		w.off++
		return nil
	}
	w.buf[w.off] |= c << w.bit
	w.off++
	w.buf[w.off] = c >> (8 - w.bit)
	return nil
}

// WriteFourBytes writes v little-endian as four successive bytes.
func (w *Writer) WriteFourBytes(v uint32) error {
	if !w.fits(32) {
		return ErrCapacity
	}
	for range 4 {
		w.WriteByte(byte(v))
		v >>= 8
	}
	return nil
}

// WriteBits writes the low n bits of v, least significant first.
func (w *Writer) WriteBits(v uint64, n uint) error {
	if n > 64 {
		panic("bitstream: too many bits")
	}
	if !w.fits(n) {
		return ErrCapacity
	}
	for n > 0 {
		if w.bit == 0 {
			w.buf[w.off] = 0
		}
		take := min(8-uint(w.bit), n)
		w.buf[w.off] |= byte(v&(1<<take-1)) << w.bit
		v >>= take
		n -= take
		w.bit += uint8(take)
		if w.bit == 8 {
			w.off++
			w.bit = 0
		}
	}
	return nil
}

// Len is the number of bytes touched so far, counting a partial byte.
func (w *Writer) Len() int {
	if w.bit != 0 {
		return w.off + 1
	}
	return w.off
}

func (w *Writer) Bytes() []byte { return w.buf[:w.Len()] }

func (w *Writer) Offset() (byteOff int, bitOff uint8) { return w.off, w.bit }

// Reader extracts bits from a byte slice in the order a [Writer] wrote them.
type Reader struct {
	buf []byte
	off int
	bit uint8
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Remaining is the number of unread bits.
func (r *Reader) Remaining() int {
	return (len(r.buf)-r.off)*8 - int(r.bit)
}

func (r *Reader) has(nbits int) bool {
	return r.off < len(r.buf) && r.Remaining() >= nbits
}

func (r *Reader) ReadBit() (uint, error) {
	if !r.has(1) {
		return 0, ErrTruncated
	}
	b := uint(r.buf[r.off]>>r.bit) & 1
	r.bit++
	if r.bit == 8 {
		r.off++
		r.bit = 0
	}
	return b, nil
}

// ReadByte satisfies [io.ByteReader].
func (r *Reader) ReadByte() (byte, error) {
	if !r.has(8) {
		return 0, ErrTruncated
	}
	c := r.buf[r.off] >> r.bit
	r.off++
	if r.bit != 0 {
		c |= r.buf[r.off] << (8 - r.bit)
	}
	return c, nil
}

func (r *Reader) ReadFourBytes() (uint32, error) {
	if !r.has(32) {
		return 0, ErrTruncated
	}
	var v uint32
	for i := range 4 {
		c, _ := r.ReadByte()
		v |= uint32(c) << (8 * i)
	}
	return v, nil
}

// ReadBits reads n bits (at most 32), the first bit read landing in bit 0.
func (r *Reader) ReadBits(n int) (uint, error) {
	if n < 0 || n > 32 {
		panic("bitstream: bad bit count")
	}
	if n > 0 && !r.has(n) {
		return 0, ErrTruncated
	}
	var v uint
	for i := 0; i < n; {
		take := min(8-int(r.bit), n-i)
		chunk := uint(r.buf[r.off]>>r.bit) & (1<<take - 1)
		v |= chunk << i
		i += take
		r.bit += uint8(take)
		if r.bit == 8 {
			r.off++
			r.bit = 0
		}
	}
	return v, nil
}

func (r *Reader) Offset() (byteOff int, bitOff uint8) { return r.off, r.bit }
