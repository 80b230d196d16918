// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package bitstream

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/rand"
	"testing"
)

func TestBitOrder(t *testing.T) {
	buf := make([]byte, 2)
	w := NewWriter(buf)
	for _, b := range []bool{true, false, true, true} {
		if err := w.WriteBit(b); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.WriteByte(0xa5); err != nil {
		t.Fatal(err)
	}
	// 1,0,1,1 then 0xa5 LSB-first: 1,0,1,0,0,1,0,1
	want := []byte{0b0101_1101, 0b0000_1010}
	if !bytes.Equal(w.Bytes(), want) {
		t.Errorf("expected %s, got %s", hex.EncodeToString(want), hex.EncodeToString(w.Bytes()))
	}
	if off, bit := w.Offset(); off != 1 || bit != 4 {
		t.Errorf("expected cursor (1,4), got (%d,%d)", off, bit)
	}
}

func TestFourBytesLittleEndian(t *testing.T) {
	buf := make([]byte, 4)
	w := NewWriter(buf)
	w.WriteFourBytes(0x04030201)
	if !bytes.Equal(buf, []byte{1, 2, 3, 4}) {
		t.Errorf("got %s", hex.EncodeToString(buf))
	}

	r := NewReader(buf)
	v, err := r.ReadFourBytes()
	if err != nil || v != 0x04030201 {
		t.Errorf("expected 0x04030201, got %#x %v", v, err)
	}
}

func TestRandomRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	type op struct {
		kind int
		v    uint64
		n    uint
	}
	var ops []op
	for range 2000 {
		o := op{kind: rng.Intn(4), v: rng.Uint64()}
		switch o.kind {
		case 0:
			o.v &= 1
		case 1:
			o.v &= 0xff
		case 2:
			o.v &= 0xffffffff
		case 3:
			o.n = uint(rng.Intn(33))
			o.v &= 1<<o.n - 1
		}
		ops = append(ops, o)
	}

	buf := make([]byte, 2000*5)
	w := NewWriter(buf)
	for _, o := range ops {
		var err error
		switch o.kind {
		case 0:
			err = w.WriteBit(o.v == 1)
		case 1:
			err = w.WriteByte(byte(o.v))
		case 2:
			err = w.WriteFourBytes(uint32(o.v))
		case 3:
			err = w.WriteBits(o.v, o.n)
		}
		if err != nil {
			t.Fatal(err)
		}
	}

	r := NewReader(w.Bytes())
	for i, o := range ops {
		var got uint64
		var err error
		switch o.kind {
		case 0:
			var b uint
			b, err = r.ReadBit()
			got = uint64(b)
		case 1:
			var b byte
			b, err = r.ReadByte()
			got = uint64(b)
		case 2:
			var v uint32
			v, err = r.ReadFourBytes()
			got = uint64(v)
		case 3:
			var v uint
			v, err = r.ReadBits(int(o.n))
			got = uint64(v)
		}
		if err != nil {
			t.Fatalf("op %d: %v", i, err)
		}
		if got != o.v {
			t.Fatalf("op %d (kind %d): expected %#x, got %#x", i, o.kind, o.v, got)
		}
	}
	if r.Remaining() >= 8 {
		t.Errorf("expected less than a byte left over, got %d bits", r.Remaining())
	}
}

func TestCapacity(t *testing.T) {
	buf := []byte{0, 0xee}
	w := NewWriter(buf[:1])
	for range 7 {
		w.WriteBit(true)
	}
	if err := w.WriteByte(0xff); !errors.Is(err, ErrCapacity) {
		t.Errorf("expected ErrCapacity for spanning byte, got %v", err)
	}
	if err := w.WriteFourBytes(0); !errors.Is(err, ErrCapacity) {
		t.Errorf("expected ErrCapacity for four bytes, got %v", err)
	}
	if err := w.WriteBit(true); err != nil {
		t.Errorf("last bit should fit: %v", err)
	}
	if err := w.WriteBit(true); !errors.Is(err, ErrCapacity) {
		t.Errorf("expected ErrCapacity past the end, got %v", err)
	}
	if buf[1] != 0xee {
		t.Errorf("wrote past capacity: %#x", buf[1])
	}
	if w.Len() != 1 {
		t.Errorf("expected length 1, got %d", w.Len())
	}
}

func TestTruncated(t *testing.T) {
	r := NewReader([]byte{0xff, 0x01})
	if _, err := r.ReadBits(12); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ReadByte(); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
	if _, err := r.ReadFourBytes(); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
	if off, bit := r.Offset(); off != 1 || bit != 4 {
		t.Errorf("failed read moved the cursor to (%d,%d)", off, bit)
	}
	for range 4 {
		if _, err := r.ReadBit(); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := r.ReadBit(); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated at end, got %v", err)
	}
}
