// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package hpfile frames a compressed payload as a huffpack file.
//
// A plain file is [MarkerPlain], the original length (four bytes,
// little-endian) and the payload. A sealed file is [MarkerSealed] followed by
// [Sentinel], the length and the payload, everything after the marker XORed
// with the passphrase keystream. The sentinel decrypts correctly only with the
// right passphrase.
package hpfile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/elliotnunn/huffpack/internal/bitstream"
	"github.com/elliotnunn/huffpack/internal/huffman"
	"github.com/elliotnunn/huffpack/internal/keystream"
)

const (
	MarkerPlain  byte = 0xc8
	MarkerSealed byte = 0xc9
	Sentinel     byte = 0x5a
)

var (
	ErrFormat   = errors.New("not a huffpack file")
	ErrPassword = errors.New("incorrect passphrase")
	ErrMismatch = errors.New("huffpack length field disagrees with payload")
)

type Header struct {
	Sealed bool
	Length int // before compression
	Size   int // of the frame preceding the payload
}

func frameLen(sealed bool) int {
	if sealed {
		return 6
	}
	return 5
}

// Pack compresses src and frames it. A non-empty passphrase seals the file.
func Pack(ctx context.Context, src, passphrase []byte, progress *atomic.Int64) ([]byte, error) {
	payload, err := Compress(ctx, src, progress)
	if err != nil {
		return nil, err
	}
	return Frame(payload, len(src), passphrase)
}

// Compress returns just the codec payload for src, in a buffer of its own.
func Compress(ctx context.Context, src []byte, progress *atomic.Int64) ([]byte, error) {
	buf := make([]byte, huffman.MaxCompressedLen(len(src)))
	n, err := huffman.CompressContext(ctx, buf, src, progress)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Frame wraps an existing payload. origLen must be the length of the data the
// payload decodes to.
func Frame(payload []byte, origLen int, passphrase []byte) ([]byte, error) {
	if origLen < 0 || uint64(origLen) > math.MaxUint32 {
		return nil, huffman.ErrTooLarge
	}
	sealed := len(passphrase) > 0
	hdr := frameLen(sealed)
	out := make([]byte, hdr+len(payload))

	// the frame slice is exactly big enough, so these writes cannot fail
	w := bitstream.NewWriter(out[:hdr])
	if sealed {
		w.WriteByte(MarkerSealed)
		w.WriteByte(Sentinel)
	} else {
		w.WriteByte(MarkerPlain)
	}
	w.WriteFourBytes(uint32(origLen))
	copy(out[hdr:], payload)

	if sealed {
		keystream.New(passphrase).XOR(out[1:])
	}
	return out, nil
}

// IsSealed reports whether a passphrase is needed to unpack the file.
func IsSealed(file []byte) (bool, error) {
	if len(file) == 0 {
		return false, ErrFormat
	}
	switch file[0] {
	case MarkerPlain:
		return false, nil
	case MarkerSealed:
		return true, nil
	default:
		return false, ErrFormat
	}
}

// ReadHeader checks the frame and reads the original length.
// Only the frame is decrypted, so this is cheap even for a large sealed file.
func ReadHeader(file, passphrase []byte) (Header, error) {
	sealed, err := IsSealed(file)
	if err != nil {
		return Header{}, err
	}
	h := Header{Sealed: sealed, Size: frameLen(sealed)}
	if len(file) < h.Size {
		return Header{}, fmt.Errorf("%w: %d-byte file is shorter than its frame", ErrFormat, len(file))
	}

	frame := file[:h.Size]
	if sealed {
		if len(passphrase) == 0 {
			return Header{}, ErrPassword
		}
		frame = append([]byte(nil), frame...)
		keystream.New(passphrase).XOR(frame[1:])
	}

	r := bitstream.NewReader(frame)
	r.ReadByte()
	if sealed {
		if s, _ := r.ReadByte(); s != Sentinel {
			return Header{}, ErrPassword
		}
	}
	n, err := r.ReadFourBytes()
	if err != nil {
		return Header{}, err
	}
	if uint64(n) > math.MaxInt {
		return Header{}, fmt.Errorf("%w: %d bytes", huffman.ErrTooLarge, n)
	}
	h.Length = int(n)
	return h, nil
}

// Unpack reverses [Pack]. The input is not modified.
func Unpack(ctx context.Context, file, passphrase []byte, progress *atomic.Int64) ([]byte, error) {
	h, err := ReadHeader(file, passphrase)
	if err != nil {
		return nil, err
	}

	payload := file[h.Size:]
	if h.Sealed {
		payload = append([]byte(nil), file[1:]...)
		keystream.New(passphrase).XOR(payload)
		payload = payload[h.Size-1:]
	}

	n, err := huffman.DecompressedLen(payload)
	if err != nil {
		return nil, err
	}
	if n != h.Length {
		return nil, fmt.Errorf("%w: frame says %d bytes, payload says %d", ErrMismatch, h.Length, n)
	}

	out := make([]byte, n)
	if _, err := huffman.DecompressContext(ctx, out, payload, progress); err != nil {
		return nil, err
	}
	return out, nil
}
