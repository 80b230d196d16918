// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package hpfile

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/elliotnunn/huffpack/internal/bitstream"
	"github.com/elliotnunn/huffpack/internal/huffman"
)

var ctx = context.Background()

var samples = [][]byte{
	nil,
	[]byte("z"),
	[]byte("aaaabbbcc"),
	bytes.Repeat([]byte("huffpack "), 1000),
}

func TestPlainRoundTrip(t *testing.T) {
	for _, src := range samples {
		file, err := Pack(ctx, src, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if file[0] != MarkerPlain {
			t.Fatalf("expected plain marker, got %#x", file[0])
		}
		h, err := ReadHeader(file, nil)
		if err != nil {
			t.Fatal(err)
		}
		if h.Sealed || h.Length != len(src) || h.Size != 5 {
			t.Errorf("unexpected header %+v", h)
		}

		got, err := Unpack(ctx, file, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, src) {
			t.Errorf("round trip mismatch for %d bytes", len(src))
		}
	}
}

func TestSealedRoundTrip(t *testing.T) {
	pass := []byte("open sesame")
	for _, src := range samples {
		file, err := Pack(ctx, src, pass, nil)
		if err != nil {
			t.Fatal(err)
		}
		if file[0] != MarkerSealed {
			t.Fatalf("expected sealed marker, got %#x", file[0])
		}
		if sealed, _ := IsSealed(file); !sealed {
			t.Error("IsSealed says no")
		}

		orig := bytes.Clone(file)
		got, err := Unpack(ctx, file, pass, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, src) {
			t.Errorf("round trip mismatch for %d bytes", len(src))
		}
		if !bytes.Equal(orig, file) {
			t.Error("Unpack modified its input")
		}
	}
}

func TestWrongPassphrase(t *testing.T) {
	file, err := Pack(ctx, []byte("secret message"), []byte("right"), nil)
	if err != nil {
		t.Fatal(err)
	}

	// the sentinel is a single byte, so roughly one wrong passphrase in 256
	// gets past it; what it then decodes must still not be the message
	rejected := 0
	for i := range 64 {
		got, err := Unpack(ctx, file, fmt.Appendf(nil, "wrong%d", i), nil)
		if errors.Is(err, ErrPassword) {
			rejected++
		} else if err == nil && string(got) == "secret message" {
			t.Fatalf("wrong passphrase %d unpacked the message", i)
		}
	}
	if rejected < 56 {
		t.Errorf("only %d of 64 wrong passphrases failed the sentinel check", rejected)
	}
	if _, err := Unpack(ctx, file, nil, nil); !errors.Is(err, ErrPassword) {
		t.Errorf("no passphrase: expected ErrPassword, got %v", err)
	}
}

func TestBadMarker(t *testing.T) {
	for _, file := range [][]byte{nil, {0x00}, {'P', 'K', 3, 4}, {MarkerPlain + 2, 0, 0, 0, 0}} {
		if _, err := Unpack(ctx, file, nil, nil); !errors.Is(err, ErrFormat) {
			t.Errorf("%s: expected ErrFormat, got %v", hex.EncodeToString(file), err)
		}
	}
	if _, err := ReadHeader([]byte{MarkerPlain, 1, 2}, nil); !errors.Is(err, ErrFormat) {
		t.Errorf("short frame: expected ErrFormat, got %v", err)
	}
}

func TestLengthMismatch(t *testing.T) {
	payload, err := Compress(ctx, []byte("abcabc"), nil)
	if err != nil {
		t.Fatal(err)
	}
	file, err := Frame(payload, 7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Unpack(ctx, file, nil, nil); !errors.Is(err, ErrMismatch) {
		t.Errorf("expected ErrMismatch, got %v", err)
	}
}

func TestTruncatedFile(t *testing.T) {
	file, err := Pack(ctx, bytes.Repeat([]byte("xyz"), 100), []byte("pw"), nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Unpack(ctx, file[:len(file)-1], []byte("pw"), nil)
	if !errors.Is(err, bitstream.ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
}

func TestFrameLayout(t *testing.T) {
	file, err := Pack(ctx, []byte("aaaabbbcc"), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(file[:5], []byte{MarkerPlain, 9, 0, 0, 0}) {
		t.Errorf("unexpected frame %s", hex.EncodeToString(file[:5]))
	}
	n, err := huffman.DecompressedLen(file[5:])
	if err != nil || n != 9 {
		t.Errorf("payload does not follow the frame: %d %v", n, err)
	}
}

func TestLargestLength(t *testing.T) {
	h, err := ReadHeader([]byte{MarkerPlain, 0xff, 0xff, 0xff, 0xff}, nil)
	if math.MaxInt < math.MaxUint32 {
		if !errors.Is(err, huffman.ErrTooLarge) {
			t.Errorf("expected ErrTooLarge, got %+v %v", h, err)
		}
	} else if err != nil || uint64(h.Length) != math.MaxUint32 {
		t.Errorf("expected length %d, got %+v %v", uint64(math.MaxUint32), h, err)
	}
}
