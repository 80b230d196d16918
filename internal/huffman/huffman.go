// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package huffman is a whole-buffer Huffman coder for byte streams.
//
// A compressed payload is the code tree in pre-order (bit 1 and a symbol byte
// for a leaf, bit 0 for an internal node), the original length as four
// little-endian bytes, then the codewords. Bits are packed by [bitstream].
package huffman

import (
	"errors"
	"math"
)

var (
	ErrCorrupt  = errors.New("huffman: corrupt tree header")
	ErrTooLarge = errors.New("huffman: length too large for this platform or format")
)

const (
	nSymbols = 256

	// 256 leaves of 9 bits, 255 internal nodes of 1 bit, and the length field
	maxHeaderBits = nSymbols*9 + (nSymbols - 1) + 32
	maxHeaderLen  = (maxHeaderBits + 7) / 8

	// how many symbols pass between progress updates and cancellation checks
	checkEvery = 1 << 16

	maxInput = math.MaxUint32
)

// MaxCompressedLen is the buffer size that [Compress] is guaranteed to fit in
// for an input of n bytes.
//
// A Huffman code is never worse on average than a flat 8-bit code, so 2n covers
// the payload with room to spare; the header allowance covers small inputs.
func MaxCompressedLen(n int) int {
	return 2*n + maxHeaderLen
}
