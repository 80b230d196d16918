// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package huffman

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/elliotnunn/huffpack/internal/bitstream"
)

// Decompress decodes src into dst and returns the number of bytes written,
// which is the length stored in the stream. It fails with
// [bitstream.ErrCapacity] before decoding anything if dst is too short.
func Decompress(dst, src []byte) (int, error) {
	return DecompressContext(context.Background(), dst, src, nil)
}

// DecompressContext is [Decompress] with cancellation. If progress is not nil,
// the number of bytes decoded is added to it as decoding proceeds.
func DecompressContext(ctx context.Context, dst, src []byte, progress *atomic.Int64) (int, error) {
	r := bitstream.NewReader(src)
	flat, count, err := readPreamble(r)
	if err != nil {
		return 0, err
	}
	if uint64(count) > uint64(len(dst)) {
		return 0, fmt.Errorf("%w: stream holds %d bytes, buffer has room for %d",
			bitstream.ErrCapacity, count, len(dst))
	}

	out := dst[:count]
	p := pacer{ctx: ctx, progress: progress}
	for i := range out {
		if i%checkEvery == 0 && i != 0 {
			if err := p.step(i); err != nil {
				return 0, err
			}
		}
		sym, err := flat.next(r)
		if err != nil {
			return 0, fmt.Errorf("%w: ended at byte %d of %d", err, i, count)
		}
		out[i] = sym
	}
	p.report(len(out))
	return len(out), nil
}

// DecompressedLen reads the tree and length of a stream without decoding it.
func DecompressedLen(src []byte) (int, error) {
	_, count, err := readPreamble(bitstream.NewReader(src))
	if err != nil {
		return 0, err
	}
	if uint64(count) > math.MaxInt {
		return 0, fmt.Errorf("%w: %d bytes", ErrTooLarge, count)
	}
	return int(count), nil
}

func readPreamble(r *bitstream.Reader) (*FlatTree, uint32, error) {
	tree, err := ReadTree(r)
	if err != nil {
		return nil, 0, err
	}
	count, err := r.ReadFourBytes()
	if err != nil {
		return nil, 0, err
	}
	return tree.Flatten(), count, nil
}
