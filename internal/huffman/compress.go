// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package huffman

import (
	"context"
	"sync/atomic"

	"github.com/elliotnunn/huffpack/internal/bitstream"
)

// Compress encodes src into dst and returns the number of bytes used.
// A dst of [MaxCompressedLen] bytes is always big enough; a smaller one
// may fail with [bitstream.ErrCapacity].
func Compress(dst, src []byte) (int, error) {
	return CompressContext(context.Background(), dst, src, nil)
}

// CompressContext is [Compress] with cancellation. If progress is not nil,
// the number of input bytes encoded is added to it as encoding proceeds.
func CompressContext(ctx context.Context, dst, src []byte, progress *atomic.Int64) (int, error) {
	if uint64(len(src)) > maxInput {
		return 0, ErrTooLarge
	}

	freq := CountFrequencies(src)
	tree := BuildTree(&freq)
	codes := tree.EncodingMap()

	w := bitstream.NewWriter(dst)
	if err := tree.Encode(w); err != nil {
		return 0, err
	}
	if err := w.WriteFourBytes(uint32(len(src))); err != nil {
		return 0, err
	}

	p := pacer{ctx: ctx, progress: progress}
	for i, c := range src {
		if i%checkEvery == 0 && i != 0 {
			if err := p.step(i); err != nil {
				return 0, err
			}
		}
		if err := codes[c].writeTo(w); err != nil {
			return 0, err
		}
	}
	p.report(len(src))
	return w.Len(), nil
}

// pacer feeds a progress counter and notices cancellation between symbols.
type pacer struct {
	ctx      context.Context
	progress *atomic.Int64
	reported int
}

func (p *pacer) report(done int) {
	if p.progress != nil {
		p.progress.Add(int64(done - p.reported))
	}
	p.reported = done
}

func (p *pacer) step(done int) error {
	p.report(done)
	return p.ctx.Err()
}
