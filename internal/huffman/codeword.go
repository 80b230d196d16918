// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package huffman

import (
	"strings"

	"github.com/elliotnunn/huffpack/internal/bitstream"
)

// Codeword is the path from the root to a leaf, one bit per level.
// The deepest possible tree over 256 symbols is 255 levels deep.
type Codeword struct {
	bits [4]uint64
	Len  int
}

// Bit is the branch taken at depth i.
func (c Codeword) Bit(i int) uint {
	return uint(c.bits[i/64]>>(i%64)) & 1
}

func (c Codeword) extend(bit uint) Codeword {
	c.bits[c.Len/64] |= uint64(bit) << (c.Len % 64)
	c.Len++
	return c
}

func (c Codeword) String() string {
	var b strings.Builder
	for i := range c.Len {
		b.WriteByte('0' + byte(c.Bit(i)))
	}
	return b.String()
}

func (c *Codeword) writeTo(w *bitstream.Writer) error {
	n := c.Len
	for k := 0; n > 0; k++ {
		take := min(n, 64)
		if err := w.WriteBits(c.bits[k], uint(take)); err != nil {
			return err
		}
		n -= take
	}
	return nil
}

// EncodingMap holds the codeword for every symbol in a tree.
// Symbols absent from the tree have a zero-length codeword.
type EncodingMap [nSymbols]Codeword

func (t *Tree) EncodingMap() *EncodingMap {
	type step struct {
		idx  int
		path Codeword
	}
	m := new(EncodingMap)
	stack := []step{{idx: t.root}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[s.idx]
		if n.zero < 0 {
			m[n.symbol] = s.path
			continue
		}
		stack = append(stack,
			step{n.one, s.path.extend(1)},
			step{n.zero, s.path.extend(0)})
	}
	return m
}
