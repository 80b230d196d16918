// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package huffman

import "github.com/elliotnunn/huffpack/internal/bitstream"

type flatNode struct {
	vpos   uint16 // 0 for a leaf
	symbol uint8
}

// FlatTree is a tree laid out in an array for decoding.
// Slot 1 holds the root. An internal node with virtual position v has its
// zero branch in slot 2v and its one branch in slot 2v+1. Only internal nodes
// are numbered, which keeps the array compact for lopsided trees.
type FlatTree [2 * nSymbols]flatNode

func (t *Tree) Flatten() *FlatTree {
	type slot struct{ idx, at int }
	ft := new(FlatTree)
	queue := make([]slot, 1, maxNodes)
	queue[0] = slot{t.root, 1}
	var next uint16
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		n := &t.nodes[s.idx]
		if n.zero < 0 {
			ft[s.at] = flatNode{symbol: n.symbol}
			continue
		}
		next++
		ft[s.at].vpos = next
		queue = append(queue, slot{n.zero, 2 * int(next)}, slot{n.one, 2*int(next) + 1})
	}
	return ft
}

// next walks from the root to a leaf, consuming one bit per level.
func (ft *FlatTree) next(r *bitstream.Reader) (uint8, error) {
	at := 1
	for v := ft[at].vpos; v != 0; v = ft[at].vpos {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		at = 2*int(v) + int(bit)
	}
	return ft[at].symbol, nil
}
