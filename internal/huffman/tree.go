// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package huffman

import (
	"container/heap"

	"github.com/elliotnunn/huffpack/internal/bitstream"
)

// a full binary tree over a byte alphabet never has more nodes than this
const maxNodes = 2*nSymbols - 1

type node struct {
	zero, one int // both -1 for a leaf
	symbol    uint8
	freq      uint64
}

// Tree is a Huffman code tree. Nodes live in one slice and refer to each other
// by index.
type Tree struct {
	nodes []node
	root  int
}

func (t *Tree) leaf(symbol uint8, freq uint64) int {
	t.nodes = append(t.nodes, node{zero: -1, one: -1, symbol: symbol, freq: freq})
	return len(t.nodes) - 1
}

func (t *Tree) internal(zero, one int) int {
	t.nodes = append(t.nodes, node{zero: zero, one: one, freq: t.nodes[zero].freq + t.nodes[one].freq})
	return len(t.nodes) - 1
}

// forest is a min-heap of subtrees, lightest first, oldest first among equals.
type forest []forestItem

type forestItem struct {
	idx  int
	freq uint64
	seq  int
}

func (f forest) Len() int { return len(f) }
func (f forest) Less(i, j int) bool {
	if f[i].freq != f[j].freq {
		return f[i].freq < f[j].freq
	}
	return f[i].seq < f[j].seq
}
func (f forest) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *forest) Push(x any)   { *f = append(*f, x.(forestItem)) }
func (f *forest) Pop() any {
	old := *f
	it := old[len(old)-1]
	*f = old[:len(old)-1]
	return it
}

// BuildTree merges the two lightest subtrees until one remains.
// Leaves enter in symbol order. The first subtree popped becomes the zero branch.
//
// Fewer than two distinct symbols would leave no internal node, so unused
// placeholder leaves are added: symbol 0 (or 1 if 0 is taken) beside a lone
// symbol, and symbols 0 and 1 for an empty table.
func BuildTree(freq *FrequencyTable) *Tree {
	t := &Tree{nodes: make([]node, 0, maxNodes)}
	f := make(forest, 0, nSymbols)
	seq := 0
	push := func(idx int) {
		heap.Push(&f, forestItem{idx: idx, freq: t.nodes[idx].freq, seq: seq})
		seq++
	}

	for s, c := range freq {
		if c != 0 {
			push(t.leaf(uint8(s), c))
		}
	}
	switch f.Len() {
	case 0:
		push(t.leaf(0, 0))
		push(t.leaf(1, 0))
	case 1:
		if freq[0] != 0 {
			push(t.leaf(1, 0))
		} else {
			push(t.leaf(0, 0))
		}
	}

	for f.Len() > 1 {
		zero := heap.Pop(&f).(forestItem)
		one := heap.Pop(&f).(forestItem)
		push(t.internal(zero.idx, one.idx))
	}
	t.root = f[0].idx
	return t
}

// Encode writes the tree in pre-order: bit 1 and the symbol for a leaf,
// bit 0 followed by both subtrees for an internal node.
func (t *Tree) Encode(w *bitstream.Writer) error {
	stack := make([]int, 1, nSymbols)
	stack[0] = t.root
	for len(stack) > 0 {
		n := t.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]
		if n.zero < 0 {
			if err := w.WriteBit(true); err != nil {
				return err
			}
			if err := w.WriteByte(n.symbol); err != nil {
				return err
			}
			continue
		}
		if err := w.WriteBit(false); err != nil {
			return err
		}
		stack = append(stack, n.one, n.zero)
	}
	return nil
}

// ReadTree reads a tree written by [Tree.Encode].
// The shape of the bit stream delimits the tree, so no node count is stored.
func ReadTree(r *bitstream.Reader) (*Tree, error) {
	t := &Tree{nodes: make([]node, 0, maxNodes)}
	pending := 0 // internal nodes still waiting for a one branch
	for {
		var np int
		for { // descend zero branches until a leaf
			if len(t.nodes) == maxNodes {
				return nil, ErrCorrupt
			}
			np = len(t.nodes)
			t.nodes = append(t.nodes, node{})
			bit, err := r.ReadBit()
			if err != nil {
				return nil, err
			}
			if bit == 1 {
				sym, err := r.ReadByte()
				if err != nil {
					return nil, err
				}
				t.nodes[np] = node{zero: -1, one: -1, symbol: sym}
				break
			}
			t.nodes[np].zero = len(t.nodes)
			pending++
		}
		pending--
		if pending < 0 {
			break
		}
		// the most recent internal node with an empty one branch gets the next node
		// (index 0 is the root, so it is never anyone's one branch)
		for t.nodes[np].one != 0 {
			np--
		}
		t.nodes[np].one = len(t.nodes)
	}
	return t, nil
}
