// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package huffman

// FrequencyTable counts occurrences of each byte value.
type FrequencyTable [nSymbols]uint64

func CountFrequencies(p []byte) FrequencyTable {
	var t FrequencyTable
	for _, c := range p {
		t[c]++
	}
	return t
}

// Total is the sum of all counts, which equals the length of the input.
func (t *FrequencyTable) Total() uint64 {
	var n uint64
	for _, c := range t {
		n += c
	}
	return n
}

// Distinct is the number of byte values that occur at all.
func (t *FrequencyTable) Distinct() int {
	n := 0
	for _, c := range t {
		if c != 0 {
			n++
		}
	}
	return n
}
