// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package keystream obscures bytes by XORing them with a keystream derived
// from a passphrase.
//
// This is not authenticated encryption: nothing detects tampering, and the
// same passphrase always yields the same keystream.
package keystream

import (
	"crypto/cipher"
	"encoding/binary"

	"github.com/dchest/skein"
)

const (
	keyLen   = 32
	chunkLen = 512
	kdfName  = "huffpack keystream"
)

var nonce = []byte{}

// Cipher is a position-dependent XOR. Successive calls to XOR continue the
// keystream where the previous call stopped.
type Cipher struct {
	stream cipher.Stream
	ks     [chunkLen]byte
}

func New(passphrase []byte) *Cipher {
	return &Cipher{stream: skein.NewStream(DeriveKey(passphrase), nonce)}
}

// DeriveKey stretches a passphrase into a stream key with Skein in KDF mode.
func DeriveKey(passphrase []byte) []byte {
	h := skein.New(keyLen, &skein.Args{
		Key:   passphrase,
		KeyId: []byte(kdfName),
	})
	return h.Sum(nil)
}

// XOR applies the next len(p) keystream bytes to p in place,
// eight bytes at a time and then bytewise for the tail.
func (c *Cipher) XOR(p []byte) {
	for len(p) > 0 {
		n := min(len(p), chunkLen)
		ks := c.ks[:n]
		clear(ks)
		c.stream.XORKeyStream(ks, ks)

		i := 0
		for ; i+8 <= n; i += 8 {
			w := binary.LittleEndian.Uint64(p[i:]) ^ binary.LittleEndian.Uint64(ks[i:])
			binary.LittleEndian.PutUint64(p[i:], w)
		}
		for ; i < n; i++ {
			p[i] ^= ks[i]
		}
		p = p[n:]
	}
}
