// Package elgamal implements lifted ElGamal encryption over the prime-order
// group in package group: Encrypt(pk, m; r) = (g^r, pk^r * g^m). The
// plaintext lives in the exponent, so decryption recovers m*g, not m
// itself — callers discrete-log the result through package tally.
package elgamal

import (
	"fmt"

	"github.com/vocdoni-labs/ballotcore/group"
)

// BytesLen is the fixed-width serialization size of a Ciphertext.
const BytesLen = 2 * group.GroupElementBytesLen

// Ciphertext is a lifted ElGamal ciphertext (c1, c2) = (g^r, pk^r * g^m).
type Ciphertext struct {
	C1, C2 group.Element
}

// Zero is the identity ciphertext (O, O), the neutral element of Add.
func Zero() Ciphertext {
	return Ciphertext{C1: group.Zero(), C2: group.Zero()}
}

// Encrypt encrypts m under pk using the supplied randomness r. m is taken
// as a scalar exponent: the plaintext group element is g^m.
func Encrypt(pk group.Element, m, r group.Scalar) Ciphertext {
	c1 := group.ScalarBaseMul(r)
	c2 := pk.ScalarMul(r).Add(group.ScalarBaseMul(m))
	return Ciphertext{C1: c1, C2: c2}
}

// Add returns the component-wise sum c + o, which is itself an encryption
// of the sum of the two plaintexts (the homomorphic property package tally
// relies on for aggregation).
func (c Ciphertext) Add(o Ciphertext) Ciphertext {
	return Ciphertext{C1: c.C1.Add(o.C1), C2: c.C2.Add(o.C2)}
}

// ScalarMul scales both components by s, turning an encryption of m into an
// encryption of s*m.
func (c Ciphertext) ScalarMul(s group.Scalar) Ciphertext {
	return Ciphertext{C1: c.C1.ScalarMul(s), C2: c.C2.ScalarMul(s)}
}

// DecryptWith returns c2 - sk*c1, the plaintext group element g^m. The
// caller still needs to solve the discrete log to recover m (package
// tally's Decode does this for aggregated tallies).
func (c Ciphertext) DecryptWith(sk group.Scalar) group.Element {
	return c.C2.Sub(c.C1.ScalarMul(sk))
}

// Bytes returns the fixed-width concatenation C1 || C2.
func (c Ciphertext) Bytes() [BytesLen]byte {
	var out [BytesLen]byte
	c1 := c.C1.Bytes()
	c2 := c.C2.Bytes()
	copy(out[:group.GroupElementBytesLen], c1[:])
	copy(out[group.GroupElementBytesLen:], c2[:])
	return out
}

// FromBytes decodes a fixed-width ciphertext, rejecting the input if either
// half fails to parse as a valid group element.
func FromBytes(b []byte) (Ciphertext, error) {
	if len(b) != BytesLen {
		return Ciphertext{}, fmt.Errorf("elgamal: invalid ciphertext length %d, want %d", len(b), BytesLen)
	}
	c1, err := group.ElementFromBytes(b[:group.GroupElementBytesLen])
	if err != nil {
		return Ciphertext{}, fmt.Errorf("elgamal: invalid c1: %w", err)
	}
	c2, err := group.ElementFromBytes(b[group.GroupElementBytesLen:])
	if err != nil {
		return Ciphertext{}, fmt.Errorf("elgamal: invalid c2: %w", err)
	}
	return Ciphertext{C1: c1, C2: c2}, nil
}

// Equal reports whether c and o encode to the same bytes.
func (c Ciphertext) Equal(o Ciphertext) bool {
	return c.C1.Equal(o.C1) && c.C2.Equal(o.C2)
}
