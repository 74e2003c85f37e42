// Package group provides the prime-order group and scalar arithmetic the
// rest of the voting core is built on. The concrete backing group is the
// bn254 G1 curve from gnark-crypto; scalars live in its associated scalar
// field (fr).
package group

import (
	"fmt"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// ScalarBytesLen is the fixed-width serialization size of a Scalar.
const ScalarBytesLen = fr.Bytes

// Scalar is an element of Z/qZ, where q is the bn254 scalar field order.
// All operations are constant-time: fr.Element uses Montgomery arithmetic
// with no secret-dependent branches.
type Scalar struct {
	inner fr.Element
}

// RandomScalar draws a scalar from rand by sampling a wide buffer and
// reducing it modulo the field order, so any caller-supplied entropy
// stream (including deterministic test streams) can back it.
func RandomScalar(rand io.Reader) (Scalar, error) {
	// Oversample to keep the mod-q reduction bias cryptographically
	// negligible (128 extra bits).
	buf := make([]byte, fr.Bytes+16)
	if _, err := io.ReadFull(rand, buf); err != nil {
		return Scalar{}, fmt.Errorf("group: failed to read randomness: %w", err)
	}
	v := new(big.Int).SetBytes(buf)
	v.Mod(v, fr.Modulus())
	var e fr.Element
	e.SetBigInt(v)
	return Scalar{inner: e}, nil
}

// ScalarFromUint64 embeds a small integer as a scalar.
func ScalarFromUint64(v uint64) Scalar {
	var e fr.Element
	e.SetUint64(v)
	return Scalar{inner: e}
}

// ZeroScalar returns the additive identity.
func ZeroScalar() Scalar {
	return Scalar{}
}

// Add returns s + o mod q.
func (s Scalar) Add(o Scalar) Scalar {
	var r fr.Element
	r.Add(&s.inner, &o.inner)
	return Scalar{inner: r}
}

// Sub returns s - o mod q.
func (s Scalar) Sub(o Scalar) Scalar {
	var r fr.Element
	r.Sub(&s.inner, &o.inner)
	return Scalar{inner: r}
}

// Mul returns s * o mod q.
func (s Scalar) Mul(o Scalar) Scalar {
	var r fr.Element
	r.Mul(&s.inner, &o.inner)
	return Scalar{inner: r}
}

// Neg returns -s mod q.
func (s Scalar) Neg() Scalar {
	var r fr.Element
	r.Neg(&s.inner)
	return Scalar{inner: r}
}

// IsZero reports whether s is the additive identity.
func (s Scalar) IsZero() bool {
	return s.inner.IsZero()
}

// Inverse returns s^-1 mod q and true, or the zero value and false if s is
// zero (which has no multiplicative inverse). Used to compute Lagrange
// coefficients when reconstructing a threshold secret from a subset of
// shares.
func (s Scalar) Inverse() (Scalar, bool) {
	if s.inner.IsZero() {
		return Scalar{}, false
	}
	var r fr.Element
	r.Inverse(&s.inner)
	return Scalar{inner: r}, true
}

// Equal reports whether s and o represent the same field element.
func (s Scalar) Equal(o Scalar) bool {
	return s.inner.Equal(&o.inner)
}

// Bytes returns the fixed-width big-endian canonical encoding of s.
func (s Scalar) Bytes() [ScalarBytesLen]byte {
	return s.inner.Bytes()
}

// BigInt renders s as a *big.Int in [0, q).
func (s Scalar) BigInt() *big.Int {
	return s.inner.BigInt(new(big.Int))
}

// ScalarFromBytes decodes a fixed-width canonical scalar encoding. It
// rejects any input whose length is wrong or whose value is not already
// reduced mod q.
func ScalarFromBytes(b []byte) (Scalar, error) {
	if len(b) != ScalarBytesLen {
		return Scalar{}, fmt.Errorf("group: invalid scalar length %d, want %d", len(b), ScalarBytesLen)
	}
	v := new(big.Int).SetBytes(b)
	if v.Cmp(fr.Modulus()) >= 0 {
		return Scalar{}, fmt.Errorf("group: non-canonical scalar encoding")
	}
	var e fr.Element
	e.SetBigInt(v)
	return Scalar{inner: e}, nil
}

// Order returns the scalar field modulus.
func Order() *big.Int {
	return fr.Modulus()
}
