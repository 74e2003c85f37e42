package group

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254"
)

// GroupElementBytesLen is the fixed-width compressed serialization size of
// an Element.
const GroupElementBytesLen = 32

var generatorJac bn254.G1Jac

func init() {
	// bn254's standard G1 generator, (1, 2) in affine coordinates.
	generatorJac.X.SetOne()
	generatorJac.Y.SetUint64(2)
	generatorJac.Z.SetOne()
}

// Element is a point in the prime-order bn254 G1 group. The zero value is
// the group identity, the same point Zero() returns.
type Element struct {
	inner bn254.G1Affine
}

// Generator returns the fixed group generator g.
func Generator() Element {
	var e Element
	e.inner.FromJacobian(&generatorJac)
	return e
}

// Zero returns the group identity (point at infinity, the all-zero affine
// coordinates convention gnark-crypto uses for G1Affine).
func Zero() Element {
	var p bn254.G1Affine
	p.X.SetZero()
	p.Y.SetZero()
	return Element{inner: p}
}

// Add returns e + o.
func (e Element) Add(o Element) Element {
	var r bn254.G1Affine
	r.Add(&e.inner, &o.inner)
	return Element{inner: r}
}

// Neg returns -e.
func (e Element) Neg() Element {
	var r bn254.G1Affine
	r.Neg(&e.inner)
	return Element{inner: r}
}

// Sub returns e - o.
func (e Element) Sub(o Element) Element {
	return e.Add(o.Neg())
}

// ScalarMul returns s * e.
func (e Element) ScalarMul(s Scalar) Element {
	var r bn254.G1Affine
	r.ScalarMultiplication(&e.inner, s.BigInt())
	return Element{inner: r}
}

// ScalarBaseMul returns s * g, the generator scaled by s.
func ScalarBaseMul(s Scalar) Element {
	var r bn254.G1Affine
	r.ScalarMultiplicationBase(s.BigInt())
	return Element{inner: r}
}

// Normalize returns e in its canonical affine representation. This package
// stores affine coordinates exclusively, so it is a no-op, kept to satisfy
// spec.md's G.normalize() contract for backends where it would not be.
func (e Element) Normalize() Element {
	return e
}

// Equal reports whether e and o are the same group element.
func (e Element) Equal(o Element) bool {
	return e.inner.Equal(&o.inner)
}

// IsZero reports whether e is the group identity.
func (e Element) IsZero() bool {
	return e.inner.X.IsZero() && e.inner.Y.IsZero()
}

// Bytes returns the fixed-width compressed encoding of e.
func (e Element) Bytes() [GroupElementBytesLen]byte {
	return e.inner.Bytes()
}

// ElementFromBytes decodes a fixed-width compressed encoding, rejecting any
// input that is the wrong length or not a valid point on the curve.
func ElementFromBytes(b []byte) (Element, error) {
	if len(b) != GroupElementBytesLen {
		return Element{}, fmt.Errorf("group: invalid element length %d, want %d", len(b), GroupElementBytesLen)
	}
	var p bn254.G1Affine
	if _, err := p.SetBytes(b); err != nil {
		return Element{}, fmt.Errorf("group: invalid element encoding: %w", err)
	}
	return Element{inner: p}, nil
}

// String returns the hex encoding of e's compressed bytes.
func (e Element) String() string {
	b := e.Bytes()
	return fmt.Sprintf("%x", b[:])
}

// Sum adds a sequence of elements together, returning Zero() for an empty
// sequence.
func Sum(es ...Element) Element {
	acc := Zero()
	for _, e := range es {
		acc = acc.Add(e)
	}
	return acc
}

// Table returns [g, 2g, ..., k*g], the incremental multiples of the
// generator used by the small-table discrete-log search in package tally.
func Table(k int) []Element {
	table := make([]Element, k)
	acc := Zero()
	g := Generator()
	for i := 0; i < k; i++ {
		acc = acc.Add(g)
		table[i] = acc
	}
	return table
}
