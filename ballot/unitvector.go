// Package ballot encodes a voter's choice as a unit vector and encrypts it
// component-wise under the election public key, the representation the
// SHVZK proof in package shvzk attests to and the tally in package tally
// aggregates.
package ballot

import (
	"fmt"
	"io"

	"github.com/vocdoni-labs/ballotcore/committee"
	"github.com/vocdoni-labs/ballotcore/elgamal"
	"github.com/vocdoni-labs/ballotcore/group"
)

// MaxOptions bounds the dimension of a UnitVector, matching spec.md's
// n ≤ 256 limit so the SHVZK bit-decomposition proof stays a handful of
// rounds.
const MaxOptions = 256

// UnitVector is the abstract n-dimensional vector with a single 1 at
// position I and 0 elsewhere: a voter's choice among n options.
type UnitVector struct {
	N, I int
}

// NewUnitVector validates and constructs a UnitVector: 0 <= i < n <= 256.
func NewUnitVector(n, i int) (UnitVector, error) {
	if n <= 0 || n > MaxOptions {
		return UnitVector{}, fmt.Errorf("ballot: vector dimension %d out of range [1, %d]", n, MaxOptions)
	}
	if i < 0 || i >= n {
		return UnitVector{}, fmt.Errorf("ballot: index %d out of range [0, %d)", i, n)
	}
	return UnitVector{N: n, I: i}, nil
}

// EncryptedVote is an ordered sequence of n ciphertexts, one per option,
// each an encryption of one entry of a UnitVector.
type EncryptedVote []elgamal.Ciphertext

// Coins are the per-slot encryption randomness used to build an
// EncryptedVote. They are never published; the SHVZK prover consumes them
// to build its proof, and the verifier never sees them.
type Coins []group.Scalar

// Prepare encrypts v under epk, drawing fresh randomness for every slot.
// It returns both the ciphertext vector and the coins, since the SHVZK
// prover (package shvzk) needs the coins to construct its proof.
func Prepare(rand io.Reader, epk committee.ElectionPublicKey, v UnitVector) (EncryptedVote, Coins, error) {
	pk := group.Element(epk)
	vote := make(EncryptedVote, v.N)
	coins := make(Coins, v.N)

	for j := 0; j < v.N; j++ {
		r, err := group.RandomScalar(rand)
		if err != nil {
			return nil, nil, fmt.Errorf("ballot: failed to draw randomness for slot %d: %w", j, err)
		}
		m := uint64(0)
		if j == v.I {
			m = 1
		}
		vote[j] = elgamal.Encrypt(pk, group.ScalarFromUint64(m), r)
		coins[j] = r
	}
	return vote, coins, nil
}

// Bytes returns the dense concatenation of every slot's ciphertext bytes.
func (v EncryptedVote) Bytes() []byte {
	out := make([]byte, 0, len(v)*elgamal.BytesLen)
	for _, c := range v {
		b := c.Bytes()
		out = append(out, b[:]...)
	}
	return out
}

// EncryptedVoteFromBytes decodes a dense concatenation of n ciphertexts.
func EncryptedVoteFromBytes(n int, b []byte) (EncryptedVote, error) {
	if len(b) != n*elgamal.BytesLen {
		return nil, fmt.Errorf("ballot: invalid encrypted vote length %d, want %d", len(b), n*elgamal.BytesLen)
	}
	out := make(EncryptedVote, n)
	for j := 0; j < n; j++ {
		c, err := elgamal.FromBytes(b[j*elgamal.BytesLen : (j+1)*elgamal.BytesLen])
		if err != nil {
			return nil, fmt.Errorf("ballot: invalid slot %d: %w", j, err)
		}
		out[j] = c
	}
	return out, nil
}
