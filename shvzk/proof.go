// Package shvzk implements the logarithmic-size special honest-verifier
// zero-knowledge proof that an EncryptedVote encrypts a unit vector,
// non-interactive via Fiat-Shamir. Per spec.md §4.5: the prover expresses
// its chosen index as bits and, for each bit, proves the committed value
// is in {0,1}; a final degree-commitment step binds every bit proof back
// to the actual vote ciphertexts so a voter cannot split weight across two
// complementary-bit positions and still pass every per-bit check.
package shvzk

import (
	"fmt"
	"io"

	"github.com/vocdoni-labs/ballotcore/ballot"
	"github.com/vocdoni-labs/ballotcore/committee"
	"github.com/vocdoni-labs/ballotcore/elgamal"
	"github.com/vocdoni-labs/ballotcore/group"
)

// BitProof is a single bit's 0/1 well-formedness proof: I commits to the
// bit, B to a random blinding, A to their product (the term that collapses
// to zero in the verification equation iff the bit is in {0,1}).
type BitProof struct {
	I, B, A elgamal.Ciphertext
	Z, W, V group.Scalar
}

// Proof is a complete SHVZK transcript: one BitProof per bit of the chosen
// index, a degree-commitment ciphertext per bit binding the bit proofs to
// the actual vote, and the single combined randomness response closing the
// final combination check.
type Proof struct {
	Bits []BitProof
	D    []elgamal.Ciphertext
	R    group.Scalar
}

func bitsNeeded(n int) int {
	m := 0
	for (1 << m) < n {
		m++
	}
	return m
}

func bitOf(x, k int) uint64 {
	if (x>>uint(k))&1 == 1 {
		return 1
	}
	return 0
}

// Prove builds a non-interactive proof that vote (built from coins) is the
// encryption of unit. crsSeed is always the VotePlanId's bytes (I3),
// binding the proof to one specific vote plan.
func Prove(rand io.Reader, crsSeed []byte, epk committee.ElectionPublicKey, vote ballot.EncryptedVote, unit ballot.UnitVector, coins ballot.Coins) (Proof, error) {
	if len(vote) != unit.N || len(coins) != unit.N {
		return Proof{}, fmt.Errorf("shvzk: vote/coins length mismatch with unit vector dimension %d", unit.N)
	}
	pk := group.Element(epk)
	m := bitsNeeded(unit.N)

	alpha := make([]group.Scalar, m)
	rhoI := make([]group.Scalar, m)
	rhoB := make([]group.Scalar, m)
	rhoA := make([]group.Scalar, m)
	bitI := make([]elgamal.Ciphertext, m)
	bitB := make([]elgamal.Ciphertext, m)
	bitA := make([]elgamal.Ciphertext, m)

	for k := 0; k < m; k++ {
		ik := bitOf(uint64(unit.I), k)
		a, err := group.RandomScalar(rand)
		if err != nil {
			return Proof{}, fmt.Errorf("shvzk: failed to draw blinding for bit %d: %w", k, err)
		}
		rI, err := group.RandomScalar(rand)
		if err != nil {
			return Proof{}, err
		}
		rB, err := group.RandomScalar(rand)
		if err != nil {
			return Proof{}, err
		}
		rA, err := group.RandomScalar(rand)
		if err != nil {
			return Proof{}, err
		}
		alpha[k], rhoI[k], rhoB[k], rhoA[k] = a, rI, rB, rA
		bitI[k] = elgamal.Encrypt(pk, group.ScalarFromUint64(ik), rI)
		bitB[k] = elgamal.Encrypt(pk, a, rB)
		bitA[k] = elgamal.Encrypt(pk, group.ScalarFromUint64(ik).Mul(a), rA)
	}

	// poly holds the coefficients of p_i(X) = prod_k (X + s_k*alpha_k),
	// lowest degree first; poly[m] is always 1 and is never committed.
	poly := make([]group.Scalar, 1, m+1)
	poly[0] = group.ScalarFromUint64(1)
	for k := 0; k < m; k++ {
		s := alpha[k]
		if bitOf(uint64(unit.I), k) == 0 {
			s = s.Neg()
		}
		poly = multiplyByLinear(poly, s)
	}

	rhoD := make([]group.Scalar, m)
	dComm := make([]elgamal.Ciphertext, m)
	for l := 0; l < m; l++ {
		rD, err := group.RandomScalar(rand)
		if err != nil {
			return Proof{}, fmt.Errorf("shvzk: failed to draw degree-commitment randomness %d: %w", l, err)
		}
		rhoD[l] = rD
		dComm[l] = elgamal.Encrypt(pk, poly[l], rD)
	}

	tr := newTranscript(crsSeed, pk)
	for _, c := range vote {
		tr.appendElement(c.C1)
		tr.appendElement(c.C2)
	}
	for k := 0; k < m; k++ {
		tr.appendElement(bitI[k].C1)
		tr.appendElement(bitI[k].C2)
		tr.appendElement(bitB[k].C1)
		tr.appendElement(bitB[k].C2)
		tr.appendElement(bitA[k].C1)
		tr.appendElement(bitA[k].C2)
	}
	for l := 0; l < m; l++ {
		tr.appendElement(dComm[l].C1)
		tr.appendElement(dComm[l].C2)
	}
	x := tr.challenge()

	bits := make([]BitProof, m)
	z := make([]group.Scalar, m)
	for k := 0; k < m; k++ {
		ik := group.ScalarFromUint64(bitOf(uint64(unit.I), k))
		zk := ik.Mul(x).Add(alpha[k])
		wk := rhoI[k].Mul(x).Add(rhoB[k])
		vk := rhoI[k].Mul(x.Sub(zk)).Add(rhoA[k])
		z[k] = zk
		bits[k] = BitProof{I: bitI[k], B: bitB[k], A: bitA[k], Z: zk, W: wk, V: vk}
	}

	// Combined randomness: R = sum_j coins[j]*P_j(x) - sum_l rhoD[l]*x^l,
	// where P_j(x) is the public per-index combination value.
	xPowers := powers(x, m)
	r := group.ZeroScalar()
	for j := 0; j < unit.N; j++ {
		r = r.Add(coins[j].Mul(combinationValue(z, x, j)))
	}
	for l := 0; l < m; l++ {
		r = r.Sub(rhoD[l].Mul(xPowers[l]))
	}

	return Proof{Bits: bits, D: dComm, R: r}, nil
}

// Verify recomputes every challenge from the transcript and checks the
// per-bit and combination relations in the group.
func Verify(crsSeed []byte, epk committee.ElectionPublicKey, vote ballot.EncryptedVote, proof Proof) bool {
	n := len(vote)
	m := bitsNeeded(n)
	if len(proof.Bits) != m || len(proof.D) != m {
		return false
	}
	pk := group.Element(epk)

	tr := newTranscript(crsSeed, pk)
	for _, c := range vote {
		tr.appendElement(c.C1)
		tr.appendElement(c.C2)
	}
	for k := 0; k < m; k++ {
		tr.appendElement(proof.Bits[k].I.C1)
		tr.appendElement(proof.Bits[k].I.C2)
		tr.appendElement(proof.Bits[k].B.C1)
		tr.appendElement(proof.Bits[k].B.C2)
		tr.appendElement(proof.Bits[k].A.C1)
		tr.appendElement(proof.Bits[k].A.C2)
	}
	for l := 0; l < m; l++ {
		tr.appendElement(proof.D[l].C1)
		tr.appendElement(proof.D[l].C2)
	}
	x := tr.challenge()

	z := make([]group.Scalar, m)
	for k := 0; k < m; k++ {
		bp := proof.Bits[k]
		z[k] = bp.Z

		lhs1 := bp.I.ScalarMul(x).Add(bp.B)
		rhs1 := elgamal.Encrypt(pk, bp.Z, bp.W)
		if !lhs1.Equal(rhs1) {
			return false
		}

		lhs2 := bp.I.ScalarMul(x.Sub(bp.Z)).Add(bp.A)
		rhs2 := elgamal.Encrypt(pk, group.ZeroScalar(), bp.V)
		if !lhs2.Equal(rhs2) {
			return false
		}
	}

	acc := elgamal.Zero()
	for j := 0; j < n; j++ {
		acc = acc.Add(vote[j].ScalarMul(combinationValue(z, x, j)))
	}
	xPowers := powers(x, m+1)
	for l := 0; l < m; l++ {
		acc = acc.Add(proof.D[l].ScalarMul(xPowers[l].Neg()))
	}

	expected := elgamal.Encrypt(pk, xPowers[m], proof.R)
	return acc.Equal(expected)
}

// combinationValue computes P_j(x) = prod_k (j_k == 1 ? z_k : x - z_k),
// the public per-index value the degree-m combination uses to single out
// the honest prover's chosen index.
func combinationValue(z []group.Scalar, x group.Scalar, j int) group.Scalar {
	acc := group.ScalarFromUint64(1)
	for k := range z {
		if bitOf(uint64(j), k) == 1 {
			acc = acc.Mul(z[k])
		} else {
			acc = acc.Mul(x.Sub(z[k]))
		}
	}
	return acc
}

// powers returns [x^0, x^1, ..., x^(m-1)].
func powers(x group.Scalar, m int) []group.Scalar {
	out := make([]group.Scalar, m)
	acc := group.ScalarFromUint64(1)
	for l := 0; l < m; l++ {
		out[l] = acc
		acc = acc.Mul(x)
	}
	return out
}

// multiplyByLinear multiplies the polynomial poly (lowest degree first) by
// (X + s), returning the product's coefficients.
func multiplyByLinear(poly []group.Scalar, s group.Scalar) []group.Scalar {
	out := make([]group.Scalar, len(poly)+1)
	for i, c := range poly {
		out[i+1] = out[i+1].Add(c)
		out[i] = out[i].Add(c.Mul(s))
	}
	return out
}
