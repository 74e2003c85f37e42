package committee

import (
	"fmt"
	"io"

	"github.com/vocdoni-labs/ballotcore/group"
	"github.com/vocdoni-labs/ballotcore/voteerr"
)

// Share is one value a dealer sends to a single recipient: its evaluation
// of the real secret polynomial plus the matching evaluation of a second,
// purely-blinding polynomial. The pair lets the recipient verify the share
// against the dealer's Pedersen commitments (VerifyShare) without the
// commitments revealing anything about the dealt coefficients themselves —
// Feldman commitments alone (g^coeff) are binding but not hiding.
type Share struct {
	Value group.Scalar
	Blind group.Scalar
}

// MemberState holds one committee member's contribution to the threshold
// election key: a Pedersen-VSS-dealt polynomial (blinded using the
// election CRS as the second commitment base), the public commitments to
// its coefficients, and the per-participant shares evaluated from it. The
// member's own public key share is the polynomial's constant term's
// unblinded commitment, matching how the teacher's DKG combines
// participants by summing only the constant-term commitment
// (AggregatePublicKey in dkg.go); CombineFinalShare performs the matching
// per-participant share aggregation (AggregateShares in the same file),
// the step that turns a set of independent dealings into a genuine t-of-N
// threshold scheme instead of an all-N joint one.
type MemberState struct {
	threshold   int
	myIndex     int
	coeffs      []group.Scalar
	blinds      []group.Scalar
	commitments []group.Element
	shares      map[int]Share
}

// NewMemberState deals a fresh degree-(threshold-1) secret polynomial for
// the member at myIndex among the committee described by comm, the
// published communication public keys of every member (comm[i] belongs to
// participant index i). Every coefficient commitment is Pedersen-blinded
// using crs as the second generator, so the committee's verifiable
// secret-sharing sub-protocol is keyed by the CRS as spec.md describes.
// NewMemberState takes its entropy as an io.Reader, the same contract the
// rest of the core uses, so a caller who wants a verifiably-random-looking
// dealing can derive this stream from the CRS itself before calling.
func NewMemberState(rand io.Reader, threshold int, crs CRS, comm []CommunicationPublicKey, myIndex int) (*MemberState, error) {
	if threshold == 0 {
		return nil, voteerr.NewUnscoped(voteerr.Contract, fmt.Errorf("committee: threshold must be positive"))
	}
	if threshold > len(comm) {
		return nil, voteerr.NewUnscoped(voteerr.Contract, fmt.Errorf("committee: threshold %d exceeds committee size %d", threshold, len(comm)))
	}
	if myIndex < 0 || myIndex >= len(comm) {
		return nil, voteerr.NewUnscoped(voteerr.Contract, fmt.Errorf("committee: member index %d out of range [0, %d)", myIndex, len(comm)))
	}

	h := group.Element(crs)
	coeffs := make([]group.Scalar, threshold)
	blinds := make([]group.Scalar, threshold)
	commitments := make([]group.Element, threshold)
	for i := 0; i < threshold; i++ {
		a, err := group.RandomScalar(rand)
		if err != nil {
			return nil, fmt.Errorf("committee: failed to deal coefficient %d: %w", i, err)
		}
		b, err := group.RandomScalar(rand)
		if err != nil {
			return nil, fmt.Errorf("committee: failed to deal blinding coefficient %d: %w", i, err)
		}
		coeffs[i] = a
		blinds[i] = b
		commitments[i] = group.ScalarBaseMul(a).Add(h.ScalarMul(b))
	}

	shares := make(map[int]Share, len(comm))
	for idx := range comm {
		shares[idx] = Share{
			Value: evaluatePolynomial(coeffs, idx+1),
			Blind: evaluatePolynomial(blinds, idx+1),
		}
	}

	return &MemberState{
		threshold:   threshold,
		myIndex:     myIndex,
		coeffs:      coeffs,
		blinds:      blinds,
		commitments: commitments,
		shares:      shares,
	}, nil
}

// evaluatePolynomial evaluates the polynomial with the given coefficients
// (lowest degree first) at x using Horner's method.
func evaluatePolynomial(coeffs []group.Scalar, x int) group.Scalar {
	xs := group.ScalarFromUint64(uint64(x))
	acc := group.ZeroScalar()
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc = acc.Mul(xs).Add(coeffs[i])
	}
	return acc
}

// SecretKey returns this member's contribution to the combined election
// secret key: the dealt polynomial's constant term.
func (m *MemberState) SecretKey() group.Scalar {
	return m.coeffs[0]
}

// PublicKey returns this member's contribution to the combined election
// public key: g raised to the polynomial's constant term. This is
// deliberately the unblinded value, not commitments[0] (which is
// Pedersen-blinded and so not a multiple of the generator alone) — the
// election key combination needs g^sk, not a hiding commitment to it.
func (m *MemberState) PublicKey() group.Element {
	return group.ScalarBaseMul(m.coeffs[0])
}

// Commitments returns the Pedersen commitments to every coefficient, the
// public data other members need to verify a dealt share against crs.
func (m *MemberState) Commitments() []group.Element {
	out := make([]group.Element, len(m.commitments))
	copy(out, m.commitments)
	return out
}

// ShareFor returns the share this member deals to the participant at the
// given index (0-based), to be transported out of band (e.g. via
// CommunicationKey.EncryptShare).
func (m *MemberState) ShareFor(index int) Share {
	return m.shares[index]
}

// VerifyShare checks a share dealt by a peer against that peer's published
// Pedersen commitments and the same crs the peer dealt against, confirming
// g^share.Value * crs^share.Blind == product_i commitments[i]^(index^i)
// without the commitments revealing the peer's secret polynomial.
func VerifyShare(share Share, index int, commitments []group.Element, crs CRS) bool {
	lhs := group.ScalarBaseMul(share.Value).Add(group.Element(crs).ScalarMul(share.Blind))

	x := group.ScalarFromUint64(uint64(index))
	xPower := group.ScalarFromUint64(1)
	rhs := group.Zero()
	for _, c := range commitments {
		rhs = rhs.Add(c.ScalarMul(xPower))
		xPower = xPower.Mul(x)
	}
	return lhs.Equal(rhs)
}

// CombineFinalShare aggregates the shares dealt to the participant at
// myIndex by every member of dealers (that participant's own self-dealt
// share included) into its final share of the joint degree-(threshold-1)
// polynomial whose constant term is the combined election secret key —
// the same per-recipient aggregation Participant.AggregateShares performs
// once every dealer's share has arrived and been verified. Every dealer in
// dealers must have been constructed with the same threshold. The result
// is one point (myIndex+1, z) on that joint polynomial; CombinePartialDecryptions-
// style Lagrange reconstruction (package tally's Decode) recovers the
// polynomial's value at 0 from any `threshold` such points.
func CombineFinalShare(dealers []*MemberState, myIndex int) group.Scalar {
	acc := group.ZeroScalar()
	for _, d := range dealers {
		acc = acc.Add(d.ShareFor(myIndex).Value)
	}
	return acc
}

// ElectionPublicKey is the combined public key every ballot is encrypted
// under: the sum of every committee member's public key share.
type ElectionPublicKey group.Element

// ElectionKeyFromParticipants combines committee members' public key
// shares into the election public key.
func ElectionKeyFromParticipants(pks []group.Element) ElectionPublicKey {
	return ElectionPublicKey(group.Sum(pks...))
}

// Bytes returns the compressed encoding of the election public key.
func (k ElectionPublicKey) Bytes() [group.GroupElementBytesLen]byte {
	return group.Element(k).Bytes()
}

// ElectionPublicKeyFromBytes decodes an election public key.
func ElectionPublicKeyFromBytes(b []byte) (ElectionPublicKey, error) {
	e, err := group.ElementFromBytes(b)
	if err != nil {
		return ElectionPublicKey{}, fmt.Errorf("committee: invalid election public key: %w", err)
	}
	return ElectionPublicKey(e), nil
}
