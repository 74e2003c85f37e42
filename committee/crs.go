package committee

import (
	"fmt"
	"io"

	"github.com/vocdoni-labs/ballotcore/group"
)

// CRS is a common reference string: a random group element generated once
// per election and distributed to every committee member and voter out of
// band. NewMemberState uses it as the second generator of its Pedersen
// coefficient commitments.
type CRS group.Element

// GenerateCRS draws a fresh CRS from rand. Callers typically generate this
// once when an election is configured and publish its bytes alongside the
// vote plan.
func GenerateCRS(rand io.Reader) (CRS, error) {
	s, err := group.RandomScalar(rand)
	if err != nil {
		return CRS{}, fmt.Errorf("committee: failed to generate CRS: %w", err)
	}
	return CRS(group.ScalarBaseMul(s)), nil
}

// Bytes returns the compressed encoding of the CRS.
func (c CRS) Bytes() [group.GroupElementBytesLen]byte {
	return group.Element(c).Bytes()
}

// CRSFromBytes decodes a CRS from its compressed encoding.
func CRSFromBytes(b []byte) (CRS, error) {
	e, err := group.ElementFromBytes(b)
	if err != nil {
		return CRS{}, fmt.Errorf("committee: invalid CRS encoding: %w", err)
	}
	return CRS(e), nil
}
