package committee

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/vocdoni-labs/ballotcore/group"
)

// CommunicationKey is a static Diffie-Hellman keypair a committee
// member uses to encrypt its dealt VSS shares to the other members, kept
// distinct from the long-term election key share itself.
type CommunicationKey struct {
	sk group.Scalar
	pk group.Element
}

// CommunicationPublicKey is the public half of a CommunicationKey, the form
// exchanged between members before dealing begins.
type CommunicationPublicKey struct {
	pk group.Element
}

// NewCommunicationKey draws a fresh communication keypair from rand.
func NewCommunicationKey(rand io.Reader) (CommunicationKey, error) {
	sk, err := group.RandomScalar(rand)
	if err != nil {
		return CommunicationKey{}, fmt.Errorf("committee: failed to generate communication key: %w", err)
	}
	return CommunicationKey{sk: sk, pk: group.ScalarBaseMul(sk)}, nil
}

// Public returns the public half to publish to other members.
func (k CommunicationKey) Public() CommunicationPublicKey {
	return CommunicationPublicKey{pk: k.pk}
}

// Bytes returns the compressed encoding of the public key.
func (p CommunicationPublicKey) Bytes() [group.GroupElementBytesLen]byte {
	return p.pk.Bytes()
}

// CommunicationPublicKeyFromBytes decodes a public key from its compressed
// encoding.
func CommunicationPublicKeyFromBytes(b []byte) (CommunicationPublicKey, error) {
	e, err := group.ElementFromBytes(b)
	if err != nil {
		return CommunicationPublicKey{}, fmt.Errorf("committee: invalid communication public key: %w", err)
	}
	return CommunicationPublicKey{pk: e}, nil
}

// sharedSecret derives the ECIES shared scalar from a Diffie-Hellman point,
// matching the hash-to-scalar step of a standard ECIES construction: hash
// the DH point, then reduce the digest modulo the scalar field order.
func sharedSecret(point group.Element) group.Scalar {
	b := point.Bytes()
	digest := sha256.Sum256(b[:])
	return group.ScalarFromUint64(0).Add(scalarFromDigest(digest))
}

func scalarFromDigest(digest [32]byte) group.Scalar {
	// digest is 32 bytes but may exceed the field order, and ScalarFromBytes
	// only accepts already-reduced encodings, so the digest is read as a
	// big-endian base-256 number one byte at a time (s = s*256 + byte),
	// every step reduced mod q by the Scalar operations themselves.
	var s group.Scalar
	for _, bt := range digest {
		s = s.Mul(group.ScalarFromUint64(256)).Add(group.ScalarFromUint64(uint64(bt)))
	}
	return s
}

// EncryptShare encrypts a dealt VSS share scalar for the holder of
// recipient, using the sender's own communication secret key. It returns
// the masked share and the sender's communication public key, the point
// the recipient needs to unmask it; no fresh ephemeral key is drawn.
func (k CommunicationKey) EncryptShare(recipient CommunicationPublicKey, share group.Scalar) (masked group.Scalar, ephemeral group.Element) {
	dh := recipient.pk.ScalarMul(k.sk)
	s := sharedSecret(dh)
	return share.Add(s), k.pk
}

// DecryptShare recovers a share masked by EncryptShare, given the sender's
// communication public key.
func (k CommunicationKey) DecryptShare(sender group.Element, masked group.Scalar) group.Scalar {
	dh := sender.ScalarMul(k.sk)
	s := sharedSecret(dh)
	return masked.Sub(s)
}
