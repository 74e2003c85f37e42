package shvzk

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"

	"github.com/vocdoni-labs/ballotcore/group"
)

// domainTag separates this proof system's Fiat-Shamir transcripts from any
// other XOF consumer sharing the same cSHAKE primitive; two distinct
// statements (even across packages) never share a transcript prefix.
const domainTag = "ballotcore/shvzk/v1"

// transcript accumulates the public values a challenge is bound to and
// squeezes a scalar out of a domain-separated cSHAKE256 XOF, matching
// spec.md §4.5's requirement that challenges derive from a transcript hash
// seeded with the VotePlanId (crsSeed), the election key, the ciphertext
// vector, and every round's commitments.
type transcript struct {
	buf []byte
}

func newTranscript(crsSeed []byte, epk group.Element) *transcript {
	t := &transcript{}
	t.appendBytes(crsSeed)
	epkBytes := epk.Bytes()
	t.appendBytes(epkBytes[:])
	return t
}

func (t *transcript) appendBytes(b []byte) {
	var lenPrefix [8]byte
	binary.BigEndian.PutUint64(lenPrefix[:], uint64(len(b)))
	t.buf = append(t.buf, lenPrefix[:]...)
	t.buf = append(t.buf, b...)
}

func (t *transcript) appendElement(e group.Element) {
	b := e.Bytes()
	t.appendBytes(b[:])
}

// challenge squeezes a scalar challenge from the accumulated transcript.
// It does not consume the transcript: callers may keep appending and draw
// further challenges, each bound to everything appended so far.
func (t *transcript) challenge() group.Scalar {
	h := sha3.NewCShake256(nil, []byte(domainTag))
	h.Write(t.buf)
	out := make([]byte, group.ScalarBytesLen+16)
	h.Read(out)
	s, err := group.RandomScalar(byteReader(out))
	if err != nil {
		// byteReader never runs short here: out is sized exactly for one
		// RandomScalar draw.
		panic(err)
	}
	return s
}

// byteReader adapts a fixed byte slice to io.Reader for RandomScalar's
// oversample-and-reduce contract, letting the XOF output feed the same
// entropy path production randomness does.
type byteReader []byte

func (b byteReader) Read(p []byte) (int, error) {
	n := copy(p, b)
	return n, nil
}
