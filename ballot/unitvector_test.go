package ballot

import (
	"math/rand/v2"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/vocdoni-labs/ballotcore/committee"
	"github.com/vocdoni-labs/ballotcore/group"
)

func testRand(seed uint64) *rand.ChaCha8 {
	var s [32]byte
	s[0] = byte(seed)
	return rand.NewChaCha8(s)
}

func testKeyPair(c *qt.C, rnd *rand.ChaCha8) (committee.ElectionPublicKey, group.Scalar) {
	sk, err := group.RandomScalar(rnd)
	c.Assert(err, qt.IsNil)
	return committee.ElectionPublicKey(group.ScalarBaseMul(sk)), sk
}

func TestNewUnitVectorValidation(t *testing.T) {
	c := qt.New(t)

	_, err := NewUnitVector(0, 0)
	c.Assert(err, qt.Not(qt.IsNil))

	_, err = NewUnitVector(257, 0)
	c.Assert(err, qt.Not(qt.IsNil))

	_, err = NewUnitVector(4, 4)
	c.Assert(err, qt.Not(qt.IsNil))

	v, err := NewUnitVector(4, 2)
	c.Assert(err, qt.IsNil)
	c.Assert(v.N, qt.Equals, 4)
	c.Assert(v.I, qt.Equals, 2)
}

func TestPrepareEncryptsOneHotVector(t *testing.T) {
	c := qt.New(t)
	rnd := testRand(1)
	epk, sk := testKeyPair(c, rnd)

	v, err := NewUnitVector(5, 3)
	c.Assert(err, qt.IsNil)

	vote, coins, err := Prepare(rnd, epk, v)
	c.Assert(err, qt.IsNil)
	c.Assert(len(vote), qt.Equals, 5)
	c.Assert(len(coins), qt.Equals, 5)

	for j, ct := range vote {
		want := uint64(0)
		if j == v.I {
			want = 1
		}
		c.Assert(ct.C1.Equal(group.ScalarBaseMul(coins[j])), qt.IsTrue)
		c.Assert(ct.DecryptWith(sk).Equal(group.ScalarBaseMul(group.ScalarFromUint64(want))), qt.IsTrue)
	}
}

func TestEncryptedVoteBytesRoundTrip(t *testing.T) {
	c := qt.New(t)
	rnd := testRand(2)
	epk, _ := testKeyPair(c, rnd)

	v, err := NewUnitVector(3, 1)
	c.Assert(err, qt.IsNil)
	vote, _, err := Prepare(rnd, epk, v)
	c.Assert(err, qt.IsNil)

	b := vote.Bytes()
	decoded, err := EncryptedVoteFromBytes(3, b)
	c.Assert(err, qt.IsNil)
	for j := range vote {
		c.Assert(decoded[j].Equal(vote[j]), qt.IsTrue)
	}
}

func TestEncryptedVoteFromBytesRejectsWrongLength(t *testing.T) {
	c := qt.New(t)
	_, err := EncryptedVoteFromBytes(3, make([]byte, 10))
	c.Assert(err, qt.Not(qt.IsNil))
}
