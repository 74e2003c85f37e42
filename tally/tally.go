// Package tally implements homomorphic aggregation of encrypted ballots
// (C6) and recovery of the integer result via small-table discrete-log
// search (C7), grounded precisely on the original chain-vote crate's
// EncryptedTally/result implementation.
package tally

import (
	"encoding/binary"
	"fmt"

	"github.com/vocdoni-labs/ballotcore/ballot"
	"github.com/vocdoni-labs/ballotcore/elgamal"
	"github.com/vocdoni-labs/ballotcore/group"
	"github.com/vocdoni-labs/ballotcore/voteerr"
)

// EncryptedTally homomorphically accumulates weighted encrypted votes into
// one ciphertext per option, starting from the identity ciphertext in
// every slot.
type EncryptedTally struct {
	slots []elgamal.Ciphertext
}

// NewEncryptedTally starts a tally with n zero-ciphertext slots, one per
// proposal option.
func NewEncryptedTally(n int) *EncryptedTally {
	slots := make([]elgamal.Ciphertext, n)
	for i := range slots {
		slots[i] = elgamal.Zero()
	}
	return &EncryptedTally{slots: slots}
}

// Add accumulates vote into the tally, weighted by weight. vote must carry
// exactly one ciphertext per slot; a mismatch is a Contract violation
// (caller error, not a rejected ballot).
func (t *EncryptedTally) Add(vote ballot.EncryptedVote, weight uint64) error {
	if len(vote) != len(t.slots) {
		return voteerr.NewUnscoped(voteerr.Contract, fmt.Errorf("tally: vote has %d slots, tally expects %d", len(vote), len(t.slots)))
	}
	w := group.ScalarFromUint64(weight)
	for i, c := range vote {
		t.slots[i] = t.slots[i].Add(c.ScalarMul(w))
	}
	return nil
}

// Finish closes this committee member's view of the tally: it returns the
// TallyState (the public c2 half of every slot) and this member's
// DecryptShare (c1^sk for every slot, tagged with the member's 1-based
// participant index). sk is the member's final combined share of the joint
// polynomial (committee.CombineFinalShare), not its own dealt constant
// term — Decode reconstructs the election secret from any `threshold`
// members' shares via Lagrange interpolation keyed by index, so index must
// match the position the member was dealt shares at everywhere else in the
// protocol. Each member calls Finish independently after vote_end.
func (t *EncryptedTally) Finish(index int, sk group.Scalar) (TallyState, DecryptShare) {
	c2s := make([]group.Element, len(t.slots))
	r1s := make([]group.Element, len(t.slots))
	for i, c := range t.slots {
		c2s[i] = c.C2
		r1s[i] = c.C1.ScalarMul(sk)
	}
	return TallyState{C2: c2s}, DecryptShare{Index: index, R1: r1s}
}

// Remove reverses a prior Add of the same vote and weight, the homomorphic
// subtract-then-add step a vote-plan manager uses to implement
// last-write-wins replacement when an account casts a second ballot on the
// same proposal.
func (t *EncryptedTally) Remove(vote ballot.EncryptedVote, weight uint64) error {
	if len(vote) != len(t.slots) {
		return voteerr.NewUnscoped(voteerr.Contract, fmt.Errorf("tally: vote has %d slots, tally expects %d", len(vote), len(t.slots)))
	}
	w := group.ScalarFromUint64(weight).Neg()
	for i, c := range vote {
		t.slots[i] = t.slots[i].Add(c.ScalarMul(w))
	}
	return nil
}

// State exposes the public c2 half of every slot without requiring a
// secret key, the half of Finish a caller other than the secret's holder
// can compute.
func (t *EncryptedTally) State() TallyState {
	c2s := make([]group.Element, len(t.slots))
	for i, c := range t.slots {
		c2s[i] = c.C2
	}
	return TallyState{C2: c2s}
}

// Bytes returns the dense concatenation of every slot's ciphertext bytes.
func (t *EncryptedTally) Bytes() []byte {
	out := make([]byte, 0, len(t.slots)*elgamal.BytesLen)
	for _, c := range t.slots {
		b := c.Bytes()
		out = append(out, b[:]...)
	}
	return out
}

// TallyFromBytes decodes a tally with n slots from its dense byte
// encoding.
func TallyFromBytes(n int, b []byte) (*EncryptedTally, error) {
	if len(b) != n*elgamal.BytesLen {
		return nil, fmt.Errorf("tally: invalid length %d, want %d", len(b), n*elgamal.BytesLen)
	}
	slots := make([]elgamal.Ciphertext, n)
	for i := 0; i < n; i++ {
		c, err := elgamal.FromBytes(b[i*elgamal.BytesLen : (i+1)*elgamal.BytesLen])
		if err != nil {
			return nil, fmt.Errorf("tally: invalid slot %d: %w", i, err)
		}
		slots[i] = c
	}
	return &EncryptedTally{slots: slots}, nil
}

// TallyState exposes the c2 half of every closed tally slot, the public
// data Decode combines with committee decryption shares.
type TallyState struct {
	C2 []group.Element
}

// Bytes returns the length-prefixed (u64 big-endian) encoding of the
// group elements.
func (s TallyState) Bytes() []byte {
	return groupElementsToBytes(s.C2)
}

// TallyStateFromBytes decodes a length-prefixed TallyState.
func TallyStateFromBytes(b []byte) (TallyState, error) {
	es, err := groupElementsFromBytes(b)
	if err != nil {
		return TallyState{}, fmt.Errorf("tally: invalid tally state: %w", err)
	}
	return TallyState{C2: es}, nil
}

// DecryptShare is one committee member's per-slot partial decryption:
// r1[j] = c1[j]^sk, where sk is that member's combined share of the joint
// polynomial. Index is the member's 1-based participant index, the x
// coordinate Decode's Lagrange reconstruction evaluates against.
type DecryptShare struct {
	Index int
	R1    []group.Element
}

// Bytes returns the big-endian u64 index followed by the length-prefixed
// encoding of the share's group elements.
func (s DecryptShare) Bytes() []byte {
	out := make([]byte, 8, 8+8+len(s.R1)*group.GroupElementBytesLen)
	binary.BigEndian.PutUint64(out, uint64(s.Index))
	return append(out, groupElementsToBytes(s.R1)...)
}

// DecryptShareFromBytes decodes a DecryptShare encoded by Bytes.
func DecryptShareFromBytes(b []byte) (DecryptShare, error) {
	if len(b) < 8 {
		return DecryptShare{}, fmt.Errorf("tally: decrypt share buffer too short for index")
	}
	index := int(binary.BigEndian.Uint64(b[:8]))
	es, err := groupElementsFromBytes(b[8:])
	if err != nil {
		return DecryptShare{}, fmt.Errorf("tally: invalid decrypt share: %w", err)
	}
	return DecryptShare{Index: index, R1: es}, nil
}

func groupElementsToBytes(es []group.Element) []byte {
	out := make([]byte, 8, 8+len(es)*group.GroupElementBytesLen)
	binary.BigEndian.PutUint64(out, uint64(len(es)))
	for _, e := range es {
		b := e.Bytes()
		out = append(out, b[:]...)
	}
	return out
}

func groupElementsFromBytes(b []byte) ([]group.Element, error) {
	if len(b) < 8 {
		return nil, fmt.Errorf("tally: buffer too short for length prefix")
	}
	n := binary.BigEndian.Uint64(b[:8])
	rest := b[8:]
	if uint64(len(rest)) != n*uint64(group.GroupElementBytesLen) {
		return nil, fmt.Errorf("tally: length prefix %d inconsistent with buffer size %d", n, len(rest))
	}
	out := make([]group.Element, n)
	for i := uint64(0); i < n; i++ {
		e, err := group.ElementFromBytes(rest[i*uint64(group.GroupElementBytesLen) : (i+1)*uint64(group.GroupElementBytesLen)])
		if err != nil {
			return nil, fmt.Errorf("tally: invalid element %d: %w", i, err)
		}
		out[i] = e
	}
	return out, nil
}
