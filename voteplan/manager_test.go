package voteplan

import (
	"errors"
	"math/rand/v2"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"

	"github.com/vocdoni-labs/ballotcore/ballot"
	"github.com/vocdoni-labs/ballotcore/committee"
	"github.com/vocdoni-labs/ballotcore/governance"
	"github.com/vocdoni-labs/ballotcore/group"
	"github.com/vocdoni-labs/ballotcore/shvzk"
	"github.com/vocdoni-labs/ballotcore/tally"
	"github.com/vocdoni-labs/ballotcore/voteerr"
)

func testRand(seed uint64) *rand.ChaCha8 {
	var s [32]byte
	s[0] = byte(seed)
	s[1] = byte(seed >> 8)
	return rand.NewChaCha8(s)
}

// thresholdCommittee is a fully dealt t-of-n committee: pks is each
// member's public share (summed into epk), and finalShares[i] is
// participant i's combined final share of the joint polynomial — what it
// actually calls tally.EncryptedTally.Finish with, never its own dealt
// constant term alone.
type thresholdCommittee struct {
	epk         committee.ElectionPublicKey
	pks         []group.Element
	finalShares []group.Scalar
}

func dealThresholdCommittee(c *qt.C, rnd *rand.ChaCha8, n, threshold int) thresholdCommittee {
	crs, err := committee.GenerateCRS(rnd)
	c.Assert(err, qt.IsNil)

	commPub := make([]committee.CommunicationPublicKey, n)
	for i := range commPub {
		k, err := committee.NewCommunicationKey(rnd)
		c.Assert(err, qt.IsNil)
		commPub[i] = k.Public()
	}

	dealers := make([]*committee.MemberState, n)
	for i := range dealers {
		m, err := committee.NewMemberState(rnd, threshold, crs, commPub, i)
		c.Assert(err, qt.IsNil)
		dealers[i] = m
	}

	pks := make([]group.Element, n)
	finalShares := make([]group.Scalar, n)
	for i, d := range dealers {
		pks[i] = d.PublicKey()
		finalShares[i] = committee.CombineFinalShare(dealers, i)
	}
	return thresholdCommittee{epk: committee.ElectionKeyFromParticipants(pks), pks: pks, finalShares: finalShares}
}

func privateBallot(c *qt.C, rnd *rand.ChaCha8, id VotePlanId, epk committee.ElectionPublicKey, n, i int) *PrivateBallot {
	uv, err := ballot.NewUnitVector(n, i)
	c.Assert(err, qt.IsNil)
	vote, coins, err := ballot.Prepare(rnd, epk, uv)
	c.Assert(err, qt.IsNil)
	proof, err := shvzk.Prove(rnd, id.Bytes(), epk, vote, uv, coins)
	c.Assert(err, qt.IsNil)
	return &PrivateBallot{Vote: vote, Proof: proof}
}

func TestNewVotePlanRejectsDisorderedWindow(t *testing.T) {
	c := qt.New(t)
	_, err := NewVotePlan(10, 5, 20, []Proposal{{Options: 2}}, Public, 1, nil)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestNewVotePlanRejectsPrivateWithoutCommittee(t *testing.T) {
	c := qt.New(t)
	_, err := NewVotePlan(0, 10, 20, []Proposal{{Options: 2}}, Private, 1, nil)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestVotePlanIDIsDeterministicAndSensitiveToFields(t *testing.T) {
	c := qt.New(t)
	p1, err := NewVotePlan(0, 10, 20, []Proposal{{Options: 2}}, Public, 1, nil)
	c.Assert(err, qt.IsNil)
	p2, err := NewVotePlan(0, 10, 20, []Proposal{{Options: 2}}, Public, 1, nil)
	c.Assert(err, qt.IsNil)
	p3, err := NewVotePlan(0, 11, 20, []Proposal{{Options: 2}}, Public, 1, nil)
	c.Assert(err, qt.IsNil)

	id1, err := p1.ID()
	c.Assert(err, qt.IsNil)
	id2, err := p2.ID()
	c.Assert(err, qt.IsNil)
	id3, err := p3.ID()
	c.Assert(err, qt.IsNil)

	c.Assert(id1, qt.Equals, id2)
	c.Assert(id1, qt.Not(qt.Equals), id3)
}

func TestPrivatePlanFullLifecycle(t *testing.T) {
	c := qt.New(t)
	rnd := testRand(1)
	jc := dealThresholdCommittee(c, rnd, 2, 2)

	plan, err := NewVotePlan(0, 10, 20, []Proposal{{Options: 2}}, Private, 2, jc.pks)
	c.Assert(err, qt.IsNil)
	id, err := plan.ID()
	c.Assert(err, qt.IsNil)

	cid0, cid1 := uuid.New(), uuid.New()
	m, err := NewManager(plan, []CommitteeID{cid0, cid1})
	c.Assert(err, qt.IsNil)

	alice, bob := uuid.New(), uuid.New()
	pb := privateBallot(c, rnd, id, jc.epk, 2, 1)
	err = m.ApplyVote(5, alice, VoteCast{PlanID: id, ProposalIndex: 0, Private: pb}, jc.epk, 6)
	c.Assert(err, qt.IsNil)

	pb2 := privateBallot(c, rnd, id, jc.epk, 2, 0)
	err = m.ApplyVote(5, bob, VoteCast{PlanID: id, ProposalIndex: 0, Private: pb2}, jc.epk, 4)
	c.Assert(err, qt.IsNil)

	// alice revotes for option 0 instead of 1: replace, not add.
	pb3 := privateBallot(c, rnd, id, jc.epk, 2, 0)
	err = m.ApplyVote(6, alice, VoteCast{PlanID: id, ProposalIndex: 0, Private: pb3}, jc.epk, 6)
	c.Assert(err, qt.IsNil)

	c.Assert(m.StartPrivateTally(15, cid0), qt.IsNil)

	hook := &governance.NopHook{}
	shares0 := []tally.DecryptShare{finishShare(m, 0, 1, jc.finalShares[0])}
	c.Assert(m.FinalizePrivateTally(cid0, shares0, 20, 5, hook, governance.DefaultAcceptanceCriteria{}), qt.IsNil)
	c.Assert(m.Status, qt.Equals, StatusTallyStarted)

	shares1 := []tally.DecryptShare{finishShare(m, 0, 2, jc.finalShares[1])}
	c.Assert(m.FinalizePrivateTally(cid1, shares1, 20, 5, hook, governance.DefaultAcceptanceCriteria{}), qt.IsNil)
	c.Assert(m.Status, qt.Equals, StatusFinished)

	results := m.Results()
	c.Assert(results, qt.HasLen, 1)
	c.Assert(*results[0].Votes[0], qt.Equals, uint64(6+4))
	c.Assert(*results[0].Votes[1], qt.Equals, uint64(0))
	c.Assert(hook.Applied, qt.HasLen, 1)
}

func finishShare(m *Manager, proposalIndex, index int, sk group.Scalar) tally.DecryptShare {
	_, share := m.encryptedTallies[proposalIndex].Finish(index, sk)
	return share
}

func TestPublicPlanFullLifecycle(t *testing.T) {
	c := qt.New(t)
	plan, err := NewVotePlan(0, 10, 20, []Proposal{{Options: 2}}, Public, 1, nil)
	c.Assert(err, qt.IsNil)
	id, err := plan.ID()
	c.Assert(err, qt.IsNil)

	cid := uuid.New()
	m, err := NewManager(plan, []CommitteeID{cid})
	c.Assert(err, qt.IsNil)

	alice, bob := uuid.New(), uuid.New()
	c.Assert(m.ApplyVote(1, alice, VoteCast{PlanID: id, ProposalIndex: 0, Option: 1}, committee.ElectionPublicKey{}, 3), qt.IsNil)
	c.Assert(m.ApplyVote(2, bob, VoteCast{PlanID: id, ProposalIndex: 0, Option: 0}, committee.ElectionPublicKey{}, 5), qt.IsNil)
	// bob changes his mind.
	c.Assert(m.ApplyVote(3, bob, VoteCast{PlanID: id, ProposalIndex: 0, Option: 1}, committee.ElectionPublicKey{}, 5), qt.IsNil)

	hook := &governance.NopHook{}
	c.Assert(m.PublicTally(15, cid, hook, governance.DefaultAcceptanceCriteria{}), qt.IsNil)
	c.Assert(m.Status, qt.Equals, StatusFinished)

	results := m.Results()
	c.Assert(*results[0].Votes[0], qt.Equals, uint64(0))
	c.Assert(*results[0].Votes[1], qt.Equals, uint64(8))
}

func TestApplyVoteRejectsWrongPlanID(t *testing.T) {
	c := qt.New(t)
	plan, err := NewVotePlan(0, 10, 20, []Proposal{{Options: 2}}, Public, 1, nil)
	c.Assert(err, qt.IsNil)
	m, err := NewManager(plan, nil)
	c.Assert(err, qt.IsNil)

	err = m.ApplyVote(1, uuid.New(), VoteCast{PlanID: VotePlanId{0xff}, ProposalIndex: 0, Option: 0}, committee.ElectionPublicKey{}, 1)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestApplyVoteRejectsOutsideWindow(t *testing.T) {
	c := qt.New(t)
	plan, err := NewVotePlan(5, 10, 20, []Proposal{{Options: 2}}, Public, 1, nil)
	c.Assert(err, qt.IsNil)
	id, err := plan.ID()
	c.Assert(err, qt.IsNil)
	m, err := NewManager(plan, nil)
	c.Assert(err, qt.IsNil)

	err = m.ApplyVote(1, uuid.New(), VoteCast{PlanID: id, ProposalIndex: 0, Option: 0}, committee.ElectionPublicKey{}, 1)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestApplyVoteRejectsProposalOutOfRange(t *testing.T) {
	c := qt.New(t)
	plan, err := NewVotePlan(0, 10, 20, []Proposal{{Options: 2}}, Public, 1, nil)
	c.Assert(err, qt.IsNil)
	id, err := plan.ID()
	c.Assert(err, qt.IsNil)
	m, err := NewManager(plan, nil)
	c.Assert(err, qt.IsNil)

	err = m.ApplyVote(1, uuid.New(), VoteCast{PlanID: id, ProposalIndex: 5, Option: 0}, committee.ElectionPublicKey{}, 1)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestApplyVoteRejectsInvalidProof(t *testing.T) {
	c := qt.New(t)
	rnd := testRand(2)
	jc := dealThresholdCommittee(c, rnd, 1, 1)

	plan, err := NewVotePlan(0, 10, 20, []Proposal{{Options: 2}}, Private, 1, jc.pks)
	c.Assert(err, qt.IsNil)
	id, err := plan.ID()
	c.Assert(err, qt.IsNil)
	m, err := NewManager(plan, []CommitteeID{uuid.New()})
	c.Assert(err, qt.IsNil)

	pb := privateBallot(c, rnd, id, jc.epk, 2, 0)
	pb.Proof.Bits[0].Z = pb.Proof.Bits[0].Z.Add(group.ScalarFromUint64(1))

	err = m.ApplyVote(1, uuid.New(), VoteCast{PlanID: id, ProposalIndex: 0, Private: pb}, jc.epk, 1)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestFinalizePrivateTallyRejectsDuplicateShare(t *testing.T) {
	c := qt.New(t)
	rnd := testRand(3)
	jc := dealThresholdCommittee(c, rnd, 2, 2)

	plan, err := NewVotePlan(0, 10, 20, []Proposal{{Options: 2}}, Private, 2, jc.pks)
	c.Assert(err, qt.IsNil)
	cid, other := uuid.New(), uuid.New()
	m, err := NewManager(plan, []CommitteeID{cid, other})
	c.Assert(err, qt.IsNil)
	c.Assert(m.StartPrivateTally(15, cid), qt.IsNil)

	// threshold 2 keeps the plan in TallyStarted after cid's first share,
	// so the resubmission reaches the duplicate-share check.
	shares := []tally.DecryptShare{finishShare(m, 0, 1, jc.finalShares[0])}
	c.Assert(m.FinalizePrivateTally(cid, shares, 20, 5, nil, governance.DefaultAcceptanceCriteria{}), qt.IsNil)
	err = m.FinalizePrivateTally(cid, shares, 20, 5, nil, governance.DefaultAcceptanceCriteria{})
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(errors.Is(err, voteerr.ErrDuplicateShare), qt.IsTrue)
}

// TestPrivatePlanFinalizesOnAnyThresholdQuorum deals a 3-member committee
// with threshold 2 and finalizes with only two of the three members'
// shares, confirming Decode's Lagrange reconstruction recovers the correct
// result from a proper subset rather than requiring all N members.
func TestPrivatePlanFinalizesOnAnyThresholdQuorum(t *testing.T) {
	c := qt.New(t)
	rnd := testRand(4)
	jc := dealThresholdCommittee(c, rnd, 3, 2)

	plan, err := NewVotePlan(0, 10, 20, []Proposal{{Options: 2}}, Private, 2, jc.pks)
	c.Assert(err, qt.IsNil)
	id, err := plan.ID()
	c.Assert(err, qt.IsNil)

	cids := []CommitteeID{uuid.New(), uuid.New(), uuid.New()}
	m, err := NewManager(plan, cids)
	c.Assert(err, qt.IsNil)

	alice := uuid.New()
	pb := privateBallot(c, rnd, id, jc.epk, 2, 0)
	c.Assert(m.ApplyVote(1, alice, VoteCast{PlanID: id, ProposalIndex: 0, Private: pb}, jc.epk, 7), qt.IsNil)

	c.Assert(m.StartPrivateTally(15, cids[0]), qt.IsNil)

	hook := &governance.NopHook{}
	shares1 := []tally.DecryptShare{finishShare(m, 0, 2, jc.finalShares[1])}
	c.Assert(m.FinalizePrivateTally(cids[1], shares1, 20, 5, hook, governance.DefaultAcceptanceCriteria{}), qt.IsNil)
	c.Assert(m.Status, qt.Equals, StatusTallyStarted)

	shares2 := []tally.DecryptShare{finishShare(m, 0, 3, jc.finalShares[2])}
	c.Assert(m.FinalizePrivateTally(cids[2], shares2, 20, 5, hook, governance.DefaultAcceptanceCriteria{}), qt.IsNil)
	c.Assert(m.Status, qt.Equals, StatusFinished)

	results := m.Results()
	c.Assert(*results[0].Votes[0], qt.Equals, uint64(7))
	c.Assert(*results[0].Votes[1], qt.Equals, uint64(0))
}

// TestFinalizePrivateTallyRejectsMismatchedShareIndex confirms a share
// tagged with the wrong participant index — one that does not match the
// submitting committee id's position — is rejected rather than silently
// corrupting the Lagrange reconstruction.
func TestFinalizePrivateTallyRejectsMismatchedShareIndex(t *testing.T) {
	c := qt.New(t)
	rnd := testRand(5)
	jc := dealThresholdCommittee(c, rnd, 2, 2)

	plan, err := NewVotePlan(0, 10, 20, []Proposal{{Options: 2}}, Private, 2, jc.pks)
	c.Assert(err, qt.IsNil)
	cid0, cid1 := uuid.New(), uuid.New()
	m, err := NewManager(plan, []CommitteeID{cid0, cid1})
	c.Assert(err, qt.IsNil)
	c.Assert(m.StartPrivateTally(15, cid0), qt.IsNil)

	// cid1 occupies index 2, but submits a share tagged with index 1.
	shares := []tally.DecryptShare{finishShare(m, 0, 1, jc.finalShares[1])}
	err = m.FinalizePrivateTally(cid1, shares, 20, 5, nil, governance.DefaultAcceptanceCriteria{})
	c.Assert(err, qt.Not(qt.IsNil))
}
