// Package ledger implements the persistent, structurally-shared index of
// vote-plan managers: every mutating operation returns a new Ledger and
// leaves the receiver (and every Manager it previously exposed) untouched,
// so a reader holding an old snapshot never observes a partial update.
package ledger

import (
	"fmt"

	"github.com/vocdoni-labs/ballotcore/committee"
	"github.com/vocdoni-labs/ballotcore/governance"
	"github.com/vocdoni-labs/ballotcore/tally"
	"github.com/vocdoni-labs/ballotcore/voteerr"
	"github.com/vocdoni-labs/ballotcore/voteplan"
)

// Ledger indexes VotePlanId to its Manager in a persistent,
// bitmap-indexed hash trie (see hamt.go). The zero value is an empty
// ledger, the same value New returns.
type Ledger struct {
	root  any // nil, *hamtLeaf, *hamtBucket, or *hamtNode
	count int
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Get returns the manager for id, and whether it was present.
func (l *Ledger) Get(id voteplan.VotePlanId) (*voteplan.Manager, bool) {
	return hamtGet(l.root, id, hamtHash(id), 0)
}

// Len returns the number of vote plans currently tracked.
func (l *Ledger) Len() int {
	return l.count
}

// withReplacedManager returns a new Ledger with id pointing at m: every
// node on id's path down the trie is freshly copied, every other node is
// shared by reference with the receiver, the structural sharing spec.md
// §4.9 describes. isNew must be true only when id is not already present,
// so the new ledger's count is tracked without a second lookup.
func (l *Ledger) withReplacedManager(id voteplan.VotePlanId, m *voteplan.Manager, isNew bool) *Ledger {
	count := l.count
	if isNew {
		count++
	}
	return &Ledger{root: hamtInsert(l.root, id, hamtHash(id), m, 0), count: count}
}

func (l *Ledger) lookup(id voteplan.VotePlanId) (*voteplan.Manager, error) {
	m, ok := l.Get(id)
	if !ok {
		return nil, voteerr.New(voteerr.NotFound, id, voteerr.ErrPlanNotFound)
	}
	return m, nil
}

// AddVotePlan installs a fresh manager for plan in the Voting state.
func (l *Ledger) AddVotePlan(currentDate voteplan.BlockDate, plan voteplan.VotePlan, committeeIDs []voteplan.CommitteeID) (*Ledger, error) {
	if currentDate > plan.VoteEnd {
		return nil, voteerr.NewUnscoped(voteerr.Temporal, voteerr.ErrVoteEndPassed)
	}
	if currentDate > plan.VoteStart {
		return nil, voteerr.NewUnscoped(voteerr.Temporal, voteerr.ErrVoteStartStartedAlready)
	}
	if plan.PayloadType == voteplan.Private && len(plan.CommitteePublicKeys) == 0 {
		return nil, voteerr.NewUnscoped(voteerr.Structural, voteerr.ErrMissingCommitteeMemberKey)
	}

	id, err := plan.ID()
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to derive plan id: %w", err)
	}
	if _, exists := l.Get(id); exists {
		return nil, voteerr.New(voteerr.Structural, id, voteerr.ErrPlanAlreadyExists)
	}

	m, err := voteplan.NewManager(plan, committeeIDs)
	if err != nil {
		return nil, err
	}
	return l.withReplacedManager(id, m, true), nil
}

// ApplyVote routes a vote fragment to its plan's manager.
func (l *Ledger) ApplyVote(d voteplan.BlockDate, id voteplan.VotePlanId, account voteplan.AccountID, cast voteplan.VoteCast, epk committee.ElectionPublicKey, weight uint64) (*Ledger, error) {
	m, err := l.lookup(id)
	if err != nil {
		return nil, err
	}
	clone := m.Clone()
	if err := clone.ApplyVote(d, account, cast, epk, weight); err != nil {
		return nil, err
	}
	return l.withReplacedManager(id, clone, false), nil
}

// ApplyEncryptedVoteTally applies the committee's EncryptedVoteTally
// certificate, the signal that closes voting and starts the decryption
// phase for a Private plan.
func (l *Ledger) ApplyEncryptedVoteTally(d voteplan.BlockDate, id voteplan.VotePlanId, cid voteplan.CommitteeID) (*Ledger, error) {
	m, err := l.lookup(id)
	if err != nil {
		return nil, err
	}
	clone := m.Clone()
	if err := clone.StartPrivateTally(d, cid); err != nil {
		return nil, err
	}
	return l.withReplacedManager(id, clone, false), nil
}

// ApplyCommitteeResult applies a committee member's tally-proof
// submission: decryption shares for a Private plan (accumulating toward
// its threshold) or the direct closing certificate for a Public plan.
func (l *Ledger) ApplyCommitteeResult(d voteplan.BlockDate, id voteplan.VotePlanId, cid voteplan.CommitteeID, shares []tally.DecryptShare, maxVotes uint64, tableSize int, hook governance.Hook, criteria governance.AcceptanceCriteria) (*Ledger, error) {
	m, err := l.lookup(id)
	if err != nil {
		return nil, err
	}
	clone := m.Clone()

	var applyErr error
	switch clone.Plan.PayloadType {
	case voteplan.Private:
		applyErr = clone.FinalizePrivateTally(cid, shares, maxVotes, tableSize, hook, criteria)
	case voteplan.Public:
		applyErr = clone.PublicTally(d, cid, hook, criteria)
	}
	if applyErr != nil {
		return nil, applyErr
	}
	return l.withReplacedManager(id, clone, false), nil
}
