package voteplan

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vocdoni-labs/ballotcore/ballot"
	"github.com/vocdoni-labs/ballotcore/committee"
	"github.com/vocdoni-labs/ballotcore/governance"
	"github.com/vocdoni-labs/ballotcore/shvzk"
	"github.com/vocdoni-labs/ballotcore/tally"
	"github.com/vocdoni-labs/ballotcore/voteerr"
)

// CommitteeID and AccountID are external identities the core never
// interprets beyond equality: committee signer identity and voter account
// identity respectively, both out-of-scope collaborators per spec.md §1.
type CommitteeID = uuid.UUID
type AccountID = uuid.UUID

// ManagerStatus is the per-plan lifecycle stage. It only ever advances:
// Voting -> TallyStarted -> Finished (I5).
type ManagerStatus int

const (
	StatusVoting ManagerStatus = iota
	StatusTallyStarted
	StatusFinished
)

func (s ManagerStatus) String() string {
	switch s {
	case StatusVoting:
		return "voting"
	case StatusTallyStarted:
		return "tally_started"
	case StatusFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// PrivateBallot is the payload an encrypted ballot carries: the ciphertext
// vector and its SHVZK proof of well-formedness.
type PrivateBallot struct {
	Vote  ballot.EncryptedVote
	Proof shvzk.Proof
}

// VoteCast is a single vote fragment submitted against a specific plan and
// proposal. Exactly one of Private or the Option field is meaningful,
// selected by the plan's PayloadType.
type VoteCast struct {
	PlanID        VotePlanId
	ProposalIndex int
	Private       *PrivateBallot
	Option        int
}

// castKey identifies one account's contribution to one proposal, the unit
// last-write-wins replacement operates over.
type castKey struct {
	ProposalIndex int
	Account       AccountID
}

// CastRecord is the previously-applied contribution for one account/
// proposal pair, kept so a repeat vote can undo it before applying the
// new one.
type CastRecord struct {
	Vote   ballot.EncryptedVote
	Option int
	Weight uint64
}

// Manager is one vote plan's state machine: it owns the plan's encrypted
// or public tallies and walks them through Voting, TallyStarted, and
// Finished exactly as spec.md §4.8 describes.
type Manager struct {
	Plan   VotePlan
	id     VotePlanId
	// Committee maps each authorized signer identity to its 1-based
	// participant index — the position its crypto key share occupies in
	// Plan.CommitteePublicKeys, and the x coordinate tally.Decode's
	// Lagrange reconstruction evaluates the member's decryption shares
	// against.
	Committee map[CommitteeID]int
	Status    ManagerStatus

	encryptedTallies []*tally.EncryptedTally
	publicCounts     []map[int]uint64

	collectedShares map[CommitteeID][]tally.DecryptShare
	results         []tally.Result

	castRecords map[castKey]CastRecord
}

// NewManager installs a fresh Voting-state manager for plan, authorized
// for the given committee signer identities.
func NewManager(plan VotePlan, committeeIDs []CommitteeID) (*Manager, error) {
	id, err := plan.ID()
	if err != nil {
		return nil, fmt.Errorf("voteplan: failed to derive plan id: %w", err)
	}

	if plan.PayloadType == Private && len(committeeIDs) != len(plan.CommitteePublicKeys) {
		return nil, fmt.Errorf("voteplan: private plan has %d committee public keys, got %d committee ids", len(plan.CommitteePublicKeys), len(committeeIDs))
	}

	m := &Manager{
		Plan:        plan,
		id:          id,
		Status:      StatusVoting,
		castRecords: make(map[castKey]CastRecord),
	}
	// committeeIDs[i] is assigned participant index i+1, matching the
	// position its key occupies in plan.CommitteePublicKeys and the point
	// committee.NewMemberState dealt its shares at.
	m.Committee = make(map[CommitteeID]int, len(committeeIDs))
	for i, c := range committeeIDs {
		m.Committee[c] = i + 1
	}

	switch plan.PayloadType {
	case Private:
		m.encryptedTallies = make([]*tally.EncryptedTally, len(plan.Proposals))
		for i, p := range plan.Proposals {
			m.encryptedTallies[i] = tally.NewEncryptedTally(p.Options)
		}
		m.collectedShares = make(map[CommitteeID][]tally.DecryptShare)
	case Public:
		m.publicCounts = make([]map[int]uint64, len(plan.Proposals))
		for i := range m.publicCounts {
			m.publicCounts[i] = make(map[int]uint64)
		}
	}
	return m, nil
}

// ID returns the manager's plan id, the ledger's key for this manager.
func (m *Manager) ID() VotePlanId { return m.id }

// Results returns the recovered per-proposal tallies once Status is
// Finished; nil before that.
func (m *Manager) Results() []tally.Result {
	return m.results
}

func (m *Manager) structuralErr(reason error) error {
	return voteerr.New(voteerr.Structural, m.id, reason)
}

func (m *Manager) temporalErr(reason error) error {
	return voteerr.New(voteerr.Temporal, m.id, reason)
}

// ApplyVote verifies and applies one vote fragment. epk is required only
// for Private plans, to verify the SHVZK proof; callers of Public plans
// may pass the zero value. weight is the voter's stake at d, supplied by
// the host ledger (stake accounting is out of scope here).
func (m *Manager) ApplyVote(d BlockDate, account AccountID, cast VoteCast, epk committee.ElectionPublicKey, weight uint64) error {
	if cast.PlanID != m.id {
		return voteerr.New(voteerr.Structural, m.id, voteerr.ErrWrongVotePlan)
	}
	if m.Status != StatusVoting {
		return m.structuralErr(voteerr.ErrNotInVotingState)
	}
	if d < m.Plan.VoteStart || d > m.Plan.VoteEnd {
		return m.temporalErr(voteerr.ErrOutsideVotingWindow)
	}
	if cast.ProposalIndex < 0 || cast.ProposalIndex >= len(m.Plan.Proposals) {
		return voteerr.New(voteerr.NotFound, m.id, voteerr.ErrProposalOutOfRange)
	}

	key := castKey{ProposalIndex: cast.ProposalIndex, Account: account}

	switch m.Plan.PayloadType {
	case Private:
		if cast.Private == nil {
			return voteerr.NewUnscoped(voteerr.Contract, fmt.Errorf("voteplan: private plan requires a private ballot"))
		}
		if !shvzk.Verify(m.id.Bytes(), epk, cast.Private.Vote, cast.Private.Proof) {
			return voteerr.New(voteerr.Crypto, m.id, voteerr.ErrProofInvalid)
		}
		t := m.encryptedTallies[cast.ProposalIndex]
		if prev, ok := m.castRecords[key]; ok {
			if err := t.Remove(prev.Vote, prev.Weight); err != nil {
				return err
			}
		}
		if err := t.Add(cast.Private.Vote, weight); err != nil {
			return err
		}
		m.castRecords[key] = CastRecord{Vote: cast.Private.Vote, Weight: weight}

	case Public:
		options := m.Plan.Proposals[cast.ProposalIndex].Options
		if cast.Option < 0 || cast.Option >= options {
			return voteerr.New(voteerr.NotFound, m.id, voteerr.ErrProposalOutOfRange)
		}
		counts := m.publicCounts[cast.ProposalIndex]
		if prev, ok := m.castRecords[key]; ok {
			counts[prev.Option] -= prev.Weight
		}
		counts[cast.Option] += weight
		m.castRecords[key] = CastRecord{Option: cast.Option, Weight: weight}
	}
	return nil
}

// StartPrivateTally is the committee certificate that closes voting and
// opens the decryption phase for a Private plan.
func (m *Manager) StartPrivateTally(d BlockDate, cid CommitteeID) error {
	if m.Plan.PayloadType != Private {
		return voteerr.NewUnscoped(voteerr.Contract, fmt.Errorf("voteplan: start_private_tally only applies to private plans"))
	}
	if m.Status != StatusVoting {
		return m.structuralErr(voteerr.ErrNotInVotingState)
	}
	if d < m.Plan.VoteEnd || d > m.Plan.CommitteeEnd {
		return m.temporalErr(voteerr.ErrOutsideCommitteeWindow)
	}
	if _, ok := m.Committee[cid]; !ok {
		return m.structuralErr(voteerr.ErrNotCommitteeMember)
	}
	m.Status = StatusTallyStarted
	return nil
}

// FinalizePrivateTally records one committee member's decryption shares
// (one per proposal, in plan order) and, once at least Threshold distinct
// members have contributed, recovers every proposal's result and invokes
// the governance hook once per proposal before moving to Finished (I6:
// each member may contribute at most once).
func (m *Manager) FinalizePrivateTally(cid CommitteeID, shares []tally.DecryptShare, maxVotes uint64, tableSize int, hook governance.Hook, criteria governance.AcceptanceCriteria) error {
	if m.Plan.PayloadType != Private {
		return voteerr.NewUnscoped(voteerr.Contract, fmt.Errorf("voteplan: finalize_private_tally only applies to private plans"))
	}
	if m.Status != StatusTallyStarted {
		return m.structuralErr(voteerr.ErrNotInTallyStartedState)
	}
	wantIndex, ok := m.Committee[cid]
	if !ok {
		return m.structuralErr(voteerr.ErrNotCommitteeMember)
	}
	if _, ok := m.collectedShares[cid]; ok {
		return m.structuralErr(voteerr.ErrDuplicateShare)
	}
	if len(shares) != len(m.Plan.Proposals) {
		return voteerr.NewUnscoped(voteerr.Contract, fmt.Errorf("voteplan: expected %d per-proposal shares, got %d", len(m.Plan.Proposals), len(shares)))
	}
	for _, s := range shares {
		if s.Index != wantIndex {
			return voteerr.New(voteerr.Crypto, m.id, voteerr.ErrMalformedShare)
		}
	}

	m.collectedShares[cid] = shares
	if len(m.collectedShares) < m.Plan.Threshold {
		return nil
	}

	// Every proposal's discrete-log recovery is independent of the others,
	// so they decode concurrently; the governance hook is then invoked in
	// plan order, since Hook implementations are not required to be
	// concurrency-safe.
	results := make([]tally.Result, len(m.Plan.Proposals))
	g, _ := errgroup.WithContext(context.Background())
	for j := range m.Plan.Proposals {
		j := j
		memberShares := make([]tally.DecryptShare, 0, len(m.collectedShares))
		for _, s := range m.collectedShares {
			memberShares = append(memberShares, s[j])
		}
		state := m.encryptedTallies[j].State()
		g.Go(func() error {
			res, err := tally.Decode(maxVotes, tableSize, state, memberShares)
			if err != nil {
				return err
			}
			results[j] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if hook != nil {
		for j, res := range results {
			if err := hook.Apply(uuid.New(), criteria.Decide(j, res)); err != nil {
				return err
			}
		}
	}
	m.results = results
	m.Status = StatusFinished
	return nil
}

// PublicTally closes voting on a Public plan directly, since no decryption
// step is needed: every option's count is already known exactly.
func (m *Manager) PublicTally(d BlockDate, cid CommitteeID, hook governance.Hook, criteria governance.AcceptanceCriteria) error {
	if m.Plan.PayloadType != Public {
		return voteerr.NewUnscoped(voteerr.Contract, fmt.Errorf("voteplan: public_tally only applies to public plans"))
	}
	if m.Status != StatusVoting {
		return m.structuralErr(voteerr.ErrNotInVotingState)
	}
	if d < m.Plan.VoteEnd || d > m.Plan.CommitteeEnd {
		return m.temporalErr(voteerr.ErrOutsideCommitteeWindow)
	}
	if _, ok := m.Committee[cid]; !ok {
		return m.structuralErr(voteerr.ErrNotCommitteeMember)
	}

	results := make([]tally.Result, len(m.Plan.Proposals))
	for j, p := range m.Plan.Proposals {
		votes := make([]*uint64, p.Options)
		for opt := 0; opt < p.Options; opt++ {
			c := m.publicCounts[j][opt]
			votes[opt] = &c
		}
		results[j] = tally.Result{Votes: votes, Options: [2]int{0, p.Options}}
		if hook != nil {
			if err := hook.Apply(uuid.New(), criteria.Decide(j, results[j])); err != nil {
				return err
			}
		}
	}
	m.results = results
	m.Status = StatusFinished
	return nil
}
