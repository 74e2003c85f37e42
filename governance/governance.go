// Package governance defines the effect sink a vote plan's result feeds
// into once tallying finishes: an opaque hook that turns an accepted
// VoteAction into whatever treasury or parameter change the host ledger
// models. The voting core's only contract with it is determinism: the
// same (tally result, acceptance criteria) pair always yields the same
// VoteAction.
package governance

import (
	"github.com/google/uuid"

	"github.com/vocdoni-labs/ballotcore/tally"
)

// VoteAction is the effect a proposal's result produced, for the host
// ledger's governance hook to apply.
type VoteAction struct {
	ProposalIndex int
	Accepted      bool
	Reason        string
}

// AcceptanceCriteria turns a recovered tally into a VoteAction. Different
// proposal types (simple majority, supermajority, quorum-gated) implement
// this differently; the core only ever calls Decide.
type AcceptanceCriteria interface {
	Decide(proposalIndex int, result tally.Result) VoteAction
}

// Hook receives the decided VoteAction once a proposal's result is final.
// Implementations update treasury or parameter governance state; the core
// never inspects what Apply does, only that it returns an error on
// failure so the caller can decide whether to retry or abort finalization.
// correlationID is minted fresh by the caller for each applied action, so
// a host can deduplicate or audit-log retries of the same finalization
// without inventing its own correlation scheme.
type Hook interface {
	Apply(correlationID uuid.UUID, action VoteAction) error
}

// DefaultAcceptanceCriteria treats option 1 ("yes") as accepted whenever it
// strictly outnumbers option 0 ("no"); any other option beyond those two
// is ignored. A result with an unrecovered vote count for either option
// (nil, see tally.Result) is treated as rejected rather than panicking,
// since the decoder's partial-result policy means "unknown" must never be
// silently promoted to "zero".
type DefaultAcceptanceCriteria struct{}

func (DefaultAcceptanceCriteria) Decide(proposalIndex int, result tally.Result) VoteAction {
	if len(result.Votes) < 2 || result.Votes[0] == nil || result.Votes[1] == nil {
		return VoteAction{ProposalIndex: proposalIndex, Accepted: false, Reason: "tally incomplete"}
	}
	yes, no := *result.Votes[1], *result.Votes[0]
	if yes > no {
		return VoteAction{ProposalIndex: proposalIndex, Accepted: true, Reason: "majority yes"}
	}
	return VoteAction{ProposalIndex: proposalIndex, Accepted: false, Reason: "majority no or tie"}
}

// NopHook discards every action; useful for dry runs and tests that only
// care about the recovered tally, not its governance effect.
type NopHook struct {
	Applied        []VoteAction
	CorrelationIDs []uuid.UUID
}

func (h *NopHook) Apply(correlationID uuid.UUID, action VoteAction) error {
	h.Applied = append(h.Applied, action)
	h.CorrelationIDs = append(h.CorrelationIDs, correlationID)
	return nil
}
