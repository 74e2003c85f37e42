// Package voteerr centralizes the error taxonomy the voting core surfaces:
// every class, Contract included, comes back as a *voteerr.Error; the core
// does not panic on Contract violations. Errors other than Contract ones
// wrap one of the sentinels below so callers can branch on them with
// errors.Is.
package voteerr

import (
	"errors"
	"fmt"
)

// Class is the error taxonomy from spec.md §7.
type Class int

const (
	// Contract marks API misuse: mismatched vector length, committee index
	// out of range. These are returned to the caller like every other
	// class; nothing in the core panics on them.
	Contract Class = iota
	// Crypto marks proof verification failure, malformed shares, or group
	// decode failure.
	Crypto
	// Temporal marks an operation attempted outside its allowed block-date
	// window.
	Temporal
	// Structural marks a vote-plan lifecycle violation: duplicate plan,
	// missing committee keys, finalize below threshold.
	Structural
	// NotFound marks an unknown plan id or out-of-range proposal index.
	NotFound
)

func (c Class) String() string {
	switch c {
	case Contract:
		return "contract"
	case Crypto:
		return "crypto"
	case Temporal:
		return "temporal"
	case Structural:
		return "structural"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Sentinels, checkable with errors.Is.
var (
	ErrVoteEndPassed            = errors.New("vote plan vote_end already passed")
	ErrVoteStartStartedAlready  = errors.New("vote plan vote_start already started")
	ErrMissingCommitteeMemberKey = errors.New("private vote plan missing committee member key")
	ErrPlanAlreadyExists        = errors.New("vote plan already exists")
	ErrPlanNotFound             = errors.New("vote plan not found")
	ErrProposalOutOfRange       = errors.New("proposal index out of range")
	ErrWrongVotePlan            = errors.New("vote cast references a different vote plan")
	ErrOutsideVotingWindow      = errors.New("block date outside voting window")
	ErrOutsideCommitteeWindow   = errors.New("block date outside committee window")
	ErrNotInVotingState         = errors.New("vote plan is not in the Voting state")
	ErrNotInTallyStartedState   = errors.New("vote plan is not in the TallyStarted state")
	ErrNotCommitteeMember       = errors.New("signer is not a committee member for this plan")
	ErrProofInvalid             = errors.New("SHVZK proof failed verification")
	ErrBelowThreshold           = errors.New("fewer decryption shares than the committee threshold")
	ErrDuplicateShare           = errors.New("committee member already submitted a decryption share")
	ErrMalformedShare           = errors.New("decryption share failed to decode")
)

// Error wraps a sentinel with the class it belongs to and, when the error is
// scoped to a vote plan, the plan id that produced it.
type Error struct {
	Class  Class
	PlanID fmt.Stringer // nil when not plan-scoped
	Reason error
}

func (e *Error) Error() string {
	if e.PlanID != nil {
		return fmt.Sprintf("voteplan %s: %s: %v", e.PlanID, e.Class, e.Reason)
	}
	return fmt.Sprintf("%s: %v", e.Class, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Reason
}

// New builds a plan-scoped error.
func New(class Class, planID fmt.Stringer, reason error) *Error {
	return &Error{Class: class, PlanID: planID, Reason: reason}
}

// NewUnscoped builds an error with no associated vote plan (e.g. a
// well-formedness failure caught before a plan id is known).
func NewUnscoped(class Class, reason error) *Error {
	return &Error{Class: class, Reason: reason}
}
