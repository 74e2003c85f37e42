// Package voteplan models a single vote plan's immutable definition and
// its per-plan state machine (voting -> tallying -> finished), grounded on
// the teacher's types.Process/Metadata CBOR layout and the same
// Feldman-committee concepts package committee exposes.
package voteplan

import (
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"github.com/iden3/go-iden3-crypto/poseidon"

	"github.com/vocdoni-labs/ballotcore/group"
)

// BlockDate is an opaque, monotonically increasing position in the host
// ledger's block sequence. The core only ever compares BlockDates; it
// never interprets them as wall-clock time.
type BlockDate uint64

// PayloadType selects whether a vote plan's ballots are homomorphically
// encrypted (Private) or counted in the clear (Public).
type PayloadType int

const (
	Public PayloadType = iota
	Private
)

func (p PayloadType) String() string {
	if p == Private {
		return "private"
	}
	return "public"
}

// Proposal is one question on a vote plan: a number of mutually exclusive
// options voters choose among.
type Proposal struct {
	Options int `cbor:"0,keyasint"`
}

// VotePlanId is a collision-resistant digest over a VotePlan's canonical
// serialization. It doubles as the SHVZK Fiat-Shamir domain separator and
// CRS seed (I3), so two vote plans must never collide even if they share
// every other field.
type VotePlanId [32]byte

func (id VotePlanId) Bytes() []byte { return id[:] }

func (id VotePlanId) String() string {
	return fmt.Sprintf("%x", id[:])
}

// VotePlan is the immutable record an external driver installs into the
// ledger: its lifecycle window, its proposals, and (for Private plans)
// the committee whose joint key ballots are encrypted under.
type VotePlan struct {
	VoteStart           BlockDate        `cbor:"0,keyasint"`
	VoteEnd             BlockDate        `cbor:"1,keyasint"`
	CommitteeEnd        BlockDate        `cbor:"2,keyasint"`
	Proposals           []Proposal       `cbor:"3,keyasint"`
	PayloadType         PayloadType      `cbor:"4,keyasint"`
	Threshold           int              `cbor:"5,keyasint"`
	CommitteePublicKeys []group.Element  `cbor:"-"`
}

// NewVotePlan validates and constructs a VotePlan, enforcing I1 (ordered
// lifecycle window) and I2 (Private plans carry at least one committee
// public key).
func NewVotePlan(voteStart, voteEnd, committeeEnd BlockDate, proposals []Proposal, payloadType PayloadType, threshold int, committeePublicKeys []group.Element) (VotePlan, error) {
	if voteStart > voteEnd || voteEnd > committeeEnd {
		return VotePlan{}, fmt.Errorf("voteplan: window must satisfy vote_start <= vote_end <= committee_end, got %d/%d/%d", voteStart, voteEnd, committeeEnd)
	}
	if len(proposals) == 0 {
		return VotePlan{}, fmt.Errorf("voteplan: at least one proposal is required")
	}
	if payloadType == Private && len(committeePublicKeys) == 0 {
		return VotePlan{}, fmt.Errorf("voteplan: private plan requires at least one committee public key")
	}
	if payloadType == Private && (threshold < 1 || threshold > len(committeePublicKeys)) {
		return VotePlan{}, fmt.Errorf("voteplan: private plan threshold %d must be in [1, %d]", threshold, len(committeePublicKeys))
	}
	out := make([]Proposal, len(proposals))
	copy(out, proposals)
	pks := make([]group.Element, len(committeePublicKeys))
	copy(pks, committeePublicKeys)
	return VotePlan{
		VoteStart:           voteStart,
		VoteEnd:             voteEnd,
		CommitteeEnd:        committeeEnd,
		Proposals:           out,
		PayloadType:         payloadType,
		Threshold:           threshold,
		CommitteePublicKeys: pks,
	}, nil
}

// canonicalFields is the cbor-serializable projection of VotePlan used for
// ID derivation. CommitteePublicKeys is folded in as raw bytes since
// group.Element does not itself implement cbor (un)marshaling.
type canonicalFields struct {
	VoteStart           BlockDate   `cbor:"0,keyasint"`
	VoteEnd             BlockDate   `cbor:"1,keyasint"`
	CommitteeEnd        BlockDate   `cbor:"2,keyasint"`
	Proposals           []Proposal  `cbor:"3,keyasint"`
	PayloadType         PayloadType `cbor:"4,keyasint"`
	Threshold           int         `cbor:"5,keyasint"`
	CommitteePublicKeys [][]byte    `cbor:"6,keyasint"`
}

// ID computes the VotePlanId: a Poseidon hash over the canonical CBOR
// encoding of every field, chunked into field elements the way the
// teacher's MultiPoseidon helper combines arbitrarily many inputs.
func (p VotePlan) ID() (VotePlanId, error) {
	pks := make([][]byte, len(p.CommitteePublicKeys))
	for i, pk := range p.CommitteePublicKeys {
		b := pk.Bytes()
		pks[i] = b[:]
	}
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		return VotePlanId{}, fmt.Errorf("voteplan: failed to build cbor encoder: %w", err)
	}
	data, err := mode.Marshal(canonicalFields{
		VoteStart:           p.VoteStart,
		VoteEnd:             p.VoteEnd,
		CommitteeEnd:        p.CommitteeEnd,
		Proposals:           p.Proposals,
		PayloadType:         p.PayloadType,
		Threshold:           p.Threshold,
		CommitteePublicKeys: pks,
	})
	if err != nil {
		return VotePlanId{}, fmt.Errorf("voteplan: failed to serialize plan: %w", err)
	}

	hash, err := multiPoseidon(fieldElements(data)...)
	if err != nil {
		return VotePlanId{}, fmt.Errorf("voteplan: failed to hash plan: %w", err)
	}
	var id VotePlanId
	hash.FillBytes(id[:])
	return id, nil
}

// fieldElementSize is chosen safely below the bn254 scalar field's byte
// width so every chunk fits without reduction.
const fieldElementSize = 31

// fieldElements splits b into fieldElementSize-byte big-endian chunks, the
// same chunking scheme the teacher's multiposeidon helper applies before
// hashing arbitrarily long input.
func fieldElements(b []byte) []*big.Int {
	if len(b) == 0 {
		return []*big.Int{big.NewInt(0)}
	}
	var out []*big.Int
	for i := 0; i < len(b); i += fieldElementSize {
		end := i + fieldElementSize
		if end > len(b) {
			end = len(b)
		}
		out = append(out, new(big.Int).SetBytes(b[i:end]))
	}
	return out
}

// poseidonChunkSize matches the teacher's MultiPoseidon: poseidon.Hash
// accepts at most 16 field elements at a time, so longer inputs are hashed
// in chunks and the chunk hashes combined with one final call.
const poseidonChunkSize = 16

func multiPoseidon(inputs ...*big.Int) (*big.Int, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("voteplan: no inputs to hash")
	}
	var hashes []*big.Int
	for i := 0; i < len(inputs); i += poseidonChunkSize {
		end := i + poseidonChunkSize
		if end > len(inputs) {
			end = len(inputs)
		}
		h, err := poseidon.Hash(inputs[i:end])
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	if len(hashes) == 1 {
		return hashes[0], nil
	}
	return poseidon.Hash(hashes)
}
