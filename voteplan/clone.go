package voteplan

import (
	"fmt"

	"github.com/vocdoni-labs/ballotcore/tally"
)

// Clone returns a deep copy of m whose internal maps and tallies share no
// mutable state with the receiver. The ledger calls Clone before applying
// any mutation so a reader holding an older Ledger snapshot never observes
// the in-progress update (spec.md §4.9, §5).
func (m *Manager) Clone() *Manager {
	clone := &Manager{
		Plan:   m.Plan,
		id:     m.id,
		Status: m.Status,
	}

	clone.Committee = make(map[CommitteeID]int, len(m.Committee))
	for k, v := range m.Committee {
		clone.Committee[k] = v
	}

	clone.castRecords = make(map[castKey]CastRecord, len(m.castRecords))
	for k, v := range m.castRecords {
		clone.castRecords[k] = v
	}

	if m.encryptedTallies != nil {
		clone.encryptedTallies = make([]*tally.EncryptedTally, len(m.encryptedTallies))
		for i, t := range m.encryptedTallies {
			n := m.Plan.Proposals[i].Options
			cloned, err := tally.TallyFromBytes(n, t.Bytes())
			if err != nil {
				panic(fmt.Sprintf("voteplan: tally round-trip failed during clone: %v", err))
			}
			clone.encryptedTallies[i] = cloned
		}
		clone.collectedShares = make(map[CommitteeID][]tally.DecryptShare, len(m.collectedShares))
		for k, v := range m.collectedShares {
			cp := make([]tally.DecryptShare, len(v))
			copy(cp, v)
			clone.collectedShares[k] = cp
		}
	}

	if m.publicCounts != nil {
		clone.publicCounts = make([]map[int]uint64, len(m.publicCounts))
		for i, counts := range m.publicCounts {
			cp := make(map[int]uint64, len(counts))
			for k, v := range counts {
				cp[k] = v
			}
			clone.publicCounts[i] = cp
		}
	}

	if m.results != nil {
		clone.results = make([]tally.Result, len(m.results))
		copy(clone.results, m.results)
	}

	return clone
}
