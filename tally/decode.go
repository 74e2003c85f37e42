package tally

import (
	"fmt"

	"github.com/vocdoni-labs/ballotcore/group"
	"github.com/vocdoni-labs/ballotcore/voteerr"
)

// Result is the recovered per-option vote count. A nil entry means the
// count could not be recovered within the shared budget, not that the
// option received zero votes.
type Result struct {
	Votes   []*uint64
	Options [2]int // [start, end) index range covered by Votes
}

// Decode combines a subset of committee members' DecryptShares with the
// public TallyState and recovers the integer vote count for every option.
//
// Decryption is genuine t-of-N: every member's share lies on its own point
// (index, z) of the degree-(threshold-1) joint polynomial whose constant
// term is the election secret (committee.CombineFinalShare dealt it),
// never recoverable on its own. Decode reconstructs the value at x=0 via
// Lagrange interpolation in the exponent over the supplied shares' indices
// — the same combination the original CombinePartialDecryptions function
// performs. Given at least `threshold` distinct members' shares this
// recovers the correct result regardless of which members contributed;
// given fewer, reconstruction still runs but its output is undefined (not
// guaranteed nil) per the threshold-committee property — callers must not
// invoke Decode before collecting at least `threshold` shares.
//
// The search is the same two-stage small-table-then-giant-step algorithm
// the original chain-vote result() function uses: a table of the first
// tableSize multiples of the generator is checked directly, and if that
// fails the search takes steps of tableSize*g until the shared maxVotes
// budget is exhausted. Every option draws against the same budget, since
// the total number of ballots cast is bounded even though any single
// option is not.
func Decode(maxVotes uint64, tableSize int, state TallyState, shares []DecryptShare) (Result, error) {
	n := len(state.C2)
	indices := make([]int, len(shares))
	for i, sh := range shares {
		if len(sh.R1) != n {
			return Result{}, voteerr.NewUnscoped(voteerr.Contract, fmt.Errorf("tally: decrypt share %d has %d slots, tally state has %d", i, len(sh.R1), n))
		}
		indices[i] = sh.Index
	}
	lambdas, err := lagrangeCoefficients(indices)
	if err != nil {
		return Result{}, err
	}

	combined := make([]group.Element, n)
	for i := range combined {
		combined[i] = group.Zero()
	}
	for k, sh := range shares {
		lambda := lambdas[k]
		for j := 0; j < n; j++ {
			combined[j] = combined[j].Add(sh.R1[j].ScalarMul(lambda))
		}
	}

	table := group.Table(tableSize)
	step := group.Generator().ScalarMul(group.ScalarFromUint64(uint64(tableSize)))

	votes := make([]*uint64, n)
	remaining := maxVotes
	for j := 0; j < n; j++ {
		plain := state.C2[j].Sub(combined[j])
		if v, ok := discreteLog(plain, table, step, tableSize, remaining); ok {
			votes[j] = &v
			remaining -= v
		}
	}
	return Result{Votes: votes, Options: [2]int{0, n}}, nil
}

// lagrangeCoefficients computes, for each 1-based participant index in
// indices, the coefficient λ_i = product_{j != i} (-j)/(i-j) that
// reconstructs a polynomial's value at x=0 from its values at every index
// in indices, the same formula computeLagrangeCoefficients in the original
// threshold-ElGamal implementation uses.
func lagrangeCoefficients(indices []int) ([]group.Scalar, error) {
	out := make([]group.Scalar, len(indices))
	for a, i := range indices {
		num := group.ScalarFromUint64(1)
		den := group.ScalarFromUint64(1)
		for b, j := range indices {
			if a == b {
				continue
			}
			if i == j {
				return nil, voteerr.NewUnscoped(voteerr.Contract, fmt.Errorf("tally: duplicate participant index %d among decrypt shares", i))
			}
			num = num.Mul(group.ScalarFromUint64(uint64(j)).Neg())
			if i >= j {
				den = den.Mul(group.ScalarFromUint64(uint64(i - j)))
			} else {
				den = den.Mul(group.ScalarFromUint64(uint64(j - i)).Neg())
			}
		}
		inv, ok := den.Inverse()
		if !ok {
			return nil, voteerr.NewUnscoped(voteerr.Crypto, fmt.Errorf("tally: degenerate lagrange denominator for index %d", i))
		}
		out[a] = num.Mul(inv)
	}
	return out, nil
}

// discreteLog finds the smallest non-negative k <= budget with k*g ==
// point, searching the baby-step table first and then taking giant steps
// of tableSize*g at a time until the budget is exhausted.
func discreteLog(point group.Element, table []group.Element, step group.Element, tableSize int, budget uint64) (uint64, bool) {
	if point.IsZero() {
		return 0, true
	}
	cur := point
	for q := uint64(0); q*uint64(tableSize) <= budget; q++ {
		for r := 0; r < tableSize; r++ {
			if cur.Equal(table[r]) {
				total := q*uint64(tableSize) + uint64(r+1)
				if total <= budget {
					return total, true
				}
				return 0, false
			}
		}
		cur = cur.Sub(step)
	}
	return 0, false
}
