package ledger

import (
	"encoding/binary"
	"math/bits"

	"github.com/vocdoni-labs/ballotcore/voteplan"
)

// This file implements the persistent, structurally-shared hash-array-
// mapped trie (HAMT) spec.md §9 requires in place of a native one: a
// 32-way (5 bits/level) bitmap-indexed trie over VotePlanId, built from
// copy-on-write nodes so an old root and every node it reaches keep
// pointing at exactly the data they did when snapshotted (P6), while the
// Go garbage collector retires nodes no live root still reaches — the
// reference counting §9 asks for, for free.
//
// VotePlanId is already a collision-resistant Poseidon digest (§4/I3), so
// its first 4 bytes serve directly as the trie's 32-bit hash without a
// further hashing pass.

const (
	hamtBitsPerLevel = 5
	hamtBucketSize   = 1 << hamtBitsPerLevel
	hamtIndexMask    = hamtBucketSize - 1
	// hamtMaxLevel is the first level at which a 32-bit hash has no bits
	// left to branch on (ceil(32/5)); levels at or past it fall back to
	// an unordered collision bucket instead of another bitmap node.
	hamtMaxLevel = 7
)

// hamtLeaf is one (id, manager) pair stored at a trie position.
type hamtLeaf struct {
	id  voteplan.VotePlanId
	mgr *voteplan.Manager
}

// hamtBucket holds every leaf whose hash is identical once hamtMaxLevel is
// reached; membership is checked by full VotePlanId equality, not hash.
type hamtBucket struct {
	leaves []hamtLeaf
}

// hamtNode is a bitmap-indexed internal node: bit i of bitmap set means
// this node has a child for index i, stored at position
// popcount(bitmap & (1<<i - 1)) in children. A child is one of nil,
// *hamtLeaf, *hamtBucket, or *hamtNode.
type hamtNode struct {
	bitmap   uint32
	children []any
}

func hamtHash(id voteplan.VotePlanId) uint32 {
	return binary.BigEndian.Uint32(id[:4])
}

func hamtIndex(hash uint32, level int) int {
	return int((hash >> uint(level*hamtBitsPerLevel)) & hamtIndexMask)
}

// hamtGet looks up id starting from root (which may be nil, a *hamtLeaf,
// a *hamtBucket, or a *hamtNode).
func hamtGet(root any, id voteplan.VotePlanId, hash uint32, level int) (*voteplan.Manager, bool) {
	switch n := root.(type) {
	case nil:
		return nil, false
	case *hamtLeaf:
		if n.id == id {
			return n.mgr, true
		}
		return nil, false
	case *hamtBucket:
		for _, lf := range n.leaves {
			if lf.id == id {
				return lf.mgr, true
			}
		}
		return nil, false
	case *hamtNode:
		idx := hamtIndex(hash, level)
		bit := uint32(1) << uint(idx)
		if n.bitmap&bit == 0 {
			return nil, false
		}
		pos := bits.OnesCount32(n.bitmap & (bit - 1))
		return hamtGet(n.children[pos], id, hash, level+1)
	default:
		panic("ledger: unreachable hamt node type")
	}
}

// hamtInsert returns a new root with (id, mgr) installed, replacing any
// existing entry for id. root and every node it reaches are left
// untouched: every node on the path to id is copied, everything off that
// path is shared by reference with the previous root.
func hamtInsert(root any, id voteplan.VotePlanId, hash uint32, mgr *voteplan.Manager, level int) any {
	if level >= hamtMaxLevel {
		return hamtInsertBucket(root, id, mgr)
	}

	switch n := root.(type) {
	case nil:
		return &hamtLeaf{id: id, mgr: mgr}
	case *hamtLeaf:
		if n.id == id {
			return &hamtLeaf{id: id, mgr: mgr}
		}
		return hamtMergeLeaves(n, &hamtLeaf{id: id, mgr: mgr}, hamtHash(n.id), hash, level)
	case *hamtNode:
		idx := hamtIndex(hash, level)
		bit := uint32(1) << uint(idx)
		pos := bits.OnesCount32(n.bitmap & (bit - 1))
		if n.bitmap&bit != 0 {
			children := make([]any, len(n.children))
			copy(children, n.children)
			children[pos] = hamtInsert(n.children[pos], id, hash, mgr, level+1)
			return &hamtNode{bitmap: n.bitmap, children: children}
		}
		children := make([]any, 0, len(n.children)+1)
		children = append(children, n.children[:pos]...)
		children = append(children, &hamtLeaf{id: id, mgr: mgr})
		children = append(children, n.children[pos:]...)
		return &hamtNode{bitmap: n.bitmap | bit, children: children}
	default:
		panic("ledger: unreachable hamt node type")
	}
}

// hamtInsertBucket handles insertion once hamtMaxLevel has exhausted every
// hash bit: root is nil, a single *hamtLeaf, or a *hamtBucket.
func hamtInsertBucket(root any, id voteplan.VotePlanId, mgr *voteplan.Manager) any {
	switch n := root.(type) {
	case nil:
		return &hamtLeaf{id: id, mgr: mgr}
	case *hamtLeaf:
		if n.id == id {
			return &hamtLeaf{id: id, mgr: mgr}
		}
		return &hamtBucket{leaves: []hamtLeaf{{id: n.id, mgr: n.mgr}, {id: id, mgr: mgr}}}
	case *hamtBucket:
		leaves := make([]hamtLeaf, 0, len(n.leaves)+1)
		replaced := false
		for _, lf := range n.leaves {
			if lf.id == id {
				leaves = append(leaves, hamtLeaf{id: id, mgr: mgr})
				replaced = true
			} else {
				leaves = append(leaves, lf)
			}
		}
		if !replaced {
			leaves = append(leaves, hamtLeaf{id: id, mgr: mgr})
		}
		return &hamtBucket{leaves: leaves}
	default:
		panic("ledger: unreachable hamt node type")
	}
}

// hamtMergeLeaves builds the subtrie holding two distinct leaves that
// landed on the same slot at level, descending one level at a time until
// their hashes diverge (or hamtMaxLevel forces a collision bucket).
func hamtMergeLeaves(a, b *hamtLeaf, hashA, hashB uint32, level int) any {
	if level >= hamtMaxLevel {
		return &hamtBucket{leaves: []hamtLeaf{{id: a.id, mgr: a.mgr}, {id: b.id, mgr: b.mgr}}}
	}
	idxA := hamtIndex(hashA, level)
	idxB := hamtIndex(hashB, level)
	if idxA == idxB {
		child := hamtMergeLeaves(a, b, hashA, hashB, level+1)
		return &hamtNode{bitmap: uint32(1) << uint(idxA), children: []any{child}}
	}
	bitmap := uint32(1)<<uint(idxA) | uint32(1)<<uint(idxB)
	if idxA < idxB {
		return &hamtNode{bitmap: bitmap, children: []any{a, b}}
	}
	return &hamtNode{bitmap: bitmap, children: []any{b, a}}
}
