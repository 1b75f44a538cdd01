package merkle

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ESES-Labs/shadow-drop/pkg/types"
)

// DefaultDepth supports 2^8 = 256 recipients.
const DefaultDepth = 8

// amountScale converts a token amount to the integer unit count that is
// committed to in the leaf (truncating). The circuit hashes the same
// scaled value.
const amountScale = 1_000_000_000

var (
	// ErrTooManyRecipients is returned when the entry list does not fit
	// in a tree of the requested depth.
	ErrTooManyRecipients = errors.New("recipient count exceeds tree capacity")

	// ErrDuplicateIdentifier is returned when two entries share an
	// identifier. A duplicate would leave one of the two leaves
	// unprovable, so construction refuses it outright.
	ErrDuplicateIdentifier = errors.New("duplicate recipient identifier")
)

// zeroHash is the padding sentinel for empty leaf slots: the literal 32
// zero bytes, not a hash of zero.
var zeroHash [32]byte

// BuildTree builds a fixed-depth commitment tree from a recipient list.
// Leaves keep the input order; slots beyond len(entries) are padded with
// the zero sentinel. The full node set is computed once, bottom-up, and
// the result is immutable.
func BuildTree(entries []types.RecipientEntry, depth int, hasher Hasher) (*MerkleTree, error) {
	if depth < 1 || depth > 31 {
		return nil, fmt.Errorf("tree depth %d out of range [1, 31]", depth)
	}

	capacity := 1 << depth
	if len(entries) > capacity {
		return nil, fmt.Errorf("%w: %d entries, capacity %d (depth %d)",
			ErrTooManyRecipients, len(entries), capacity, depth)
	}

	// Hash all leaves, preserving input order, and record each
	// identifier's position.
	leafIndices := make(map[string]int, len(entries))
	leaves := make([][32]byte, capacity)
	for i, entry := range entries {
		if _, exists := leafIndices[entry.Identifier]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateIdentifier, entry.Identifier)
		}
		leafIndices[entry.Identifier] = i
		leaves[i] = LeafHash(hasher, entry.Identifier, entry.Amount, entry.Secret)
	}
	// Remaining slots are already the zero sentinel.

	// Fold levels bottom-up into one flat node array: leaves first,
	// root last.
	nodes := make([][32]byte, 0, 2*capacity-1)
	nodes = append(nodes, leaves...)

	currentLevel := leaves
	for level := 0; level < depth; level++ {
		nextLevel := make([][32]byte, len(currentLevel)/2)
		for i := range nextLevel {
			left := currentLevel[2*i]
			right := currentLevel[2*i+1]
			nextLevel[i] = hasher.Combine2(left[:], right[:])
		}
		nodes = append(nodes, nextLevel...)
		currentLevel = nextLevel
	}

	if len(currentLevel) != 1 {
		return nil, fmt.Errorf("tree construction failed: final level has %d nodes instead of 1", len(currentLevel))
	}

	return &MerkleTree{
		nodes:       nodes,
		depth:       depth,
		leafCount:   len(entries),
		leafIndices: leafIndices,
	}, nil
}

// Root returns the tree root, the last node of the flat array.
func (mt *MerkleTree) Root() [32]byte {
	return mt.nodes[len(mt.nodes)-1]
}

// Depth returns the number of levels between a leaf and the root.
func (mt *MerkleTree) Depth() int {
	return mt.depth
}

// LeafCount returns the number of real (non-sentinel) leaves.
func (mt *MerkleTree) LeafCount() int {
	return mt.leafCount
}

// LeafIndex returns the leaf position for an identifier. The second
// return is false when the identifier is not in the tree.
func (mt *MerkleTree) LeafIndex(identifier string) (int, bool) {
	idx, ok := mt.leafIndices[identifier]
	return idx, ok
}

// GenerateProof returns the sibling chain for an identifier's leaf.
// An unknown identifier is a normal outcome, reported via the second
// return, not an error.
func (mt *MerkleTree) GenerateProof(identifier string) (*MerkleProof, bool) {
	leafIndex, ok := mt.leafIndices[identifier]
	if !ok {
		return nil, false
	}

	siblings := make([][32]byte, 0, mt.depth)
	idx := leafIndex
	levelStart := 0
	levelSize := 1 << mt.depth

	// Walk leaf to root: record the adjacent node at each level, then
	// move to the parent index at the next level's offset.
	for level := 0; level < mt.depth; level++ {
		siblingIdx := idx ^ 1
		siblings = append(siblings, mt.nodes[levelStart+siblingIdx])

		levelStart += levelSize
		levelSize /= 2
		idx /= 2
	}

	return &MerkleProof{
		LeafIndex: leafIndex,
		Leaf:      mt.nodes[leafIndex],
		Siblings:  siblings,
	}, true
}

// VerifyProof recomputes the root from a proof and compares it to the
// expected root. This mirrors what the external circuit or on-chain
// verifier does; the operand order at each step must match the builder's
// pairing exactly: the running hash goes left when the current index is
// even, right when odd.
func VerifyProof(hasher Hasher, proof *MerkleProof, root [32]byte) bool {
	if proof == nil {
		return false
	}

	current := proof.Leaf
	idx := proof.LeafIndex

	for _, sibling := range proof.Siblings {
		if idx%2 == 0 {
			current = hasher.Combine2(current[:], sibling[:])
		} else {
			current = hasher.Combine2(sibling[:], current[:])
		}
		idx /= 2
	}

	return current == root
}

// LeafHash encodes one recipient entry into a leaf:
// Combine3(identifier bytes, scaled amount as 8-byte little-endian,
// secret). The amount is multiplied by 1e9 and truncated, matching the
// unit count the claim circuit commits to.
func LeafHash(hasher Hasher, identifier string, amount float64, secret [32]byte) [32]byte {
	units := uint64(amount * amountScale)

	var amountBytes [8]byte
	binary.LittleEndian.PutUint64(amountBytes[:], units)

	return hasher.Combine3([]byte(identifier), amountBytes[:], secret[:])
}

// Nullifier derives the one-time claim tag for a leaf:
// Combine2(secret, leaf index as 8-byte little-endian). For a fixed
// secret, distinct indices give distinct nullifiers (up to hash
// collisions), so a replay store can treat one nullifier per claim as
// proof of prior redemption.
func Nullifier(hasher Hasher, secret [32]byte, leafIndex int) [32]byte {
	var indexBytes [8]byte
	binary.LittleEndian.PutUint64(indexBytes[:], uint64(leafIndex))

	return hasher.Combine2(secret[:], indexBytes[:])
}
