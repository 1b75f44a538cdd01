package merkle

// Hasher is the hash primitive the commitment tree is built over. Both
// arities must be backed by the same permutation, with the same domain
// separation, that the downstream circuit or verifier uses — a tree
// built over anything else produces proofs the verifier will reject.
//
// Inputs are byte strings interpreted big-endian and reduced into the
// primitive's 32-byte domain; outputs are always 32 bytes.
type Hasher interface {
	// Combine2 hashes two inputs. Used for tree nodes and nullifiers.
	Combine2(a, b []byte) [32]byte

	// Combine3 hashes three inputs. Used for leaf encoding.
	Combine3(a, b, c []byte) [32]byte
}

// MerkleTree is an immutable fixed-depth commitment tree over an airdrop
// recipient list. Safe for concurrent reads; the only way to change its
// content is to build a new one.
type MerkleTree struct {
	// nodes holds every level flattened: leaves first (2^depth of them,
	// padded with the zero sentinel), then each successive level, root
	// last. len(nodes) == 2^(depth+1) - 1.
	nodes [][32]byte

	// depth is the number of levels between a leaf and the root.
	depth int

	// leafCount is the number of real (non-sentinel) leaves.
	leafCount int

	// leafIndices maps recipient identifier to leaf position.
	leafIndices map[string]int
}

// MerkleProof is the sibling chain needed to recompute the root from one
// leaf. Siblings are ordered leaf-to-root and always have length equal
// to the tree depth.
type MerkleProof struct {
	// LeafIndex is the leaf position in [0, 2^depth).
	LeafIndex int

	// Leaf is the hash of the leaf being proven.
	Leaf [32]byte

	// Siblings[0] is the leaf's sibling, Siblings[depth-1] sits just
	// below the root.
	Siblings [][32]byte
}
