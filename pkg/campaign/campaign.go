// Package campaign ties one airdrop distribution together: the recipient
// list, the commitment tree built over it, and per-recipient proof and
// nullifier derivation. A campaign is built once and read-only after
// that; changing the recipient set means building a new campaign.
package campaign

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"

	"github.com/ESES-Labs/shadow-drop/pkg/merkle"
	"github.com/ESES-Labs/shadow-drop/pkg/types"
)

// Campaign is an immutable distribution snapshot.
type Campaign struct {
	ID    uuid.UUID
	Name  string
	Depth int

	entries map[string]types.RecipientEntry
	tree    *merkle.MerkleTree
	hasher  merkle.Hasher
}

// New builds the commitment tree for a recipient list and wraps it in a
// campaign. The hasher must be the same primitive the claim circuit
// uses.
func New(name string, entries []types.RecipientEntry, depth int, hasher merkle.Hasher) (*Campaign, error) {
	tree, err := merkle.BuildTree(entries, depth, hasher)
	if err != nil {
		return nil, err
	}

	byIdentifier := make(map[string]types.RecipientEntry, len(entries))
	for _, entry := range entries {
		byIdentifier[entry.Identifier] = entry
	}

	return &Campaign{
		ID:      uuid.New(),
		Name:    name,
		Depth:   depth,
		entries: byIdentifier,
		tree:    tree,
		hasher:  hasher,
	}, nil
}

// Root returns the published tree root.
func (c *Campaign) Root() [32]byte {
	return c.tree.Root()
}

// RootHex returns the root 0x-prefixed for transport and on-chain
// storage.
func (c *Campaign) RootHex() string {
	root := c.tree.Root()
	return hexutil.Encode(root[:])
}

// LeafCount returns the number of real recipients in the tree.
func (c *Campaign) LeafCount() int {
	return c.tree.LeafCount()
}

// Tree exposes the underlying commitment tree.
func (c *Campaign) Tree() *merkle.MerkleTree {
	return c.tree
}

// Proof returns the inclusion proof for a recipient. False when the
// identifier is not part of the campaign.
func (c *Campaign) Proof(identifier string) (*merkle.MerkleProof, bool) {
	return c.tree.GenerateProof(identifier)
}

// Nullifier derives the recipient's one-time claim tag from their
// secret and leaf position. False when the identifier is unknown.
func (c *Campaign) Nullifier(identifier string) ([32]byte, bool) {
	entry, ok := c.entries[identifier]
	if !ok {
		return [32]byte{}, false
	}
	leafIndex, ok := c.tree.LeafIndex(identifier)
	if !ok {
		return [32]byte{}, false
	}
	return merkle.Nullifier(c.hasher, entry.Secret, leafIndex), true
}

// Entry returns the recipient entry for an identifier.
func (c *Campaign) Entry(identifier string) (types.RecipientEntry, bool) {
	entry, ok := c.entries[identifier]
	return entry, ok
}
