package persistence

// CampaignRecord is the durable summary of one distribution: enough to
// re-announce the published root and sanity-check proofs against it
// after a restart. Recipient secrets are deliberately not part of the
// record.
type CampaignRecord struct {
	// ID is the campaign UUID.
	ID string `json:"id"`

	// Name is the operator-facing campaign label.
	Name string `json:"name"`

	// Root is the published merkle root.
	Root [32]byte `json:"root"`

	// Depth is the tree depth the campaign was built with.
	Depth int `json:"depth"`

	// LeafCount is the number of real recipients.
	LeafCount int `json:"leaf_count"`

	// CreatedAt is the build time as a unix timestamp.
	CreatedAt int64 `json:"created_at"`
}

// Clone returns a deep copy so stored records can't be mutated through
// shared pointers.
func (r *CampaignRecord) Clone() *CampaignRecord {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}
