package types

// HTTP message shapes for the shadow-drop server.
// All 32-byte values cross the wire as hex strings.

// HashRequest is the body of POST /hash/poseidon.
// Inputs are hex-encoded field elements, 0x prefix optional.
// Exactly 2 or 3 inputs are accepted.
type HashRequest struct {
	Inputs []string `json:"inputs"`
}

// HashResponse carries the sponge output as 64 zero-padded hex characters.
type HashResponse struct {
	Hash string `json:"hash"`
}

// RootResponse is the body of GET /root.
type RootResponse struct {
	CampaignID string `json:"campaign_id"`
	Root       string `json:"root"`
	Depth      int    `json:"depth"`
	LeafCount  int    `json:"leaf_count"`
}

// ProofResponse is the body of GET /proof. Siblings are ordered
// leaf-to-root and always have length == tree depth.
type ProofResponse struct {
	LeafIndex int      `json:"leaf_index"`
	Siblings  []string `json:"siblings"`
	Leaf      string   `json:"leaf"`
	Nullifier string   `json:"nullifier"`
	Root      string   `json:"root"`
}

// ClaimRequest is the body of POST /claim. The nullifier is spent in the
// replay-prevention store; a repeated nullifier is rejected.
type ClaimRequest struct {
	Nullifier string `json:"nullifier"`
}

// ClaimResponse acknowledges a spent nullifier.
type ClaimResponse struct {
	Status    string `json:"status"`
	Nullifier string `json:"nullifier"`
}
