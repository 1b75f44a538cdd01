package server

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/ESES-Labs/shadow-drop/pkg/persistence"
	"github.com/ESES-Labs/shadow-drop/pkg/poseidon"
	"github.com/ESES-Labs/shadow-drop/pkg/types"
)

// handlePoseidonHash handles the /hash/poseidon endpoint.
// The arity check runs before any decoding or hashing; only 2 or 3
// inputs are accepted, matching the circuit's sponge IVs.
func (s *Server) handlePoseidonHash(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req types.HashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	if len(req.Inputs) != 2 && len(req.Inputs) != 3 {
		http.Error(w, "Only 2 or 3 inputs supported", http.StatusBadRequest)
		return
	}

	a, err := poseidon.DecodeField(req.Inputs[0])
	if err != nil {
		http.Error(w, fmt.Sprintf("Input 0: %v", err), http.StatusBadRequest)
		return
	}
	b, err := poseidon.DecodeField(req.Inputs[1])
	if err != nil {
		http.Error(w, fmt.Sprintf("Input 1: %v", err), http.StatusBadRequest)
		return
	}

	var out string
	if len(req.Inputs) == 2 {
		out = poseidon.EncodeField(s.hasher.Hash2(a, b))
	} else {
		c, err := poseidon.DecodeField(req.Inputs[2])
		if err != nil {
			http.Error(w, fmt.Sprintf("Input 2: %v", err), http.StatusBadRequest)
			return
		}
		out = poseidon.EncodeField(s.hasher.Hash3(a, b, c))
	}

	writeJSON(w, types.HashResponse{Hash: out})
}

// handleRoot returns the published campaign root.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, types.RootResponse{
		CampaignID: s.campaign.ID.String(),
		Root:       s.campaign.RootHex(),
		Depth:      s.campaign.Depth,
		LeafCount:  s.campaign.LeafCount(),
	})
}

// handleProof returns the inclusion proof and nullifier for a recipient.
func (s *Server) handleProof(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	identifier := r.URL.Query().Get("identifier")
	if identifier == "" {
		http.Error(w, "identifier is required", http.StatusBadRequest)
		return
	}

	proof, ok := s.campaign.Proof(identifier)
	if !ok {
		// Unknown recipient is an expected outcome, not a server error
		http.Error(w, "Unknown recipient", http.StatusNotFound)
		return
	}

	nullifier, _ := s.campaign.Nullifier(identifier)

	siblings := make([]string, len(proof.Siblings))
	for i, sib := range proof.Siblings {
		siblings[i] = hexutil.Encode(sib[:])
	}

	writeJSON(w, types.ProofResponse{
		LeafIndex: proof.LeafIndex,
		Siblings:  siblings,
		Leaf:      hexutil.Encode(proof.Leaf[:]),
		Nullifier: hexutil.Encode(nullifier[:]),
		Root:      s.campaign.RootHex(),
	})
}

// handleClaim spends a nullifier in the replay-prevention store.
func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req types.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	nullifier, err := decodeNullifier(req.Nullifier)
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid nullifier: %v", err), http.StatusBadRequest)
		return
	}

	campaignID := s.campaign.ID.String()
	if err := s.store.SpendNullifier(campaignID, nullifier); err != nil {
		if errors.Is(err, persistence.ErrNullifierSpent) {
			s.logger.Sugar().Infow("Rejected replayed claim",
				"campaign_id", campaignID, "nullifier", req.Nullifier)
			http.Error(w, "Nullifier already spent", http.StatusConflict)
			return
		}
		s.logger.Sugar().Errorw("Failed to spend nullifier", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	s.logger.Sugar().Infow("Nullifier spent", "campaign_id", campaignID, "nullifier", req.Nullifier)

	writeJSON(w, types.ClaimResponse{
		Status:    "claimed",
		Nullifier: req.Nullifier,
	})
}

// handleHealthz reports persistence health.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.HealthCheck(); err != nil {
		http.Error(w, fmt.Sprintf("Store unhealthy: %v", err), http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// decodeNullifier parses a 32-byte hex value, 0x prefix optional.
func decodeNullifier(s string) ([32]byte, error) {
	var out [32]byte

	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return out, err
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("got %d bytes, want 32", len(raw))
	}

	copy(out[:], raw)
	return out, nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
