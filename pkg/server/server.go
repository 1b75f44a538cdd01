package server

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ESES-Labs/shadow-drop/pkg/campaign"
	"github.com/ESES-Labs/shadow-drop/pkg/persistence"
	"github.com/ESES-Labs/shadow-drop/pkg/poseidon"
)

/*
Server exposes one distribution campaign over HTTP.

Claim Flow:
  GET /root:
    - Returns the published campaign root, depth and leaf count
    - Claimants need the root to build their circuit witness

  GET /proof?identifier=X:
    - Returns the inclusion proof (leafIndex, siblings, leaf) and the
      recipient's nullifier
    - 404 for identifiers outside the campaign (a normal outcome, not a
      server fault)

  POST /claim:
    - Request: { nullifier }
    - Spends the nullifier in the replay-prevention store
    - 409 when the nullifier was already redeemed

  POST /hash/poseidon:
    - Circuit-compatible Poseidon2 sponge over 2 or 3 hex inputs
    - Lets external tooling (witness builders, verifiers) hash with
      exactly the tree's primitive

Proof verification itself is NOT served here: the verifier is the ZK
circuit or on-chain contract consuming these payloads.
*/

// Server handles HTTP requests for a campaign
type Server struct {
	campaign   *campaign.Campaign
	store      persistence.IClaimPersistence
	hasher     *poseidon.Poseidon2
	logger     *zap.Logger
	httpServer *http.Server
}

// NewServer creates a new server instance
func NewServer(c *campaign.Campaign, store persistence.IClaimPersistence, hasher *poseidon.Poseidon2, logger *zap.Logger, port int) *Server {
	s := &Server{
		campaign: c,
		store:    store,
		hasher:   hasher,
		logger:   logger,
	}

	mux := http.NewServeMux()

	// Hashing endpoint
	mux.HandleFunc("/hash/poseidon", s.handlePoseidonHash)

	// Campaign endpoints
	mux.HandleFunc("/root", s.handleRoot)
	mux.HandleFunc("/proof", s.handleProof)
	mux.HandleFunc("/claim", s.handleClaim)

	// Health endpoint
	mux.HandleFunc("/healthz", s.handleHealthz)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go func() {
		s.logger.Sugar().Infow("Starting HTTP server",
			"campaign_id", s.campaign.ID.String(), "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Sugar().Errorw("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop() error {
	return s.httpServer.Close()
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}
