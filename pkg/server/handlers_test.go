package server

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ESES-Labs/shadow-drop/pkg/campaign"
	"github.com/ESES-Labs/shadow-drop/pkg/logger"
	"github.com/ESES-Labs/shadow-drop/pkg/persistence/memory"
	"github.com/ESES-Labs/shadow-drop/pkg/poseidon"
	"github.com/ESES-Labs/shadow-drop/pkg/types"
)

var hashRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	var secretA, secretB [32]byte
	_, _ = rand.Read(secretA[:])
	_, _ = rand.Read(secretB[:])

	entries := []types.RecipientEntry{
		{Identifier: "walletA", Amount: 1.0, Secret: secretA},
		{Identifier: "walletB", Amount: 2.0, Secret: secretB},
	}

	hasher := poseidon.NewPoseidon2()
	camp, err := campaign.New("test", entries, 8, hasher)
	require.NoError(t, err)

	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	return NewServer(camp, memory.NewMemoryPersistence(), hasher, testLogger, 0)
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// TestHashEndpoint tests the circuit-compatible hashing boundary
func TestHashEndpoint(t *testing.T) {
	handler := newTestServer(t).GetHandler()

	t.Run("Two inputs", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/hash/poseidon",
			types.HashRequest{Inputs: []string{"0x01", "0x02"}})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp types.HashResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Regexp(t, hashRe, resp.Hash)
	})

	t.Run("Three inputs", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/hash/poseidon",
			types.HashRequest{Inputs: []string{"01", "02", "03"}})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp types.HashResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Regexp(t, hashRe, resp.Hash)
	})

	t.Run("Deterministic", func(t *testing.T) {
		req := types.HashRequest{Inputs: []string{"0x0a", "0x0b"}}
		rec1 := doJSON(t, handler, http.MethodPost, "/hash/poseidon", req)
		rec2 := doJSON(t, handler, http.MethodPost, "/hash/poseidon", req)
		require.Equal(t, rec1.Body.String(), rec2.Body.String())
	})

	t.Run("Wrong arity is rejected before hashing", func(t *testing.T) {
		for _, inputs := range [][]string{
			{},
			{"0x01"},
			{"0x01", "0x02", "0x03", "0x04"},
		} {
			rec := doJSON(t, handler, http.MethodPost, "/hash/poseidon",
				types.HashRequest{Inputs: inputs})
			assert.Equal(t, http.StatusBadRequest, rec.Code, "inputs: %v", inputs)
			assert.NotContains(t, rec.Body.String(), "hash")
		}
	})

	t.Run("Malformed hex names the failing input", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/hash/poseidon",
			types.HashRequest{Inputs: []string{"0x01", "not-hex"}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Input 1")
	})

	t.Run("GET is rejected", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/hash/poseidon", nil)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

// TestRootEndpoint tests root publication
func TestRootEndpoint(t *testing.T) {
	handler := newTestServer(t).GetHandler()

	rec := doJSON(t, handler, http.MethodGet, "/root", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp types.RootResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.CampaignID)
	assert.Len(t, resp.Root, 66) // 0x + 64 hex chars
	assert.Equal(t, 8, resp.Depth)
	assert.Equal(t, 2, resp.LeafCount)
}

// TestProofEndpoint tests proof retrieval
func TestProofEndpoint(t *testing.T) {
	handler := newTestServer(t).GetHandler()

	t.Run("Known recipient", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/proof?identifier=walletA", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp types.ProofResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 0, resp.LeafIndex)
		assert.Len(t, resp.Siblings, 8)
		assert.Len(t, resp.Nullifier, 66)
		assert.Len(t, resp.Leaf, 66)
	})

	t.Run("Unknown recipient is 404", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/proof?identifier=walletZ", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Missing identifier is 400", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/proof", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// TestClaimEndpoint tests nullifier spending and replay rejection
func TestClaimEndpoint(t *testing.T) {
	handler := newTestServer(t).GetHandler()

	// Fetch walletA's nullifier through the proof endpoint
	rec := doJSON(t, handler, http.MethodGet, "/proof?identifier=walletA", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var proof types.ProofResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &proof))

	t.Run("First claim succeeds", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/claim",
			types.ClaimRequest{Nullifier: proof.Nullifier})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp types.ClaimResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "claimed", resp.Status)
	})

	t.Run("Replay is 409", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/claim",
			types.ClaimRequest{Nullifier: proof.Nullifier})
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Malformed nullifier is 400", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/claim",
			types.ClaimRequest{Nullifier: "0x1234"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// TestHealthz tests the health endpoint
func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.GetHandler()

	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// A closed store is reported unhealthy
	require.NoError(t, srv.store.Close())
	rec = doJSON(t, handler, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
