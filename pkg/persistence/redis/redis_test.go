package redis

import (
	"crypto/rand"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ESES-Labs/shadow-drop/pkg/persistence"
)

// newTestPersistence connects to a local Redis for integration testing.
// Set DROP_TEST_REDIS_ADDRESS to run these tests; they are skipped otherwise.
// Each test gets its own key prefix so runs do not interfere.
func newTestPersistence(t *testing.T) *RedisPersistence {
	t.Helper()

	address := os.Getenv("DROP_TEST_REDIS_ADDRESS")
	if address == "" {
		t.Skip("DROP_TEST_REDIS_ADDRESS not set, skipping Redis integration test")
	}

	var nonce [8]byte
	_, _ = rand.Read(nonce[:])

	rp, err := NewRedisPersistence(&RedisConfig{
		Address:   address,
		KeyPrefix: fmt.Sprintf("test:%x:", nonce),
	}, zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() { _ = rp.Close() })
	return rp
}

func randomNullifier() [32]byte {
	var n [32]byte
	_, _ = rand.Read(n[:])
	return n
}

// TestConfigValidation tests constructor argument checks (no server needed)
func TestConfigValidation(t *testing.T) {
	_, err := NewRedisPersistence(nil, zap.NewNop())
	require.Error(t, err)

	_, err = NewRedisPersistence(&RedisConfig{}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address")
}

// TestSaveAndLoadCampaign tests campaign record round-trip
func TestSaveAndLoadCampaign(t *testing.T) {
	rp := newTestPersistence(t)

	record := &persistence.CampaignRecord{
		ID:        "campaign-1",
		Name:      "test-campaign",
		Root:      randomNullifier(),
		Depth:     8,
		LeafCount: 7,
		CreatedAt: 100,
	}
	require.NoError(t, rp.SaveCampaign(record))

	loaded, err := rp.LoadCampaign("campaign-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, record, loaded)

	missing, err := rp.LoadCampaign("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// TestListCampaigns verifies the index set and creation-time ordering
func TestListCampaigns(t *testing.T) {
	rp := newTestPersistence(t)

	for _, c := range []struct {
		id        string
		createdAt int64
	}{
		{"b", 200},
		{"a", 100},
		{"c", 300},
	} {
		require.NoError(t, rp.SaveCampaign(&persistence.CampaignRecord{
			ID:        c.id,
			Name:      "test",
			CreatedAt: c.createdAt,
		}))
	}

	records, err := rp.ListCampaigns()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
	assert.Equal(t, "c", records[2].ID)
}

// TestSpendNullifier tests SETNX spend and replay rejection
func TestSpendNullifier(t *testing.T) {
	rp := newTestPersistence(t)

	n := randomNullifier()

	spent, err := rp.IsNullifierSpent("c1", n)
	require.NoError(t, err)
	assert.False(t, spent)

	require.NoError(t, rp.SpendNullifier("c1", n))

	spent, err = rp.IsNullifierSpent("c1", n)
	require.NoError(t, err)
	assert.True(t, spent)

	err = rp.SpendNullifier("c1", n)
	require.ErrorIs(t, err, persistence.ErrNullifierSpent)

	// Same nullifier under a different campaign is unspent
	spent, err = rp.IsNullifierSpent("c2", n)
	require.NoError(t, err)
	assert.False(t, spent)
}

// TestClosedOperations verifies operations fail after Close
func TestClosedOperations(t *testing.T) {
	rp := newTestPersistence(t)
	require.NoError(t, rp.Close())
	require.NoError(t, rp.Close()) // Idempotent

	require.Error(t, rp.SaveCampaign(&persistence.CampaignRecord{ID: "x"}))
	_, err := rp.LoadCampaign("x")
	require.Error(t, err)
	require.Error(t, rp.SpendNullifier("c1", randomNullifier()))
	require.Error(t, rp.HealthCheck())
}
