package memory

import (
	"crypto/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ESES-Labs/shadow-drop/pkg/persistence"
)

func randomNullifier() [32]byte {
	var n [32]byte
	_, _ = rand.Read(n[:])
	return n
}

func sampleRecord(id string, createdAt int64) *persistence.CampaignRecord {
	return &persistence.CampaignRecord{
		ID:        id,
		Name:      "test-campaign",
		Root:      randomNullifier(),
		Depth:     8,
		LeafCount: 42,
		CreatedAt: createdAt,
	}
}

// TestSaveAndLoadCampaign tests campaign record round-trip
func TestSaveAndLoadCampaign(t *testing.T) {
	m := NewMemoryPersistence()
	defer func() { _ = m.Close() }()

	record := sampleRecord("campaign-1", 100)
	require.NoError(t, m.SaveCampaign(record))

	loaded, err := m.LoadCampaign("campaign-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, record, loaded)

	// Mutating the loaded copy must not affect the stored record
	loaded.Name = "mutated"
	again, err := m.LoadCampaign("campaign-1")
	require.NoError(t, err)
	assert.Equal(t, "test-campaign", again.Name)
}

// TestLoadMissingCampaign verifies absence is nil, not an error
func TestLoadMissingCampaign(t *testing.T) {
	m := NewMemoryPersistence()
	defer func() { _ = m.Close() }()

	loaded, err := m.LoadCampaign("nope")
	require.NoError(t, err)
	require.Nil(t, loaded)
}

// TestListCampaigns verifies sorting by creation time
func TestListCampaigns(t *testing.T) {
	m := NewMemoryPersistence()
	defer func() { _ = m.Close() }()

	require.NoError(t, m.SaveCampaign(sampleRecord("b", 200)))
	require.NoError(t, m.SaveCampaign(sampleRecord("a", 100)))
	require.NoError(t, m.SaveCampaign(sampleRecord("c", 300)))

	records, err := m.ListCampaigns()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
	assert.Equal(t, "c", records[2].ID)
}

// TestSpendNullifier tests spend and replay rejection
func TestSpendNullifier(t *testing.T) {
	m := NewMemoryPersistence()
	defer func() { _ = m.Close() }()

	n := randomNullifier()

	spent, err := m.IsNullifierSpent("c1", n)
	require.NoError(t, err)
	assert.False(t, spent)

	require.NoError(t, m.SpendNullifier("c1", n))

	spent, err = m.IsNullifierSpent("c1", n)
	require.NoError(t, err)
	assert.True(t, spent)

	// Replay
	err = m.SpendNullifier("c1", n)
	require.ErrorIs(t, err, persistence.ErrNullifierSpent)

	// Campaigns are isolated
	spent, err = m.IsNullifierSpent("c2", n)
	require.NoError(t, err)
	assert.False(t, spent)
}

// TestConcurrentSpend verifies exactly one of many concurrent claims wins
func TestConcurrentSpend(t *testing.T) {
	m := NewMemoryPersistence()
	defer func() { _ = m.Close() }()

	n := randomNullifier()

	const claimers = 16
	var wg sync.WaitGroup
	results := make(chan error, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- m.SpendNullifier("c1", n)
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, persistence.ErrNullifierSpent)
		}
	}
	assert.Equal(t, 1, succeeded)
}

// TestClosedOperations verifies all operations fail after Close
func TestClosedOperations(t *testing.T) {
	m := NewMemoryPersistence()
	require.NoError(t, m.Close())
	require.NoError(t, m.Close()) // Idempotent

	require.Error(t, m.SaveCampaign(sampleRecord("x", 1)))
	_, err := m.LoadCampaign("x")
	require.Error(t, err)
	_, err = m.ListCampaigns()
	require.Error(t, err)
	require.Error(t, m.SpendNullifier("c1", randomNullifier()))
	_, err = m.IsNullifierSpent("c1", randomNullifier())
	require.Error(t, err)
	require.Error(t, m.HealthCheck())
}
