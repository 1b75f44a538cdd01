package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ESES-Labs/shadow-drop/pkg/persistence"
)

// MemoryPersistence is an in-memory implementation of IClaimPersistence.
// This implementation is intended for TESTING ONLY.
//
// All data is stored in memory and will be lost when the process exits —
// including spent nullifiers, which means claims become replayable after
// a restart. Thread-safe using sync.RWMutex.
type MemoryPersistence struct {
	mu sync.RWMutex

	// Campaign storage: campaign ID -> record
	campaigns map[string]*persistence.CampaignRecord

	// Spent nullifiers: campaign ID -> nullifier set
	spent map[string]map[[32]byte]struct{}

	closed bool
}

// NewMemoryPersistence creates a new in-memory persistence layer.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{
		campaigns: make(map[string]*persistence.CampaignRecord),
		spent:     make(map[string]map[[32]byte]struct{}),
	}
}

// SaveCampaign persists a campaign record.
func (m *MemoryPersistence) SaveCampaign(record *persistence.CampaignRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil campaign record")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	m.campaigns[record.ID] = record.Clone()
	return nil
}

// LoadCampaign retrieves a campaign record by ID.
func (m *MemoryPersistence) LoadCampaign(id string) (*persistence.CampaignRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	return m.campaigns[id].Clone(), nil
}

// ListCampaigns returns all campaign records sorted by creation time.
func (m *MemoryPersistence) ListCampaigns() ([]*persistence.CampaignRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	records := make([]*persistence.CampaignRecord, 0, len(m.campaigns))
	for _, record := range m.campaigns {
		records = append(records, record.Clone())
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt < records[j].CreatedAt
	})

	return records, nil
}

// SpendNullifier marks a nullifier as redeemed, rejecting replays.
func (m *MemoryPersistence) SpendNullifier(campaignID string, nullifier [32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	set, ok := m.spent[campaignID]
	if !ok {
		set = make(map[[32]byte]struct{})
		m.spent[campaignID] = set
	}

	if _, spent := set[nullifier]; spent {
		return persistence.ErrNullifierSpent
	}

	set[nullifier] = struct{}{}
	return nil
}

// IsNullifierSpent reports whether a nullifier was already redeemed.
func (m *MemoryPersistence) IsNullifierSpent(campaignID string, nullifier [32]byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false, fmt.Errorf("persistence layer is closed")
	}

	_, spent := m.spent[campaignID][nullifier]
	return spent, nil
}

// Close shuts down the persistence layer.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the persistence layer is operational.
func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}
	return nil
}
