package persistence

import "errors"

// ErrNullifierSpent is returned by SpendNullifier when the nullifier was
// already redeemed. Callers treat it as a replayed claim, not a storage
// failure.
var ErrNullifierSpent = errors.New("nullifier already spent")

// IClaimPersistence is the storage collaborator around the commitment
// core: it records published campaign roots and enforces one redemption
// per nullifier. All implementations must be thread-safe; claim traffic
// is concurrent.
//
// The core itself never touches storage — proofs and nullifiers are pure
// functions — so everything here is external bookkeeping.
type IClaimPersistence interface {
	// Campaign Records

	// SaveCampaign persists a campaign record indexed by campaign ID.
	// Overwrites any existing record with the same ID.
	SaveCampaign(record *CampaignRecord) error

	// LoadCampaign retrieves a campaign record by ID.
	// Returns nil if the record doesn't exist, error only on storage
	// failure.
	LoadCampaign(id string) (*CampaignRecord, error)

	// ListCampaigns returns all persisted campaign records sorted by
	// creation time (ascending). Returns an empty slice if none exist.
	ListCampaigns() ([]*CampaignRecord, error)

	// Nullifier Replay Prevention

	// SpendNullifier atomically marks a nullifier as redeemed for a
	// campaign. Returns ErrNullifierSpent if it was already redeemed;
	// any other error is a storage failure.
	SpendNullifier(campaignID string, nullifier [32]byte) error

	// IsNullifierSpent reports whether a nullifier was already redeemed.
	IsNullifierSpent(campaignID string, nullifier [32]byte) (bool, error)

	// Lifecycle Management

	// Close cleanly shuts down the persistence layer.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations should return errors.
	Close() error

	// HealthCheck verifies the persistence layer is operational.
	// Returns nil if healthy, error describing the problem if not.
	// Should be called during server startup to fail fast.
	HealthCheck() error
}
