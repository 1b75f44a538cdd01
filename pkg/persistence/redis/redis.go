package redis

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ESES-Labs/shadow-drop/pkg/persistence"
)

// Key prefixes for namespacing in Redis
const (
	keyPrefixCampaign    = "drop:campaign:"
	keyPrefixNullifier   = "drop:nullifier:"
	keySchemaVersion     = "drop:metadata:schema_version"
	currentSchemaVersion = "v1"

	// Key set for listing operations (Redis doesn't support prefix iteration natively)
	keySetCampaigns = "drop:campaigns:index"
)

// RedisPersistence is a production-ready persistence implementation using Redis.
// Suitable when several server replicas must agree on which nullifiers
// are spent: the spend check-and-set is a single SETNX, atomic across
// all clients.
type RedisPersistence struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string // Custom prefix for all keys
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix for all keys (for
	// multi-tenant setups). Prepended to the default "drop:" namespace.
	KeyPrefix string
}

// NewRedisPersistence creates a new Redis-backed persistence layer.
func NewRedisPersistence(cfg *RedisConfig, logger *zap.Logger) (*RedisPersistence, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	opts := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rp := &RedisPersistence{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	if err := rp.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Sugar().Infow("Redis persistence initialized", "address", cfg.Address, "db", cfg.DB)

	return rp, nil
}

// prefixKey adds the custom key prefix (if configured) to a key
func (r *RedisPersistence) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

// initSchema initializes or validates the schema version
func (r *RedisPersistence) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}

	return nil
}

// SaveCampaign persists a campaign record
func (r *RedisPersistence) SaveCampaign(record *persistence.CampaignRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil campaign record")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	ctx := context.Background()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal campaign record: %w", err)
	}

	// Store record and index membership in one pipeline
	key := r.prefixKey(keyPrefixCampaign + record.ID)
	indexKey := r.prefixKey(keySetCampaigns)
	pipe := r.client.Pipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, indexKey, record.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save campaign record: %w", err)
	}

	return nil
}

// LoadCampaign retrieves a campaign record by ID
func (r *RedisPersistence) LoadCampaign(id string) (*persistence.CampaignRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	ctx := context.Background()

	data, err := r.client.Get(ctx, r.prefixKey(keyPrefixCampaign+id)).Bytes()
	if err == redis.Nil {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign record: %w", err)
	}

	var record persistence.CampaignRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal campaign record: %w", err)
	}

	return &record, nil
}

// ListCampaigns returns all campaign records sorted by creation time
func (r *RedisPersistence) ListCampaigns() ([]*persistence.CampaignRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	ctx := context.Background()

	ids, err := r.client.SMembers(ctx, r.prefixKey(keySetCampaigns)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign index: %w", err)
	}

	records := make([]*persistence.CampaignRecord, 0, len(ids))
	for _, id := range ids {
		data, err := r.client.Get(ctx, r.prefixKey(keyPrefixCampaign+id)).Bytes()
		if err == redis.Nil {
			continue // Index entry without a record; skip
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load campaign %s: %w", id, err)
		}

		var record persistence.CampaignRecord
		if err := json.Unmarshal(data, &record); err != nil {
			r.logger.Sugar().Warnw("Failed to unmarshal campaign record, skipping",
				"campaign_id", id, "error", err)
			continue
		}

		records = append(records, &record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt < records[j].CreatedAt
	})

	return records, nil
}

// SpendNullifier atomically marks a nullifier as redeemed via SETNX.
func (r *RedisPersistence) SpendNullifier(campaignID string, nullifier [32]byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	ctx := context.Background()

	set, err := r.client.SetNX(ctx, r.nullifierKey(campaignID, nullifier), 1, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to spend nullifier: %w", err)
	}
	if !set {
		return persistence.ErrNullifierSpent
	}

	return nil
}

// IsNullifierSpent reports whether a nullifier was already redeemed
func (r *RedisPersistence) IsNullifierSpent(campaignID string, nullifier [32]byte) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false, fmt.Errorf("persistence layer is closed")
	}

	ctx := context.Background()

	n, err := r.client.Exists(ctx, r.nullifierKey(campaignID, nullifier)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check nullifier: %w", err)
	}

	return n > 0, nil
}

// Close shuts down the persistence layer
func (r *RedisPersistence) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil // Already closed, idempotent
	}
	r.closed = true

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis persistence closed")
	return nil
}

// HealthCheck verifies the persistence layer is operational
func (r *RedisPersistence) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

func (r *RedisPersistence) nullifierKey(campaignID string, nullifier [32]byte) string {
	return r.prefixKey(keyPrefixNullifier + campaignID + ":" + hex.EncodeToString(nullifier[:]))
}
