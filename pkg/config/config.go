package config

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for shadow-drop server configuration
const (
	EnvDropPort           = "DROP_PORT"
	EnvDropTreeDepth      = "DROP_TREE_DEPTH"
	EnvDropCampaignName   = "DROP_CAMPAIGN_NAME"
	EnvDropRecipientsFile = "DROP_RECIPIENTS_FILE"
	EnvDropPersistence    = "DROP_PERSISTENCE_TYPE"
	EnvDropBadgerPath     = "DROP_BADGER_PATH"
	EnvDropRedisAddress   = "DROP_REDIS_ADDRESS"
	EnvDropRedisPassword  = "DROP_REDIS_PASSWORD"
	EnvDropRedisDB        = "DROP_REDIS_DB"
	EnvDropVerbose        = "DROP_VERBOSE"
)

// PersistenceType selects the replay-prevention store backend.
type PersistenceType string

const (
	PersistenceMemory PersistenceType = "memory"
	PersistenceBadger PersistenceType = "badger"
	PersistenceRedis  PersistenceType = "redis"
)

// ServerConfig holds everything needed to build and serve a campaign.
type ServerConfig struct {
	Port           int
	TreeDepth      int
	CampaignName   string
	RecipientsFile string

	Persistence   PersistenceType
	BadgerPath    string
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	Verbose bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	var allErrors field.ErrorList

	if c.Port < 1 || c.Port > 65535 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("port"), c.Port, "port must be between 1-65535"))
	}
	if c.TreeDepth < 1 || c.TreeDepth > 31 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("treeDepth"), c.TreeDepth, "tree depth must be between 1-31"))
	}
	if c.RecipientsFile == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("recipientsFile"), "recipients file is required"))
	}

	switch c.Persistence {
	case PersistenceMemory:
		// No backend settings needed
	case PersistenceBadger:
		if c.BadgerPath == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("badgerPath"), "badger path is required for badger persistence"))
		}
	case PersistenceRedis:
		if c.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("redisAddress"), "redis address is required for redis persistence"))
		}
		if c.RedisDB < 0 || c.RedisDB > 15 {
			allErrors = append(allErrors, field.Invalid(field.NewPath("redisDB"), c.RedisDB, "redis DB must be between 0-15"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("persistence"), string(c.Persistence),
			[]string{string(PersistenceMemory), string(PersistenceBadger), string(PersistenceRedis)}))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// SupportedPersistenceTypesString returns persistence types for CLI help
func SupportedPersistenceTypesString() string {
	return fmt.Sprintf("%s, %s, %s", PersistenceMemory, PersistenceBadger, PersistenceRedis)
}
