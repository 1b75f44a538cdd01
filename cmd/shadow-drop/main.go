package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/ESES-Labs/shadow-drop/pkg/campaign"
	"github.com/ESES-Labs/shadow-drop/pkg/config"
	"github.com/ESES-Labs/shadow-drop/pkg/logger"
	"github.com/ESES-Labs/shadow-drop/pkg/merkle"
	"github.com/ESES-Labs/shadow-drop/pkg/persistence"
	badgerstore "github.com/ESES-Labs/shadow-drop/pkg/persistence/badger"
	"github.com/ESES-Labs/shadow-drop/pkg/persistence/memory"
	redisstore "github.com/ESES-Labs/shadow-drop/pkg/persistence/redis"
	"github.com/ESES-Labs/shadow-drop/pkg/poseidon"
	"github.com/ESES-Labs/shadow-drop/pkg/server"
)

func main() {
	app := &cli.App{
		Name:  "shadow-drop",
		Usage: "Privacy-preserving airdrop commitment server",
		Description: `Builds a fixed-depth Poseidon2 merkle commitment over a recipient
list and serves inclusion proofs, nullifiers and circuit-compatible
hashing over HTTP.

The published root commits to every (recipient, amount, secret) entry;
claimants prove membership to an external ZK circuit or on-chain
verifier without revealing which entry is theirs. Spent nullifiers are
tracked in a pluggable replay-prevention store.`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   8000,
				Usage:   "HTTP server port",
				EnvVars: []string{config.EnvDropPort},
			},
			&cli.IntFlag{
				Name:    "depth",
				Aliases: []string{"d"},
				Value:   merkle.DefaultDepth,
				Usage:   "Tree depth D (capacity 2^D recipients)",
				EnvVars: []string{config.EnvDropTreeDepth},
			},
			&cli.StringFlag{
				Name:    "name",
				Value:   "default",
				Usage:   "Campaign name",
				EnvVars: []string{config.EnvDropCampaignName},
			},
			&cli.StringFlag{
				Name:     "recipients",
				Aliases:  []string{"r"},
				Usage:    "Path to the recipients JSON file",
				EnvVars:  []string{config.EnvDropRecipientsFile},
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "write-secrets",
				Usage: "Write generated secrets back to the recipients file",
			},
			&cli.StringFlag{
				Name:    "persistence",
				Value:   string(config.PersistenceMemory),
				Usage:   fmt.Sprintf("Replay store backend: %s", config.SupportedPersistenceTypesString()),
				EnvVars: []string{config.EnvDropPersistence},
			},
			&cli.StringFlag{
				Name:    "badger-path",
				Value:   "./data/shadow-drop",
				Usage:   "Badger data directory (badger persistence)",
				EnvVars: []string{config.EnvDropBadgerPath},
			},
			&cli.StringFlag{
				Name:    "redis-address",
				Usage:   "Redis address host:port (redis persistence)",
				EnvVars: []string{config.EnvDropRedisAddress},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password (redis persistence)",
				EnvVars: []string{config.EnvDropRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Value:   0,
				Usage:   "Redis database number (redis persistence)",
				EnvVars: []string{config.EnvDropRedisDB},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvDropVerbose},
			},
		},
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runServer(c *cli.Context) error {
	cfg := &config.ServerConfig{
		Port:           c.Int("port"),
		TreeDepth:      c.Int("depth"),
		CampaignName:   c.String("name"),
		RecipientsFile: c.String("recipients"),
		Persistence:    config.PersistenceType(c.String("persistence")),
		BadgerPath:     c.String("badger-path"),
		RedisAddress:   c.String("redis-address"),
		RedisPassword:  c.String("redis-password"),
		RedisDB:        c.Int("redis-db"),
		Verbose:        c.Bool("verbose"),
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	appLogger, err := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Verbose})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = appLogger.Sync() }()

	// Load the recipient list; missing secrets are generated from the
	// CSPRNG during load.
	entries, err := campaign.LoadRecipients(cfg.RecipientsFile)
	if err != nil {
		return err
	}
	if c.Bool("write-secrets") {
		if err := campaign.WriteRecipients(cfg.RecipientsFile, entries); err != nil {
			return err
		}
	}

	hasher := poseidon.NewPoseidon2()
	camp, err := campaign.New(cfg.CampaignName, entries, cfg.TreeDepth, hasher)
	if err != nil {
		return fmt.Errorf("failed to build campaign: %w", err)
	}

	store, err := newStore(cfg, appLogger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.HealthCheck(); err != nil {
		return fmt.Errorf("persistence health check failed: %w", err)
	}

	record := &persistence.CampaignRecord{
		ID:        camp.ID.String(),
		Name:      camp.Name,
		Root:      camp.Root(),
		Depth:     camp.Depth,
		LeafCount: camp.LeafCount(),
		CreatedAt: time.Now().Unix(),
	}
	if err := store.SaveCampaign(record); err != nil {
		return fmt.Errorf("failed to persist campaign record: %w", err)
	}

	appLogger.Sugar().Infow("Campaign built",
		"campaign_id", camp.ID.String(),
		"name", camp.Name,
		"root", camp.RootHex(),
		"depth", camp.Depth,
		"recipients", camp.LeafCount(),
	)

	srv := server.NewServer(camp, store, hasher, appLogger, cfg.Port)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	// Run until interrupted
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	appLogger.Sugar().Infow("Shutting down", "signal", sig.String())
	return srv.Stop()
}

func newStore(cfg *config.ServerConfig, appLogger *zap.Logger) (persistence.IClaimPersistence, error) {
	switch cfg.Persistence {
	case config.PersistenceBadger:
		return badgerstore.NewBadgerPersistence(cfg.BadgerPath, appLogger)
	case config.PersistenceRedis:
		return redisstore.NewRedisPersistence(&redisstore.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, appLogger)
	default:
		appLogger.Sugar().Warn("Using in-memory persistence - spent nullifiers will be lost on restart")
		return memory.NewMemoryPersistence(), nil
	}
}
