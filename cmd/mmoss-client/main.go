// Command mmoss-client connects to an mmoss server and logs every replication
// event it applies.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/plus3/mmoss/client"
	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/examples/squares"
	"github.com/plus3/mmoss/logging"
	"github.com/plus3/mmoss/replication"
	"github.com/plus3/mmoss/transport"
	mquic "github.com/plus3/mmoss/transport/quic"
)

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func main() {
	addr := flag.String("addr", envOr("MMOSS_ADDR", "127.0.0.1:8080"), "Server address: host:port, tcp://, quic:// or ws:// URL.")
	rate := flag.Duration("rate", time.Second/60, "Interval between world updates.")
	insecure := flag.Bool("insecure", false, "Skip TLS verification for quic:// and wss:// servers.")
	verbose := flag.Bool("v", false, "Log every component update.")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewSlog(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	logging.SetDefault(logger)

	mobs, components, err := squares.ClientFactories()
	if err != nil {
		log.Fatalf("Failed to build factories: %v", err)
	}

	cfg := transport.DefaultConfig()
	if *insecure {
		cfg.TLS = mquic.InsecureClientTLS()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	world, err := client.New(ctx, mobs, components, *addr,
		client.WithLogger(logger),
		client.WithTransportConfig(cfg),
	)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer world.Close()

	callbacks := client.CallbackFuncs{
		Spawn: func(entity ecs.Entity, spawnId replication.SpawnId, mobType replication.MobType) {
			logger.Info("spawn", "entity", entity, "spawn_id", spawnId, "mob_type", mobType)
		},
		ComponentAdded: func(entity ecs.Entity, spawnId replication.SpawnId, componentType replication.ComponentType, id replication.Id) {
			logger.Info("component added", "entity", entity, "spawn_id", spawnId, "component_type", componentType, "id", id)
		},
		ComponentUpdated: func(entity ecs.Entity, spawnId replication.SpawnId, id replication.Id) {
			if t, err := world.Transform(entity); err == nil {
				logger.Debug("component updated", "entity", entity, "id", id, "x", t.Translation.X, "y", t.Translation.Y)
				return
			}
			logger.Debug("component updated", "entity", entity, "id", id)
		},
	}

	ticker := time.NewTicker(*rate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := world.Update(callbacks); err != nil {
				if errors.Is(err, client.ErrDisconnected) {
					logger.Info("server went away", "error", err)
					return
				}
				log.Fatalf("Update failed: %v", err)
			}
		}
	}
}
