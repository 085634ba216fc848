// Command mmoss-server runs a demo world of orbiting squares and replicates it
// to every client that connects.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/examples/squares"
	"github.com/plus3/mmoss/logging"
	"github.com/plus3/mmoss/physics"
	"github.com/plus3/mmoss/replication"
	"github.com/plus3/mmoss/replication/server"
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
	addr := flag.String("addr", envOr("MMOSS_ADDR", "127.0.0.1:8080"), "Listen address: host:port, tcp://, quic:// or ws://host:port/path.")
	tick := flag.Duration("tick", time.Second/30, "Interval between replication passes.")
	count := flag.Int("squares", 8, "Number of orbiting squares to spawn.")
	duration := flag.Duration("duration", 0, "Stop after this long. Zero runs until interrupted.")
	profileMode := flag.String("profile", "", "Write a cpu or mem profile to the working directory.")
	verbose := flag.Bool("v", false, "Enable debug logging.")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewSlog(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	logging.SetDefault(logger)

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		log.Fatalf("unknown profile mode %q", *profileMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	cfg := transport.DefaultConfig()
	cert, err := mquic.SelfSignedTLS()
	if err != nil {
		log.Fatalf("Failed to create TLS config: %v", err)
	}
	cfg.TLS = cert

	listener, err := transport.Listen(ctx, *addr, cfg)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", *addr, err)
	}
	defer listener.Close()
	logger.Info("listening", "addr", listener.Addr())

	registry := ecs.NewComponentRegistry()
	squares.RegisterComponents(registry)
	storage := ecs.NewStorage(registry)

	manager := server.NewManager(logger)
	defer manager.Close()
	go func() {
		if err := manager.Serve(ctx, listener); err != nil {
			logger.Error("accept loop failed", "error", err)
		}
	}()

	spawnSquares(storage, manager, *count)

	scheduler := ecs.NewScheduler(storage)
	scheduler.Register(&squares.OrbitSystem{Marker: manager})
	scheduler.Register(&server.ReplicationSystem{Manager: manager, Context: ctx})

	report := &Report{
		Addr:    listener.Addr().String(),
		Tick:    *tick,
		Squares: *count,
	}
	runtime.ReadMemStats(&report.MemStatsStart)
	start := time.Now()

	scheduler.Run(ctx, *tick)

	report.TotalTime = time.Since(start)
	report.Clients = len(manager.Clients())
	report.Scheduler = scheduler.Stats()
	runtime.ReadMemStats(&report.MemStatsEnd)

	fmt.Println("\n--- Server Report ---")
	if err := report.Generate(os.Stdout); err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}
}

// spawnSquares places count squares on concentric orbits around the middle of
// a 60x60 plane
func spawnSquares(storage *ecs.Storage, manager *server.Manager, count int) {
	var id replication.Id = 1
	for i := range count {
		transform := physics.IdentityTransform()
		color := squares.Color{R: uint8(rand.IntN(256)), G: uint8(rand.IntN(256)), B: uint8(rand.IntN(256))}
		entity := squares.SpawnSquare(storage, id, transform, id+1, color)
		id += 2

		orbit := squares.Orbit{
			CenterX: 30,
			CenterY: 30,
			Radius:  float32(5 + 3*i),
			Speed:   float32(math.Pi / float64(2+i)),
			Angle:   rand.Float32() * 2 * math.Pi,
		}
		if err := storage.AddComponent(entity, orbit); err != nil {
			log.Fatalf("Failed to add orbit: %v", err)
		}
		manager.RegisterNewEntity(entity)
	}
}
