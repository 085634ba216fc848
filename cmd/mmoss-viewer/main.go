// Command mmoss-viewer draws the squares replicated by an mmoss server and
// overlays the replication inspector.
package main

import (
	"context"
	"errors"
	"flag"
	"image/color"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/plus3/mmoss/client"
	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/ecs/debugui"
	debugui_ebiten "github.com/plus3/mmoss/ecs/debugui/ebiten"
	"github.com/plus3/mmoss/examples/squares"
	"github.com/plus3/mmoss/logging"
	"github.com/plus3/mmoss/physics"
	"github.com/plus3/mmoss/transport"
	mquic "github.com/plus3/mmoss/transport/quic"
)

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

type sprite struct {
	x, y  float32
	color color.RGBA
}

// SpriteSystem copies square positions out of the storage for Draw, which
// ebiten may call between updates
type SpriteSystem struct {
	Squares ecs.Query[struct {
		*squares.RenderComponent
		*physics.DynamicActorProxy
	}]

	sprites []sprite
}

func (s *SpriteSystem) Execute(frame *ecs.UpdateFrame) {
	s.sprites = s.sprites[:0]
	for square := range s.Squares.Values() {
		t := square.DynamicActorProxy.Transform.Translation
		c := square.RenderComponent.Color
		s.sprites = append(s.sprites, sprite{
			x:     t.X,
			y:     t.Y,
			color: color.RGBA{R: c.R, G: c.G, B: c.B, A: 255},
		})
	}
}

type Game struct {
	world     *client.World
	events    *debugui.EventCounter
	scheduler *ecs.Scheduler
	sprites   *SpriteSystem
	backend   *debugui_ebiten.Backend
	logger    logging.Logger

	scale float32
	size  float32
}

func (g *Game) Update() error {
	g.backend.BeginFrame()
	defer g.backend.EndFrame()

	if err := g.world.Update(g.events); err != nil {
		if errors.Is(err, client.ErrDisconnected) {
			g.logger.Info("server went away", "error", err)
			return ebiten.Termination
		}
		return err
	}
	g.scheduler.Once(1.0 / float64(ebiten.TPS()))
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 24, G: 24, B: 32, A: 255})

	half := g.size / 2
	for _, s := range g.sprites.sprites {
		vector.DrawFilledRect(screen, s.x*g.scale-half, s.y*g.scale-half, g.size, g.size, s.color, false)
	}

	g.backend.Overlay(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.backend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

func main() {
	addr := flag.String("addr", envOr("MMOSS_ADDR", "127.0.0.1:8080"), "Server address: host:port, tcp://, quic:// or ws:// URL.")
	insecure := flag.Bool("insecure", false, "Skip TLS verification for quic:// and wss:// servers.")
	scale := flag.Float64("scale", 10, "Pixels per world unit.")
	size := flag.Float64("size", 12, "Square size in pixels.")
	width := flag.Int("width", 1280, "Window width.")
	height := flag.Int("height", 720, "Window height.")
	flag.Parse()

	logger := logging.NewSlog(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	logging.SetDefault(logger)

	mobs, components, err := squares.ClientFactories()
	if err != nil {
		log.Fatalf("Failed to build factories: %v", err)
	}

	cfg := transport.DefaultConfig()
	if *insecure {
		cfg.TLS = mquic.InsecureClientTLS()
	}

	world, err := client.New(context.Background(), mobs, components, *addr,
		client.WithLogger(logger),
		client.WithTransportConfig(cfg),
	)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer world.Close()

	backend := debugui_ebiten.New("mmoss viewer", *width, *height)

	events := debugui.NewEventCounter(nil)
	sprites := &SpriteSystem{}
	scheduler := ecs.NewScheduler(world.Storage())
	scheduler.Register(sprites)
	scheduler.Register(&debugui.InspectorSystem{Inspector: debugui.NewInspector(world, events)})

	game := &Game{
		world:     world,
		events:    events,
		scheduler: scheduler,
		sprites:   sprites,
		backend:   backend,
		logger:    logger,
		scale:     float32(*scale),
		size:      float32(*size),
	}
	if err := ebiten.RunGame(game); err != nil {
		log.Fatalf("Viewer stopped: %v", err)
	}
}
