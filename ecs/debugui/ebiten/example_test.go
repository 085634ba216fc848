package ebiten_test

import (
	"context"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/plus3/mmoss/client"
	"github.com/plus3/mmoss/ecs"
	"github.com/plus3/mmoss/ecs/debugui"
	debugui_ebiten "github.com/plus3/mmoss/ecs/debugui/ebiten"
	"github.com/plus3/mmoss/examples/squares"
)

// Game applies replicated updates and renders the inspector over them
type Game struct {
	world     *client.World
	events    *debugui.EventCounter
	scheduler *ecs.Scheduler
	backend   *debugui_ebiten.Backend
}

func (g *Game) Update() error {
	g.backend.BeginFrame()
	if err := g.world.Update(g.events); err != nil {
		return err
	}
	g.scheduler.Once(1.0 / 60.0)
	g.backend.EndFrame()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.backend.Overlay(screen)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.backend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

func Example() {
	backend := debugui_ebiten.New("mmoss inspector", 1280, 720)

	mobFactory, componentFactory, err := squares.ClientFactories()
	if err != nil {
		log.Fatal(err)
	}

	world, err := client.New(context.Background(), mobFactory, componentFactory, "127.0.0.1:8080")
	if err != nil {
		log.Fatal(err)
	}
	defer world.Close()

	events := debugui.NewEventCounter(nil)
	scheduler := ecs.NewScheduler(ecs.NewStorage(ecs.NewComponentRegistry()))
	scheduler.Register(&debugui.InspectorSystem{Inspector: debugui.NewInspector(world, events)})

	game := &Game{world: world, events: events, scheduler: scheduler, backend: backend}
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
