// Package ebiten hosts the debug windows on the Ebiten game engine.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
)

// Backend wraps the Ebiten Dear ImGui backend
type Backend struct {
	*ebitenbackend.EbitenBackend
}

// New creates the game window. Window layout is not persisted between runs.
func New(title string, width, height int) *Backend {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")
	return &Backend{EbitenBackend: backend}
}

// Overlay draws the ImGui frame on top of screen. Call it last in Draw.
func (b *Backend) Overlay(screen *ebiten.Image) {
	b.Draw(screen)
}
