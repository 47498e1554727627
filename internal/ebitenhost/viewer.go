package ebitenhost

import (
	"fmt"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"lunar-vfx/internal/config"
	"lunar-vfx/internal/render"
)

// sceneKeys selects built-in scenes in SceneNames order.
var sceneKeys = []ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5}

// Viewer is an ebiten.Game that loops a scene on a Host.
//
// Keys: 1-5 switch scene, Space pauses, R restarts, G toggles the glow texture.
type Viewer struct {
	cfg    config.AppConfig
	host   *Host
	player *render.Player
	scenes []string

	paused bool
	glowOn bool
}

// NewViewer builds a viewer playing the named scene.
func NewViewer(cfg config.AppConfig, scene string) (*Viewer, error) {
	v := &Viewer{
		cfg:    cfg,
		host:   NewHost(OptionsFromConfig(cfg)),
		scenes: render.SceneNames(),
		glowOn: true,
	}
	if err := v.load(scene); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Viewer) load(name string) error {
	scene, err := render.LookupScene(name)
	if err != nil {
		return err
	}
	player, err := render.NewPlayer(scene, v.host, render.PlayerOptions{
		FPS:      ebiten.TPS(),
		Composer: render.ComposerOptionsFromConfig(v.cfg, 0, nil),
		Loop:     true,
	})
	if err != nil {
		return err
	}
	v.host.Reset()
	v.player = player
	log.Printf("🎬 Playing %s (%d frames)", scene.Name, scene.Frames)
	return nil
}

// Update handles input and advances the scene one frame.
func (v *Viewer) Update() error {
	for i, key := range sceneKeys {
		if i < len(v.scenes) && inpututil.IsKeyJustPressed(key) {
			if err := v.load(v.scenes[i]); err != nil {
				return err
			}
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		v.paused = !v.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		v.player.Rewind()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyG) {
		v.toggleGlow()
	}

	if !v.paused {
		v.player.Step()
	}
	return nil
}

func (v *Viewer) toggleGlow() {
	v.glowOn = !v.glowOn
	if v.glowOn {
		v.host.glow = &Texture{img: ebiten.NewImageFromImage(render.NewGlow(v.cfg.Bloom.GlowSize).Image())}
		return
	}
	v.host.UnloadGlow()
}

// Draw presents the last rendered frame with a status line.
func (v *Viewer) Draw(screen *ebiten.Image) {
	v.host.Present(screen)
	status := fmt.Sprintf("%s  frame %d/%d  dust %d  glow %v",
		v.player.Scene().Name, v.player.Frame(), v.player.Scene().Frames, v.host.Particles().Len(), v.glowOn)
	if v.paused {
		status += "  [paused]"
	}
	ebitenutil.DebugPrint(screen, status)
}

// Layout keeps the logical screen at canvas size.
func (v *Viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.host.Width(), v.host.Height()
}
