// Command viewer plays the built-in scenes in a window.
package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/joho/godotenv"

	"lunar-vfx/internal/config"
	"lunar-vfx/internal/ebitenhost"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	}
	appConfig := config.Load()

	scene := flag.String("scene", "combo", "scene to start with")
	zoom := flag.Int("zoom", 2, "window scale factor")
	flag.Parse()

	// The scene clock follows TPS, so set it before building the viewer
	ebiten.SetTPS(appConfig.Canvas.FPS)

	viewer, err := ebitenhost.NewViewer(appConfig, *scene)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	scale := max(*zoom, 1)
	ebiten.SetWindowSize(appConfig.Canvas.Width*scale, appConfig.Canvas.Height*scale)
	ebiten.SetWindowTitle("Lunar VFX")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(viewer); err != nil {
		log.Fatal(err)
	}
}
