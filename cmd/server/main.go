// Command server runs the preview API and the live frame stream.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lunar-vfx/internal/api"
	"lunar-vfx/internal/config"
)

func loadEnv() {
	for _, path := range []string{".env", "../.env"} {
		if err := godotenv.Load(path); err == nil {
			log.Printf("✅ Loaded environment from %s", path)
			return
		}
	}
	log.Println("💡 No .env file found, using environment variables only")
}

func main() {
	loadEnv()

	log.Println("🌙 ================================")
	log.Println("🌙  LUNAR VFX - PREVIEW SERVER")
	log.Println("🌙 ================================")

	appConfig := config.Load()
	canvas, limits, srv := appConfig.Canvas, appConfig.Limits, appConfig.Server

	log.Printf("🎨 Canvas: %dx%d @ %d FPS, glow %dpx", canvas.Width, canvas.Height, canvas.FPS, appConfig.Bloom.GlowSize)
	log.Printf("🛡️ Limits: %d particles, %d lights, %d frames", limits.MaxParticles, limits.MaxLights, limits.MaxFrames)
	log.Printf("🚦 Budgets: %.0f req/s (burst %d), %.1f renders/s", srv.RequestsPerSecond, srv.Burst, srv.RendersPerSecond)

	debugServer, err := api.StartDebugServer(api.ObservabilityFromEnv())
	if err != nil {
		log.Printf("⚠️ Debug server unavailable: %v", err)
	}

	server, err := api.NewServer(appConfig)
	if err != nil {
		log.Fatalf("❌ Failed to build server: %v", err)
	}

	addr := ":" + strconv.Itoa(srv.Port)
	errCh := make(chan error, 1)
	go func() {
		log.Printf("🌐 Preview API on http://localhost%s/api", addr)
		log.Printf("📡 Frame stream on ws://localhost%s/ws", addr)
		errCh <- server.Start(addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("🛑 %v received, shutting down...", sig)
	case err := <-errCh:
		if err != nil {
			log.Fatalf("❌ Server stopped: %v", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Shutdown: %v", err)
	}
	if debugServer != nil {
		debugServer.Shutdown(ctx)
	}
	log.Println("👋 Goodbye!")
}
