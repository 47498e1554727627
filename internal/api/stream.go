package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"lunar-vfx/internal/config"
	"lunar-vfx/internal/render"
	"lunar-vfx/internal/vfx"
)

// DefaultStreamScene is the scene a new FrameStream starts with.
const DefaultStreamScene = "combo"

// frameSink receives encoded stream messages. *WebSocketHub implements it.
type frameSink interface {
	BroadcastRaw(message []byte)
	ClientCount() int
}

// FrameEvent is the payload of a "frame" message.
type FrameEvent struct {
	Scene  string `json:"scene"`
	Frame  int    `json:"frame"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	PNG    string `json:"png"` // base64
}

// FrameStream plays a looping scene and pushes PNG frames to websocket
// clients. Rendering and sending run on separate goroutines joined by a
// FrameRing, so a slow broadcast drops frames instead of stalling the scene.
type FrameStream struct {
	cfg  config.AppConfig
	sink frameSink

	canvas   *render.Canvas
	player   *render.Player
	composer vfx.ComposerOptions
	ring     *render.FrameRing
	png      bytes.Buffer

	mu      sync.Mutex
	pending string // scene requested by a client, applied on the next frame

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  int32 // atomic

	framesSent uint64 // atomic
}

// NewFrameStream binds a stream to sink. No goroutines start until Start.
func NewFrameStream(cfg config.AppConfig, sink frameSink, workers *render.RenderWorkerPool, observer vfx.Observer) (*FrameStream, error) {
	cfg = withDefaults(cfg)

	opts := render.OptionsFromConfig(cfg)
	opts.Workers = workers
	canvas := render.NewCanvas(opts)

	s := &FrameStream{
		cfg:      cfg,
		sink:     sink,
		canvas:   canvas,
		composer: render.ComposerOptionsFromConfig(cfg, time.Now().UnixNano(), observer),
		ring:     render.NewFrameRing(),
		stopChan: make(chan struct{}),
	}
	if err := s.load(DefaultStreamScene); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FrameStream) load(name string) error {
	scene, err := render.LookupScene(name)
	if err != nil {
		return err
	}
	player, err := render.NewPlayer(scene, s.canvas, render.PlayerOptions{
		FPS:      s.cfg.Canvas.FPS,
		Composer: s.composer,
		Loop:     true,
	})
	if err != nil {
		return err
	}
	s.canvas.Reset()
	s.player = player
	return nil
}

// SetScene queues a scene switch. Unknown names are rejected immediately.
func (s *FrameStream) SetScene(name string) error {
	if _, err := render.LookupScene(name); err != nil {
		return err
	}
	s.mu.Lock()
	s.pending = name
	s.mu.Unlock()
	return nil
}

// HandleCommand applies a client command, logging rejected ones.
func (s *FrameStream) HandleCommand(cmd ClientCommand) {
	if cmd.Scene == "" {
		return
	}
	if err := s.SetScene(cmd.Scene); err != nil {
		log.Printf("⚠️ Stream scene switch rejected: %v", err)
	}
}

// Start launches the render and send loops.
func (s *FrameStream) Start() {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return // Already running
	}

	interval := s.cfg.Server.StreamInterval
	s.wg.Add(2)
	go s.loop(interval, s.renderOnce)
	go s.loop(interval, s.sendOnce)

	log.Printf("📡 Frame stream started (%s, every %v)", s.player.Scene().Name, interval)
}

// Stop ends both loops and waits for them.
func (s *FrameStream) Stop() {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return
	}
	close(s.stopChan)
	s.wg.Wait()
	log.Println("📡 Frame stream stopped")
}

func (s *FrameStream) loop(interval time.Duration, tick func()) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			tick()
		}
	}
}

// renderOnce advances the scene one frame and queues it. Idle streams don't
// render; the scene resumes where it paused when a viewer connects.
func (s *FrameStream) renderOnce() {
	s.mu.Lock()
	pending := s.pending
	s.pending = ""
	s.mu.Unlock()

	if pending != "" {
		if err := s.load(pending); err != nil {
			log.Printf("⚠️ Stream scene switch failed: %v", err)
		} else {
			log.Printf("🎬 Stream switched to %s", pending)
		}
	}

	if s.sink.ClientCount() == 0 {
		return
	}

	start := time.Now()
	if !s.player.Step() {
		return
	}
	// Read after Step, which rewinds a looping scene before drawing frame 0
	frame := s.player.Frame() - 1

	s.png.Reset()
	if err := s.canvas.EncodePNG(&s.png); err != nil {
		log.Printf("❌ Stream PNG encode failed: %v", err)
		return
	}
	RecordFrameRender(time.Since(start))
	UpdateParticleCount(s.canvas.Particles().Len())

	msg, err := json.Marshal(map[string]any{
		"event": "frame",
		"data": FrameEvent{
			Scene:  s.player.Scene().Name,
			Frame:  frame,
			Width:  s.canvas.Width(),
			Height: s.canvas.Height(),
			PNG:    base64.StdEncoding.EncodeToString(s.png.Bytes()),
		},
	})
	if err != nil {
		return
	}

	if !s.ring.TryWrite(msg) {
		streamFramesDropped.Inc()
	}
}

// sendOnce hands the oldest queued frame to the sink.
func (s *FrameStream) sendOnce() {
	msg := s.ring.TryRead()
	if msg == nil {
		return
	}
	s.sink.BroadcastRaw(msg)
	atomic.AddUint64(&s.framesSent, 1)
}

// GetStats returns stream statistics
func (s *FrameStream) GetStats() map[string]any {
	ring := s.ring.Stats()
	return map[string]any{
		"running":       atomic.LoadInt32(&s.running) == 1,
		"framesSent":    atomic.LoadUint64(&s.framesSent),
		"framesQueued":  ring.Written,
		"framesDropped": ring.Dropped,
	}
}
