package render

import (
	"bytes"
	"image/color"
	"math/rand"
	"sync"
	"testing"

	"lunar-vfx/internal/vfx"
)

// TestNewRenderWorkerPool tests worker pool creation and caps
func TestNewRenderWorkerPool(t *testing.T) {
	if got := NewRenderWorkerPool(4).GetNumWorkers(); got != 4 {
		t.Errorf("Expected 4 workers, got %d", got)
	}
	if got := NewRenderWorkerPool(0).GetNumWorkers(); got <= 0 {
		t.Error("Worker pool should have at least 1 worker")
	}
	if got := NewRenderWorkerPool(100).GetNumWorkers(); got > 16 {
		t.Errorf("Worker pool should cap at 16 workers, got %d", got)
	}
}

// TestRenderWorkerPoolStartStop tests starting and stopping the pool
func TestRenderWorkerPoolStartStop(t *testing.T) {
	pool := NewRenderWorkerPool(2)

	if pool.IsRunning() {
		t.Error("Pool should not be running initially")
	}

	pool.Start()
	pool.Start()
	if !pool.IsRunning() {
		t.Error("Pool should be running after Start()")
	}

	pool.Stop()
	pool.Stop()
	if pool.IsRunning() {
		t.Error("Pool should not be running after Stop()")
	}
}

func randomParticles(n int) []Particle {
	rng := rand.New(rand.NewSource(3))
	kinds := []vfx.DustKind{vfx.DustSpark, vfx.DustMote, vfx.DustShard}
	out := make([]Particle, n)
	for i := range out {
		out[i] = Particle{
			Dust: vfx.Dust{
				Pos:   vfx.V(rng.Float64()*200-20, rng.Float64()*120-10),
				Kind:  kinds[i%len(kinds)],
				Color: color.NRGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(64 + rng.Intn(192))},
				Scale: 0.5 + rng.Float64()*2,
			},
			Life: 1,
			Age:  rng.Float64() * 0.8,
		}
	}
	return out
}

// TestParallelMatchesSequential tests that banded rendering is pixel-identical
func TestParallelMatchesSequential(t *testing.T) {
	const w, h = 160, 100
	particles := randomParticles(500)

	seq := NewFastRenderer(w, h, nil)
	seq.Clear(opaqueBlack)
	rasterizeParticles(seq, particles)

	pool := NewRenderWorkerPool(4)
	pool.Start()
	defer pool.Stop()

	par := NewFastRenderer(w, h, nil)
	par.Clear(opaqueBlack)
	pool.RenderParticles(par, particles)

	if !bytes.Equal(seq.GetBuffer(), par.GetBuffer()) {
		t.Error("Parallel rendering differs from sequential rendering")
	}
}

// TestRenderParticlesStoppedPool tests the sequential fallback
func TestRenderParticlesStoppedPool(t *testing.T) {
	particles := randomParticles(200)

	want := NewFastRenderer(100, 80, nil)
	want.Clear(opaqueBlack)
	rasterizeParticles(want, particles)

	got := NewFastRenderer(100, 80, nil)
	got.Clear(opaqueBlack)
	NewRenderWorkerPool(3).RenderParticles(got, particles)

	if !bytes.Equal(want.GetBuffer(), got.GetBuffer()) {
		t.Error("Stopped pool should render sequentially")
	}
}

// TestRasterizeSkipsNotesAndDeadDust tests the particle filter
func TestRasterizeSkipsNotesAndDeadDust(t *testing.T) {
	fr := NewFastRenderer(20, 20, nil)
	fr.Clear(opaqueBlack)

	rasterizeParticles(fr, []Particle{
		{Dust: vfx.Dust{Pos: vfx.V(10, 10), Kind: vfx.DustMusicNote, Color: color.NRGBA{255, 255, 255, 255}, Scale: 1}, Life: 1},
		{Dust: vfx.Dust{Pos: vfx.V(10, 10), Kind: vfx.DustSpark, Color: color.NRGBA{255, 255, 255, 255}, Scale: 1}, Life: 1, Age: 1},
	})

	if fr.pixel(10, 10) != opaqueBlack {
		t.Errorf("pixel = %v, want untouched", fr.pixel(10, 10))
	}
}

// TestStopDuringRenderParticles tests that Stop waits for frames in flight
// and later frames fall back to sequential rendering
func TestStopDuringRenderParticles(t *testing.T) {
	particles := randomParticles(300)

	want := NewFastRenderer(120, 90, nil)
	want.Clear(opaqueBlack)
	rasterizeParticles(want, particles)

	pool := NewRenderWorkerPool(4)
	pool.Start()

	var wg sync.WaitGroup
	results := make([]*FastRenderer, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				fr := NewFastRenderer(120, 90, nil)
				fr.Clear(opaqueBlack)
				pool.RenderParticles(fr, particles)
				results[i] = fr
			}
		}(i)
	}

	pool.Stop()
	wg.Wait()

	for i, fr := range results {
		if !bytes.Equal(want.GetBuffer(), fr.GetBuffer()) {
			t.Errorf("renderer %d differs after concurrent Stop", i)
		}
	}
}
