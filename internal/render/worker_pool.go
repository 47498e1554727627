package render

import (
	"math"
	"runtime"
	"sync"

	"lunar-vfx/internal/vfx"
)

// sequentialThreshold is the particle count below which parallel dispatch
// costs more than it saves.
const sequentialThreshold = 64

// RenderWorkerPool rasterizes particles with a fixed set of goroutines. Each
// job owns a horizontal band of rows, so workers never write the same pixel.
type RenderWorkerPool struct {
	numWorkers int
	jobChan    chan renderJob
	wg         sync.WaitGroup
	running    bool
	stopped    bool

	// RenderParticles holds the read lock across dispatch, so Stop can't
	// close jobChan under an in-flight frame
	mu sync.RWMutex
}

// renderJob is one band of rows to rasterize
type renderJob struct {
	particles []Particle
	renderer  *FastRenderer
	done      chan<- struct{}
}

// NewRenderWorkerPool creates a pool with numWorkers goroutines.
// 0 means NumCPU; the count is capped at 16.
func NewRenderWorkerPool(numWorkers int) *RenderWorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > 16 {
		numWorkers = 16
	}

	return &RenderWorkerPool{
		numWorkers: numWorkers,
		jobChan:    make(chan renderJob, numWorkers*2),
	}
}

// Start begins the worker pool
func (p *RenderWorkerPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running || p.stopped {
		return
	}

	p.running = true
	p.wg.Add(p.numWorkers)
	for i := 0; i < p.numWorkers; i++ {
		go p.worker()
	}
}

// Stop waits for in-flight RenderParticles calls, then drains the workers.
// A stopped pool can't be restarted; later calls render sequentially.
func (p *RenderWorkerPool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.stopped = true
	close(p.jobChan)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *RenderWorkerPool) worker() {
	defer p.wg.Done()

	for job := range p.jobChan {
		rasterizeParticles(job.renderer, job.particles)
		job.done <- struct{}{}
	}
}

// RenderParticles draws particles into r and returns once every band is done.
// Music notes are skipped; the canvas draws them with vector paths.
func (p *RenderWorkerPool) RenderParticles(r *FastRenderer, particles []Particle) {
	if len(particles) == 0 {
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.running || len(particles) < sequentialThreshold || p.numWorkers == 1 {
		rasterizeParticles(r, particles)
		return
	}

	rows := r.maxY - r.minY
	bandHeight := (rows + p.numWorkers - 1) / p.numWorkers
	done := make(chan struct{}, p.numWorkers)
	numJobs := 0

	for y := r.minY; y < r.maxY; y += bandHeight {
		band := r.Band(y, y+bandHeight)
		job := renderJob{particles: particles, renderer: band, done: done}

		select {
		case p.jobChan <- job:
			numJobs++
		default:
			// Queue full, render this band here
			rasterizeParticles(band, particles)
		}
	}

	for i := 0; i < numJobs; i++ {
		<-done
	}
}

// rasterizeParticles draws every particle that overlaps r's row band.
func rasterizeParticles(r *FastRenderer, particles []Particle) {
	for _, pt := range particles {
		if pt.Kind == vfx.DustMusicNote {
			continue
		}
		alpha := pt.Alpha()
		if alpha <= 0 {
			continue
		}
		radius := pt.Radius()
		// Two rows of slack cover shard rounding; drawing clips to the band anyway
		if pt.Pos.Y+radius+2 < float64(r.minY) || pt.Pos.Y-radius-2 >= float64(r.maxY) {
			continue
		}

		c := vfx.WithOpacity(pt.Color, alpha)
		switch pt.Kind {
		case vfx.DustMote:
			r.DrawFilledCircle(pt.Pos.X, pt.Pos.Y, radius, c, vfx.BlendAlpha)
		case vfx.DustShard:
			side := int(math.Max(1, math.Round(radius*1.4)))
			r.DrawFilledRect(int(pt.Pos.X)-side/2, int(pt.Pos.Y)-side/2, side, side, c, vfx.BlendAdditive)
		default:
			r.DrawFilledCircle(pt.Pos.X, pt.Pos.Y, radius, c, vfx.BlendAdditive)
		}
	}
}

// GetNumWorkers returns the number of workers in the pool
func (p *RenderWorkerPool) GetNumWorkers() int {
	return p.numWorkers
}

// IsRunning returns whether the pool is currently running
func (p *RenderWorkerPool) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}
