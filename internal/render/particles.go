package render

import (
	"math"

	"lunar-vfx/internal/vfx"
)

// Particle is a dust particle owned by the pool.
type Particle struct {
	vfx.Dust
	Age  float64
	Life float64
}

// Alpha is the remaining-life fade in [0,1].
func (p Particle) Alpha() float64 {
	if p.Life <= 0 {
		return 0
	}
	return vfx.Clamp01(1 - p.Age/p.Life)
}

// Radius is the on-screen radius in pixels.
func (p Particle) Radius() float64 {
	return kindPhysics(p.Kind).Radius * p.Scale
}

// KindPhysics is the per-kind motion and lifetime model.
type KindPhysics struct {
	Drag    float64 // velocity decay per second (exponential)
	Gravity float64 // pixels per second squared, +Y is down
	Life    float64 // seconds
	Radius  float64 // base radius in pixels at scale 1
}

var physicsTable = [...]KindPhysics{
	vfx.DustSpark:     {Drag: 3.5, Gravity: 220, Life: 0.45, Radius: 1.6},
	vfx.DustMote:      {Drag: 1.8, Gravity: -20, Life: 0.9, Radius: 2.4},
	vfx.DustShard:     {Drag: 2.6, Gravity: 380, Life: 0.6, Radius: 2},
	vfx.DustMusicNote: {Drag: 0.9, Gravity: -30, Life: 1.4, Radius: 4},
}

func kindPhysics(k vfx.DustKind) KindPhysics {
	if int(k) < len(physicsTable) {
		return physicsTable[k]
	}
	return physicsTable[vfx.DustSpark]
}

// ParticlePool is a fixed-capacity particle store. Spawning into a full pool
// drops the new particle.
type ParticlePool struct {
	items    []Particle
	capacity int
	dropped  int
}

func NewParticlePool(capacity int) *ParticlePool {
	if capacity < 0 {
		capacity = 0
	}
	return &ParticlePool{
		items:    make([]Particle, 0, capacity),
		capacity: capacity,
	}
}

// Spawn adds d to the pool. It reports false when the pool is full.
func (p *ParticlePool) Spawn(d vfx.Dust) bool {
	if len(p.items) >= p.capacity {
		p.dropped++
		return false
	}
	if d.Scale <= 0 {
		d.Scale = 1
	}
	p.items = append(p.items, Particle{Dust: d, Life: kindPhysics(d.Kind).Life})
	return true
}

// Update integrates every particle by dt seconds and removes expired ones.
func (p *ParticlePool) Update(dt float64) {
	if dt <= 0 {
		return
	}

	live := p.items[:0]
	for _, pt := range p.items {
		pt.Age += dt
		if pt.Age >= pt.Life {
			continue
		}
		k := kindPhysics(pt.Kind)
		decay := math.Exp(-k.Drag * dt)
		pt.Velocity = pt.Velocity.Scale(decay)
		pt.Velocity.Y += k.Gravity * dt
		pt.Pos = pt.Pos.Add(pt.Velocity.Scale(dt))
		live = append(live, pt)
	}
	p.items = live
}

// Particles returns the live particles. The slice is only valid until the
// next Spawn or Update.
func (p *ParticlePool) Particles() []Particle {
	return p.items
}

func (p *ParticlePool) Len() int {
	return len(p.items)
}

func (p *ParticlePool) Cap() int {
	return p.capacity
}

// Dropped returns how many spawns were rejected since the last Clear.
func (p *ParticlePool) Dropped() int {
	return p.dropped
}

func (p *ParticlePool) Clear() {
	p.items = p.items[:0]
	p.dropped = 0
}
