package vfx

import (
	"math"
	"sort"
)

const (
	// DefaultMaxCount caps particle counts for profiles that don't set MaxCount.
	DefaultMaxCount = 256

	// defaultCapFactor bounds speed and scale at 8x base when no max is set.
	defaultCapFactor = 8

	maxStep = 1 << 16
)

// EmissionProfile turns an intensity step (combo count, bounce count,
// ricochet count) into particle numbers. Negative per-step values and ramps
// are treated as zero.
type EmissionProfile struct {
	BaseCount    int `json:"baseCount"`
	CountPerStep int `json:"countPerStep"`
	MaxCount     int `json:"maxCount"`

	BaseSpeed float64 `json:"baseSpeed"`
	SpeedRamp float64 `json:"speedRamp"`
	MaxSpeed  float64 `json:"maxSpeed"`

	BaseScale float64 `json:"baseScale"`
	ScaleRamp float64 `json:"scaleRamp"`
	MaxScale  float64 `json:"maxScale"`
}

// Emission is the result of scaling a profile by a step.
type Emission struct {
	Count int     `json:"count"`
	Speed float64 `json:"speed"`
	Scale float64 `json:"scale"`
}

// ScaleByIntensity computes
//
//	count = BaseCount + step*CountPerStep
//	speed = BaseSpeed * (1 + step*SpeedRamp)
//	scale = BaseScale * (1 + step*ScaleRamp)
//
// each clamped to its maximum. Step 0 yields the base values.
func (p EmissionProfile) ScaleByIntensity(step int) Emission {
	s := clampStep(step)

	countCap := p.countCap()
	count := min(max(p.BaseCount, 0), countCap)
	// Saturate before multiplying so huge per-step values can't overflow
	if per := max(p.CountPerStep, 0); per > 0 {
		if s > (countCap-count)/per {
			count = countCap
		} else {
			count += s * per
		}
	}

	speed := math.Max(p.BaseSpeed, 0)
	if s > 0 {
		speed *= 1 + float64(s)*math.Max(p.SpeedRamp, 0)
	}
	speed = math.Min(speed, p.speedCap())

	scale := math.Max(p.BaseScale, 0)
	if s > 0 {
		scale *= 1 + float64(s)*math.Max(p.ScaleRamp, 0)
	}
	scale = math.Min(scale, p.scaleCap())

	return Emission{Count: count, Speed: speed, Scale: scale}
}

// SaturationStep returns the first step at which both count and speed sit at
// their caps, or -1 if they never both get there.
func (p EmissionProfile) SaturationStep() int {
	saturated := func(step int) bool {
		e := p.ScaleByIntensity(step)
		return e.Count == p.countCap() && e.Speed == p.speedCap()
	}
	if !saturated(maxStep) {
		return -1
	}
	return sort.Search(maxStep+1, saturated)
}

func (p EmissionProfile) countCap() int {
	if p.MaxCount > 0 {
		return p.MaxCount
	}
	return DefaultMaxCount
}

func (p EmissionProfile) speedCap() float64 {
	if p.MaxSpeed > 0 {
		return p.MaxSpeed
	}
	return math.Max(p.BaseSpeed, 0) * defaultCapFactor
}

func (p EmissionProfile) scaleCap() float64 {
	if p.MaxScale > 0 {
		return p.MaxScale
	}
	return math.Max(p.BaseScale, 0) * defaultCapFactor
}

func clampStep(step int) int {
	if step < 0 {
		return 0
	}
	if step > maxStep {
		return maxStep
	}
	return step
}
