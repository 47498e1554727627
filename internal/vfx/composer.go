package vfx

import (
	"errors"
	"fmt"
	"image/color"
	"log"
	"sort"
	"sync"
)

var ErrUnknownPreset = errors.New("unknown preset")

// Invocation is the per-call input a lifecycle callback hands to a preset.
type Invocation struct {
	Position Vec2 `json:"position"`

	// Step is the intensity step: combo hits, bounces or ricochets so far.
	Step int `json:"step"`

	// Direction is optional; the zero vector means "no direction".
	Direction Vec2 `json:"direction,omitempty"`

	Crit bool `json:"crit,omitempty"`

	// Progress is the swing progress in [0,1] for per-frame presets.
	Progress float64 `json:"progress,omitempty"`
}

// Jitter supplies per-particle randomness in [0,1). *rand.Rand satisfies it.
type Jitter interface {
	Float64() float64
}

// centered is the jitter used when the caller supplies none: every particle
// sits on its nominal angle and speed.
type centered struct{}

func (centered) Float64() float64 { return 0.5 }

// Observer receives preset bookkeeping. Implementations must be cheap; they
// are called on the render path.
type Observer interface {
	PresetInvoked(preset string)
	BloomSkipped(preset string)
	HostFailure(preset string, recovered any)
}

type nopObserver struct{}

func (nopObserver) PresetInvoked(string) {}
func (nopObserver) BloomSkipped(string) {}
func (nopObserver) HostFailure(string, any) {}

// ComposerOptions configures a Composer. Zero values pick the defaults.
type ComposerOptions struct {
	Pulse    *Pulse
	Jitter   Jitter
	Observer Observer
}

// Composer runs presets against one host. Its fields never change after
// construction, so repeated calls don't accumulate state.
type Composer struct {
	host     Host
	pulse    Pulse
	jitter   Jitter
	observer Observer
}

func NewComposer(host Host, opts ComposerOptions) *Composer {
	c := &Composer{
		host:     host,
		pulse:    DefaultPulse,
		jitter:   opts.Jitter,
		observer: opts.Observer,
	}
	if opts.Pulse != nil {
		c.pulse = *opts.Pulse
	}
	if c.jitter == nil {
		c.jitter = centered{}
	}
	if c.observer == nil {
		c.observer = nopObserver{}
	}
	return c
}

// PresetFunc is the shape shared by every preset method.
type PresetFunc func(c *Composer, s Style, inv Invocation)

var presets = map[string]PresetFunc{
	PresetMeleeImpact:      (*Composer).MeleeImpact,
	PresetProjectileImpact: (*Composer).ProjectileImpact,
	PresetFinisherSlam:     (*Composer).FinisherSlam,
	PresetSwingFrame:       (*Composer).SwingFrame,
	PresetProjectileDeath:  (*Composer).ProjectileDeath,
}

// PresetNames returns the registered preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasPreset reports whether name is a registered preset.
func HasPreset(name string) bool {
	_, ok := presets[name]
	return ok
}

// Play runs a preset by name.
func (c *Composer) Play(preset string, s Style, inv Invocation) error {
	fn, ok := presets[preset]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}
	fn(c, s, inv)
	return nil
}

// failuresLogged keeps host failure logging to one line per preset.
var failuresLogged sync.Map

// run executes one preset body. A host panic stops the preset but never
// reaches the caller; DrawBloomPulse's defer has already restored blending.
func (c *Composer) run(preset string, body func()) {
	c.observer.PresetInvoked(preset)
	defer func() {
		if r := recover(); r != nil {
			c.observer.HostFailure(preset, r)
			if _, seen := failuresLogged.LoadOrStore(preset, true); !seen {
				log.Printf("⚠️ vfx: %s recovered from host failure: %v", preset, r)
			}
		}
	}()
	body()
}

func (c *Composer) bloom(preset string, pos Vec2, layers []BloomLayer, scale, opacity float64) {
	if !DrawBloomPulse(c.host, pos, layers, scale, opacity, c.pulse) {
		c.observer.BloomSkipped(preset)
	}
}

// light adds one lighting contribution tinted by col.
func (c *Composer) light(pos Vec2, col color.NRGBA, intensity float64) {
	k := intensity / 255
	c.host.AddLight(pos, float64(col.R)*k, float64(col.G)*k, float64(col.B)*k)
}

// jitterAround returns v scaled by a factor in [1-spread, 1+spread).
func (c *Composer) jitterAround(v, spread float64) float64 {
	return v * (1 + (c.jitter.Float64()*2-1)*spread)
}
