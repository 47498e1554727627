package vfx

import (
	"errors"
	"math/rand"
	"reflect"
	"testing"
)

type countingObserver struct {
	invoked  map[string]int
	skipped  map[string]int
	failures map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		invoked:  make(map[string]int),
		skipped:  make(map[string]int),
		failures: make(map[string]int),
	}
}

func (o *countingObserver) PresetInvoked(p string) { o.invoked[p]++ }
func (o *countingObserver) BloomSkipped(p string) { o.skipped[p]++ }
func (o *countingObserver) HostFailure(p string, _ any) { o.failures[p]++ }

func sampleInvocation() Invocation {
	return Invocation{Position: V(100, 100), Step: 2, Direction: V(1, 0), Progress: 0.5}
}

// TestMeleeImpactStepZero tests a plain hit at step 0
func TestMeleeImpactStepZero(t *testing.T) {
	rec := NewRecorder()
	c := NewComposer(rec, ComposerOptions{})

	c.MeleeImpact(MustStyle("eternal-moon"), Invocation{Position: V(100, 100)})

	if len(rec.Lights) != 1 {
		t.Fatalf("Expected exactly 1 light, got %d", len(rec.Lights))
	}
	if rec.Lights[0].Pos != V(100, 100) {
		t.Errorf("light at %v, want (100,100)", rec.Lights[0].Pos)
	}
	if len(rec.Dust) != 8 {
		t.Errorf("Expected 8 sparks at step 0, got %d", len(rec.Dust))
	}
	if rec.BlendMode() != BlendAlpha {
		t.Errorf("blend after = %v", rec.BlendMode())
	}
}

// TestEveryPresetOneLightAndRestoredBlend tests the shared preset contract across styles
func TestEveryPresetOneLightAndRestoredBlend(t *testing.T) {
	for _, styleName := range StyleNames() {
		s := MustStyle(styleName)
		for _, preset := range PresetNames() {
			for _, loaded := range []bool{true, false} {
				rec := NewRecorder()
				if !loaded {
					rec.Texture = nil
				}
				rec.SetBlendMode(BlendOpaque)
				c := NewComposer(rec, ComposerOptions{})

				if err := c.Play(preset, s, sampleInvocation()); err != nil {
					t.Fatalf("Play(%s) failed: %v", preset, err)
				}

				if len(rec.Lights) != 1 {
					t.Errorf("%s/%s loaded=%v: %d lights, want 1", styleName, preset, loaded, len(rec.Lights))
				}
				if rec.BlendMode() != BlendOpaque {
					t.Errorf("%s/%s loaded=%v: blend after = %v", styleName, preset, loaded, rec.BlendMode())
				}
				if len(rec.Dust) == 0 {
					t.Errorf("%s/%s loaded=%v: no dust", styleName, preset, loaded)
				}
				if !loaded && len(rec.Draws) != 0 {
					t.Errorf("%s/%s: drew %d sprites without a texture", styleName, preset, len(rec.Draws))
				}
			}
		}
	}
}

// TestMissingTextureReportsSkip tests that unloaded glow is reported, not failed
func TestMissingTextureReportsSkip(t *testing.T) {
	rec := NewRecorder()
	rec.Texture = nil
	obs := newCountingObserver()
	c := NewComposer(rec, ComposerOptions{Observer: obs})

	c.ProjectileImpact(MustStyle("incisor-of-moonlight"), sampleInvocation())

	if obs.skipped[PresetProjectileImpact] != 1 {
		t.Errorf("Expected 1 bloom skip, got %d", obs.skipped[PresetProjectileImpact])
	}
	if obs.invoked[PresetProjectileImpact] != 1 {
		t.Errorf("Expected 1 invocation, got %d", obs.invoked[PresetProjectileImpact])
	}
	if len(obs.failures) != 0 {
		t.Errorf("Unexpected failures: %v", obs.failures)
	}
}

// TestHostFailureRecovered tests that a panicking host never reaches the caller
func TestHostFailureRecovered(t *testing.T) {
	rec := NewRecorder()
	rec.FailWith = errors.New("device lost")
	obs := newCountingObserver()
	c := NewComposer(rec, ComposerOptions{Observer: obs})

	for i := 0; i < 3; i++ {
		c.FinisherSlam(MustStyle("resurrection"), sampleInvocation())
	}

	if obs.failures[PresetFinisherSlam] != 3 {
		t.Errorf("Expected 3 failures, got %d", obs.failures[PresetFinisherSlam])
	}
	if rec.BlendMode() != BlendAlpha {
		t.Errorf("blend after failure = %v, want alpha", rec.BlendMode())
	}
}

// TestPlayUnknownPreset tests the unknown preset error
func TestPlayUnknownPreset(t *testing.T) {
	rec := NewRecorder()
	c := NewComposer(rec, ComposerOptions{})

	err := c.Play("moonbeam", MustStyle("eternal-moon"), sampleInvocation())
	if !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("Expected ErrUnknownPreset, got %v", err)
	}
	if len(rec.Draws) != 0 || len(rec.Lights) != 0 {
		t.Error("unknown preset should not touch the host")
	}
	if HasPreset("moonbeam") || !HasPreset(PresetSwingFrame) {
		t.Error("HasPreset mismatch")
	}
}

// TestMeleeCritAddsRing tests the extra crit ring
func TestMeleeCritAddsRing(t *testing.T) {
	s := MustStyle("eternal-moon")
	inv := Invocation{Position: V(0, 0), Step: 1}

	plain := NewRecorder()
	NewComposer(plain, ComposerOptions{}).MeleeImpact(s, inv)

	inv.Crit = true
	crit := NewRecorder()
	NewComposer(crit, ComposerOptions{}).MeleeImpact(s, inv)

	em := s.Impact.ScaleByIntensity(1)
	if want := len(plain.Dust) + em.Count/2 + 4; len(crit.Dust) != want {
		t.Errorf("crit dust = %d, want %d", len(crit.Dust), want)
	}
	if crit.Draws[0].Scale <= plain.Draws[0].Scale {
		t.Error("crit bloom should be larger")
	}
}

// TestProjectileImpactSpraysBackward tests the directional cone
func TestProjectileImpactSpraysBackward(t *testing.T) {
	rec := NewRecorder()
	c := NewComposer(rec, ComposerOptions{Jitter: rand.New(rand.NewSource(7))})

	c.ProjectileImpact(MustStyle("incisor-of-moonlight"), Invocation{Position: V(50, 50), Direction: V(1, 0)})

	for i, d := range rec.Dust {
		if d.Velocity.X >= 0 {
			t.Errorf("dust %d moves with the projectile: %v", i, d.Velocity)
		}
	}
}

// TestFinisherRingsGrowWithStep tests ring cascade scaling
func TestFinisherRingsGrowWithStep(t *testing.T) {
	s := MustStyle("moonlights-calling")
	counts := make([]int, 0, 6)
	for step := 0; step < 6; step++ {
		rec := NewRecorder()
		NewComposer(rec, ComposerOptions{}).FinisherSlam(s, Invocation{Step: step})
		counts = append(counts, len(rec.Dust))
	}
	for i := 1; i < len(counts); i++ {
		if counts[i] < counts[i-1] {
			t.Errorf("finisher dust shrank from %d to %d at step %d", counts[i-1], counts[i], i)
		}
	}
}

// TestNoHiddenState tests that identical calls produce identical output
func TestNoHiddenState(t *testing.T) {
	s := MustStyle("resurrection")
	inv := sampleInvocation()

	first := NewRecorder()
	c := NewComposer(first, ComposerOptions{})
	c.MeleeImpact(s, inv)

	second := NewRecorder()
	NewComposer(second, ComposerOptions{}).MeleeImpact(s, inv)

	if !reflect.DeepEqual(first.Draws, second.Draws) || !reflect.DeepEqual(first.Dust, second.Dust) {
		t.Error("fresh composers produced different output")
	}

	// Same composer, second call: identical again
	snapshot := append([]Dust(nil), first.Dust...)
	first.Reset()
	c.MeleeImpact(s, inv)
	if !reflect.DeepEqual(snapshot, first.Dust) {
		t.Error("repeated call on the same composer changed output")
	}
}

// TestDustColorsFromPalette tests that burst colors come from the style's gradient
func TestDustColorsFromPalette(t *testing.T) {
	s := MustStyle("eternal-moon")
	rec := NewRecorder()
	NewComposer(rec, ComposerOptions{}).ProjectileDeath(s, Invocation{Step: 3})

	notes := 0
	for _, d := range rec.Dust {
		if d.Kind == DustMusicNote {
			notes++
			if d.Color != s.Palette.At(Forte) && d.Color != s.Palette.At(Sforzando) {
				t.Errorf("note color %v not from the loud end of the palette", d.Color)
			}
		}
	}
	if notes != 5 {
		t.Errorf("Expected 5 notes at step 3, got %d", notes)
	}
}
