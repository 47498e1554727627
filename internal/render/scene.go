package render

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"lunar-vfx/internal/vfx"
)

var ErrUnknownScene = errors.New("unknown scene")

// Cue schedules one preset call on one frame of a scene.
type Cue struct {
	Frame  int    `json:"frame"`
	Preset string `json:"preset"`
	Style  string `json:"style"`

	// At is the position in normalized canvas coordinates ([0,1] on each axis).
	At        vfx.Vec2 `json:"at"`
	Step      int      `json:"step,omitempty"`
	Direction vfx.Vec2 `json:"direction,omitempty"`
	Crit      bool     `json:"crit,omitempty"`
	Progress  float64  `json:"progress,omitempty"`
}

// Invocation resolves the cue against a canvas size.
func (c Cue) Invocation(width, height int) vfx.Invocation {
	return vfx.Invocation{
		Position:  vfx.V(c.At.X*float64(width), c.At.Y*float64(height)),
		Step:      c.Step,
		Direction: c.Direction,
		Crit:      c.Crit,
		Progress:  c.Progress,
	}
}

// Scene is an ordered timeline of cues. Cues on the same frame run in the
// order they were added.
type Scene struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Frames      int    `json:"frames"`
	Cues        []Cue  `json:"cues"`
}

// NewScene sorts cues by frame, keeping insertion order within a frame.
func NewScene(name, description string, frames int, cues []Cue) Scene {
	sorted := make([]Cue, len(cues))
	copy(sorted, cues)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Frame < sorted[j].Frame })
	return Scene{Name: name, Description: description, Frames: frames, Cues: sorted}
}

// CuesAt returns the cues scheduled on frame, in play order.
func (s Scene) CuesAt(frame int) []Cue {
	lo := sort.Search(len(s.Cues), func(i int) bool { return s.Cues[i].Frame >= frame })
	hi := lo
	for hi < len(s.Cues) && s.Cues[hi].Frame == frame {
		hi++
	}
	return s.Cues[lo:hi]
}

// Validate checks that every cue names a registered preset and style and
// lands inside the scene.
func (s Scene) Validate() error {
	if s.Frames <= 0 {
		return fmt.Errorf("scene %q: no frames", s.Name)
	}
	for i, c := range s.Cues {
		if !vfx.HasPreset(c.Preset) {
			return fmt.Errorf("scene %q cue %d: %w: %q", s.Name, i, vfx.ErrUnknownPreset, c.Preset)
		}
		if _, err := vfx.LookupStyle(c.Style); err != nil {
			return fmt.Errorf("scene %q cue %d: %w", s.Name, i, err)
		}
		if c.Frame < 0 || c.Frame >= s.Frames {
			return fmt.Errorf("scene %q cue %d: frame %d outside [0,%d)", s.Name, i, c.Frame, s.Frames)
		}
	}
	return nil
}

// =============================================================================
// BUILT-IN SCENES
// =============================================================================

var scenes = map[string]Scene{
	"combo":    comboScene(),
	"ricochet": ricochetScene(),
	"finisher": finisherScene(),
}

// LookupScene returns a built-in scene by name.
func LookupScene(name string) (Scene, error) {
	s, ok := scenes[name]
	if !ok {
		return Scene{}, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	return s, nil
}

// SceneNames returns the built-in scene names in sorted order.
func SceneNames() []string {
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// swing appends per-frame cues for a blade tip sweeping an arc around
// center from angle a0 to a1.
func swing(cues []Cue, style string, start, frames, step int, center vfx.Vec2, radius, a0, a1 float64) []Cue {
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(max(frames-1, 1))
		angle := a0 + (a1-a0)*t
		tangent := vfx.FromAngle(angle+math.Copysign(math.Pi/2, a1-a0), 1)
		cues = append(cues, Cue{
			Frame:     start + i,
			Preset:    vfx.PresetSwingFrame,
			Style:     style,
			At:        center.Add(vfx.FromAngle(angle, radius)),
			Step:      step,
			Direction: tangent,
			Progress:  t,
		})
	}
	return cues
}

// comboScene is four escalating melee hits closed by a finisher.
func comboScene() Scene {
	const style = "eternal-moon"
	center := vfx.V(0.5, 0.55)
	var cues []Cue

	for hit := 0; hit < 4; hit++ {
		start := hit * 9
		a0, a1 := -2.4, -0.6
		if hit%2 == 1 {
			a0, a1 = a1, a0
		}
		cues = swing(cues, style, start, 6, hit, center, 0.16, a0, a1)
		cues = append(cues, Cue{
			Frame:  start + 6,
			Preset: vfx.PresetMeleeImpact,
			Style:  style,
			At:     center.Add(vfx.FromAngle(a1, 0.16)),
			Step:   hit,
			Crit:   hit == 3,
		})
	}
	cues = append(cues, Cue{Frame: 40, Preset: vfx.PresetFinisherSlam, Style: style, At: center, Step: 4})

	return NewScene("combo", "Four-hit melee combo that escalates into a finisher slam", 75, cues)
}

// ricochetScene is a projectile bouncing between walls, brighter on every
// bounce, and expiring after its last ricochet.
func ricochetScene() Scene {
	const style = "incisor-of-moonlight"
	bounces := []struct {
		frame int
		at    vfx.Vec2
		dir   vfx.Vec2
	}{
		{6, vfx.V(0.92, 0.3), vfx.V(1, 0.4)},
		{14, vfx.V(0.12, 0.55), vfx.V(-1, 0.3)},
		{22, vfx.V(0.85, 0.78), vfx.V(1, 0.35)},
		{30, vfx.V(0.2, 0.4), vfx.V(-1, -0.5)},
	}

	var cues []Cue
	for i, b := range bounces {
		cues = append(cues, Cue{
			Frame:     b.frame,
			Preset:    vfx.PresetProjectileImpact,
			Style:     style,
			At:        b.at,
			Step:      i,
			Direction: b.dir.Normalize(),
		})
	}
	cues = append(cues, Cue{Frame: 36, Preset: vfx.PresetProjectileDeath, Style: style, At: vfx.V(0.5, 0.3), Step: len(bounces)})

	return NewScene("ricochet", "Projectile ricochet with escalating bounce sparks", 70, cues)
}

// finisherScene pairs a resurrection finisher with a moonlights-calling
// projectile volley.
func finisherScene() Scene {
	center := vfx.V(0.5, 0.6)
	var cues []Cue

	cues = swing(cues, "resurrection", 0, 10, 3, center, 0.2, -2.8, -0.3)
	cues = append(cues, Cue{Frame: 12, Preset: vfx.PresetFinisherSlam, Style: "resurrection", At: center, Step: 5, Crit: true})

	for i := 0; i < 3; i++ {
		at := vfx.V(0.25+0.25*float64(i), 0.3)
		cues = append(cues,
			Cue{Frame: 20 + 4*i, Preset: vfx.PresetProjectileImpact, Style: "moonlights-calling", At: at, Step: i},
			Cue{Frame: 26 + 4*i, Preset: vfx.PresetProjectileDeath, Style: "moonlights-calling", At: at, Step: i + 1},
		)
	}

	return NewScene("finisher", "Resurrection finisher slam followed by a moonlights-calling volley", 80, cues)
}
