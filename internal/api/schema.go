package api

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/invopop/jsonschema"

	"lunar-vfx/internal/config"
	"lunar-vfx/internal/render"
	"lunar-vfx/internal/vfx"
)

// PlanRequest runs one preset against a recording host.
type PlanRequest struct {
	Preset     string         `json:"preset" jsonschema:"title=Preset,description=Registered preset name,enum=melee-impact,enum=projectile-impact,enum=finisher-slam,enum=swing-frame,enum=projectile-death,required"`
	Style      string         `json:"style" jsonschema:"title=Style,description=Weapon style the preset is instantiated with,enum=eternal-moon,enum=incisor-of-moonlight,enum=moonlights-calling,enum=resurrection,required"`
	Invocation vfx.Invocation `json:"invocation" jsonschema:"title=Invocation,description=Per-call position and intensity"`
	Clock      float64        `json:"clock,omitempty" jsonschema:"description=Host time in seconds; drives the bloom pulse"`
	Seed       int64          `json:"seed,omitempty" jsonschema:"description=Particle jitter seed; 0 records nominal angles and speeds"`
	NoGlow     bool           `json:"noGlow,omitempty" jsonschema:"description=Record with the glow texture unloaded"`
}

// Run plays the request on a fresh Recorder and returns it.
func (p PlanRequest) Run(cfg config.AppConfig, observer vfx.Observer) (*vfx.Recorder, error) {
	style, err := vfx.LookupStyle(p.Style)
	if err != nil {
		return nil, err
	}

	rec := vfx.NewRecorder()
	rec.Clock = p.Clock
	if p.NoGlow {
		rec.Texture = nil
	}

	opts := render.ComposerOptionsFromConfig(cfg, p.Seed, observer)
	if err := vfx.NewComposer(rec, opts).Play(p.Preset, style, p.Invocation); err != nil {
		return nil, err
	}
	return rec, nil
}

type schemaEntry struct {
	title       string
	description string
	typ         reflect.Type
}

var schemaTypes = map[string]schemaEntry{
	"render": {
		title:       "Render Request",
		description: "Body of POST /api/render.",
		typ:         reflect.TypeOf(render.FrameRequest{}),
	},
	"plan": {
		title:       "Plan Request",
		description: "Body of POST /api/plan.",
		typ:         reflect.TypeOf(PlanRequest{}),
	},
}

var (
	schemaOnce  sync.Once
	schemaCache map[string][]byte
)

// buildSchemas reflects every request type once; the types never change at runtime.
func buildSchemas() (map[string][]byte, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	out := make(map[string][]byte, len(schemaTypes))
	for name, entry := range schemaTypes {
		schema := reflector.ReflectFromType(entry.typ)
		if schema == nil {
			return nil, fmt.Errorf("reflect %s schema", name)
		}
		schema.Title = entry.title
		schema.Description = entry.description

		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal %s schema: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}

func schemaFor(name string) ([]byte, bool) {
	schemaOnce.Do(func() {
		var err error
		schemaCache, err = buildSchemas()
		if err != nil {
			panic(err)
		}
	})
	data, ok := schemaCache[name]
	return data, ok
}
