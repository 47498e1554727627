package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"lunar-vfx/internal/config"
	"lunar-vfx/internal/render"
	"lunar-vfx/internal/vfx"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 16

// Handler methods for routerHandlers
// These are used by both the standalone router (for testing) and the full Server.

type paletteJSON struct {
	Name     string            `json:"name"`
	Colors   []string          `json:"colors"`
	Dynamics map[string]string `json:"dynamics"`
}

func newPaletteJSON(p *vfx.Palette) paletteJSON {
	out := paletteJSON{
		Name:     p.Name(),
		Colors:   make([]string, 0, p.Len()),
		Dynamics: make(map[string]string, vfx.DynamicLevels),
	}
	for _, c := range p.Colors() {
		out.Colors = append(out.Colors, vfx.Hex(c))
	}
	for d := vfx.Pianissimo; d <= vfx.Sforzando; d++ {
		out.Dynamics[d.String()] = vfx.Hex(p.At(d))
	}
	return out
}

func (h *routerHandlers) handleGetPalettes(w http.ResponseWriter, r *http.Request) {
	names := vfx.Themes()
	result := make([]paletteJSON, 0, len(names))
	for _, name := range names {
		result = append(result, newPaletteJSON(vfx.MustTheme(name)))
	}
	writeJSON(w, result)
}

func (h *routerHandlers) handleSamplePalette(w http.ResponseWriter, r *http.Request) {
	p, err := vfx.Theme(chi.URLParam(r, "theme"))
	if err != nil {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	if n := q.Get("n"); n != "" {
		count, err := strconv.Atoi(n)
		if err != nil || count < 1 || count > 256 {
			writeError(w, "n must be between 1 and 256", http.StatusBadRequest)
			return
		}
		colors := vfx.Sample(p, count)
		hexes := make([]string, len(colors))
		for i, c := range colors {
			hexes[i] = vfx.Hex(c)
		}
		writeJSON(w, map[string]any{"theme": p.Name(), "colors": hexes})
		return
	}

	t, err := strconv.ParseFloat(q.Get("t"), 64)
	if err != nil {
		writeError(w, "t must be a number", http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]any{
		"theme": p.Name(),
		"t":     vfx.Clamp01(t),
		"color": vfx.Hex(vfx.Evaluate(p, t)),
	})
}

type styleJSON struct {
	Name           string              `json:"name"`
	Palette        string              `json:"palette"`
	BloomScale     float64             `json:"bloomScale"`
	Bloom          []vfx.BloomLayer    `json:"bloom"`
	Impact         vfx.EmissionProfile `json:"impact"`
	Trail          vfx.EmissionProfile `json:"trail"`
	Spark          vfx.DustKind        `json:"spark"`
	Mote           vfx.DustKind        `json:"mote"`
	Light          float64             `json:"light"`
	SaturationStep int                 `json:"saturationStep"`
}

func (h *routerHandlers) handleGetStyles(w http.ResponseWriter, r *http.Request) {
	names := vfx.StyleNames()
	result := make([]styleJSON, 0, len(names))
	for _, name := range names {
		s := vfx.MustStyle(name)
		result = append(result, styleJSON{
			Name:           s.Name,
			Palette:        s.Palette.Name(),
			BloomScale:     s.BloomScale,
			Bloom:          s.Bloom,
			Impact:         s.Impact,
			Trail:          s.Trail,
			Spark:          s.Spark,
			Mote:           s.Mote,
			Light:          s.Light,
			SaturationStep: s.Impact.SaturationStep(),
		})
	}
	writeJSON(w, result)
}

func (h *routerHandlers) handleGetPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, vfx.PresetNames())
}

func (h *routerHandlers) handleGetScenes(w http.ResponseWriter, r *http.Request) {
	names := render.SceneNames()
	result := make([]map[string]any, 0, len(names))
	for _, name := range names {
		s, _ := render.LookupScene(name)
		result = append(result, map[string]any{
			"name":        s.Name,
			"description": s.Description,
			"frames":      s.Frames,
			"cues":        len(s.Cues),
		})
	}
	writeJSON(w, result)
}

func (h *routerHandlers) handleGetEmission(w http.ResponseWriter, r *http.Request) {
	s, err := vfx.LookupStyle(chi.URLParam(r, "style"))
	if err != nil {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}

	step := 0
	if v := r.URL.Query().Get("step"); v != "" {
		step, err = strconv.Atoi(v)
		if err != nil {
			writeError(w, "step must be an integer", http.StatusBadRequest)
			return
		}
	}

	writeJSON(w, map[string]any{
		"style":  s.Name,
		"step":   step,
		"impact": s.Impact.ScaleByIntensity(step),
		"trail":  s.Trail.ScaleByIntensity(step),
	})
}

func (h *routerHandlers) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	rec, err := req.Run(h.cfg, h.observer)
	switch {
	case errors.Is(err, vfx.ErrUnknownPreset), errors.Is(err, vfx.ErrUnknownStyle):
		writeError(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, rec)
}

func (h *routerHandlers) handleRender(w http.ResponseWriter, r *http.Request) {
	var req render.FrameRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if err := req.Normalize(h.cfg); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if png := h.previews.Get(req); png != nil {
		writePNG(w, png, "hit")
		return
	}

	start := time.Now()
	canvas, err := render.RenderFrame(req, h.cfg, h.observer, h.workers)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, render.ErrUnknownScene) {
			status = http.StatusNotFound
		}
		writeError(w, err.Error(), status)
		return
	}
	RecordFrameRender(time.Since(start))

	var buf bytes.Buffer
	if err := canvas.EncodePNG(&buf); err != nil {
		log.Printf("❌ PNG encode failed: %v", err)
		writeError(w, "encode failed", http.StatusInternalServerError)
		return
	}
	png := buf.Bytes()
	h.previews.Put(req, png)
	writePNG(w, png, "miss")
}

func writePNG(w http.ResponseWriter, png []byte, cache string) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("X-Preview-Cache", cache)
	w.Write(png)
}

func (h *routerHandlers) handleSchema(w http.ResponseWriter, r *http.Request) {
	schema, ok := schemaFor(chi.URLParam(r, "name"))
	if !ok {
		writeError(w, "unknown schema", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	w.Write(schema)
}

func (h *routerHandlers) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, publicConfig(h.cfg))
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// publicConfig is the subset of AppConfig clients need to build requests.
func publicConfig(cfg config.AppConfig) map[string]any {
	return map[string]any{
		"width":     cfg.Canvas.Width,
		"height":    cfg.Canvas.Height,
		"fps":       cfg.Canvas.FPS,
		"maxFrames": cfg.Limits.MaxFrames,
		"glowSize":  cfg.Bloom.GlowSize,
	}
}

// Helper functions (package-level for reuse)

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
