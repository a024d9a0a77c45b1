// Package preset implements the on-disk preset format and the async
// decode worker that applies presets without blocking frame submission
// (§4.15, §6).
package preset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"phosphor/internal/layer"
	"phosphor/internal/params"
	"phosphor/internal/postprocess"
)

// LayerPreset is one layer's saved state (§3 "Preset: ordered list of
// layer presets").
type LayerPreset struct {
	EffectName string                   `json:"effect_name,omitempty"`
	Params     map[string]params.Value  `json:"params,omitempty"`
	Blend      layer.BlendMode          `json:"blend"`
	Opacity    float32                  `json:"opacity"`
	Enabled    bool                     `json:"enabled"`
	Locked     bool                     `json:"locked"`
	Pinned     bool                     `json:"pinned"`
	CustomName string                   `json:"custom_name,omitempty"`
	MediaPath    string `json:"media_path,omitempty"`
	MediaSpeed   float32 `json:"media_speed,omitempty"`
	MediaLooping bool   `json:"media_looping,omitempty"`
	WebcamDevice string `json:"webcam_device,omitempty"`
}

// Preset is the full saved state of the layer stack (§3). ID is a stable
// opaque identifier assigned the first time a preset is saved, used by a
// companion app or web control panel to reference a specific preset
// across reloads without depending on its file path.
type Preset struct {
	ID          string                `json:"id,omitempty"`
	Layers      []LayerPreset        `json:"layers"`
	ActiveLayer int                  `json:"active_layer"`
	PostProcess *postprocess.Settings `json:"postprocess,omitempty"`
}

// Load reads and parses a preset file.
func Load(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, fmt.Errorf("preset: read %s: %w", path, err)
	}
	var p Preset
	if err := json.Unmarshal(data, &p); err != nil {
		return Preset{}, fmt.Errorf("preset: parse %s: %w", path, err)
	}
	return p, nil
}

// Save writes p to path as indented JSON, assigning p a fresh ID first if
// it doesn't already have one.
func Save(path string, p Preset) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("preset: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("preset: write %s: %w", path, err)
	}
	return nil
}

// usesMedia reports whether a layer preset needs a decode job before it
// can be applied.
func (lp LayerPreset) usesMedia() bool {
	return lp.MediaPath != "" && lp.WebcamDevice == ""
}
