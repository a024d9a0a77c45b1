// Package effect implements the .pfx effect descriptor format, the pass
// list it expands to, and the shader library that gets prepended to every
// shader source before compilation (§4.13, §6).
package effect

import (
	"encoding/json"
	"fmt"

	"phosphor/internal/params"
	"phosphor/internal/particles"
	"phosphor/internal/postprocess"
)

// Pass describes one render pass in a multi-pass effect (§3).
type Pass struct {
	Name     string
	Shader   string
	Scale    float32  // relative to surface; 0 means "use DefaultScale"
	Inputs   []string // named inputs referencing earlier passes' outputs
	Feedback bool     // reads its own previous frame's output
}

// DefaultScale is the §6 .pfx default for an omitted pass "scale".
const DefaultScale = 1.0

// Descriptor is a loaded .pfx effect (§3, §6).
type Descriptor struct {
	Name        string
	Author      string
	Description string

	Shader string // legacy single-shader form; mutually exclusive with Passes
	Passes []Pass

	Inputs       []params.ParamDef
	PostProcess  *postprocess.Settings
	Particles    *particles.Def
	AudioMappings map[string]string
	Hidden       bool
}

// NormalizedPasses returns the explicit Passes list if present; otherwise
// synthesizes a single feedback-enabled pass from the legacy Shader field;
// otherwise reports invalid (§4.13).
func (d Descriptor) NormalizedPasses() ([]Pass, bool) {
	if len(d.Passes) > 0 {
		out := make([]Pass, len(d.Passes))
		for i, p := range d.Passes {
			if p.Scale == 0 {
				p.Scale = DefaultScale
			}
			out[i] = p
		}
		return out, true
	}
	if d.Shader != "" {
		return []Pass{{Name: "main", Shader: d.Shader, Scale: DefaultScale, Feedback: true}}, true
	}
	return nil, false
}

// --- JSON wire format (§6) ---

type passJSON struct {
	Name     string   `json:"name"`
	Shader   string   `json:"shader"`
	Scale    *float32 `json:"scale,omitempty"`
	Inputs   []string `json:"inputs,omitempty"`
	Feedback bool     `json:"feedback,omitempty"`
}

type descriptorJSON struct {
	Name          string                     `json:"name"`
	Author        string                     `json:"author,omitempty"`
	Description   string                     `json:"description,omitempty"`
	Shader        string                     `json:"shader,omitempty"`
	Passes        []passJSON                 `json:"passes,omitempty"`
	Inputs        []params.ParamDef          `json:"inputs"`
	PostProcess   *postprocess.Settings      `json:"postprocess,omitempty"`
	Particles     *particleDefJSON           `json:"particles,omitempty"`
	AudioMappings map[string]string          `json:"audio_mappings,omitempty"`
	Hidden        bool                       `json:"hidden,omitempty"`
}

// particleDefJSON mirrors particles.Def with JSON tags; kept local to the
// .pfx format so package particles stays free of encoding concerns.
type particleDefJSON struct {
	MaxCount           int                     `json:"max_count"`
	ComputeShaderPath  string                  `json:"compute_shader,omitempty"`
	Emitter            emitterJSON             `json:"emitter"`
	LifetimeSeconds    float32                 `json:"lifetime"`
	InitialSpeed       float32                 `json:"initial_speed"`
	InitialSize        float32                 `json:"initial_size"`
	SizeEnd            float32                 `json:"size_end"`
	Gravity            float32                 `json:"gravity"`
	Drag               float32                 `json:"drag"`
	Turbulence         float32                 `json:"turbulence"`
	AttractionStrength float32                 `json:"attraction_strength"`
	EmitRate           float32                 `json:"emit_rate"`
	BurstOnBeat        int                     `json:"burst_on_beat"`
	SpriteAtlasPath    string                  `json:"sprite_atlas,omitempty"`
	ImageSample        *particles.ImageSampleConfig `json:"image_sample,omitempty"`
	Blend              particles.BlendMode     `json:"blend,omitempty"`
}

type emitterJSON struct {
	Shape     particles.EmitterShape `json:"shape"`
	Position  [2]float32             `json:"position"`
	Radius    float32                `json:"radius"`
	ImagePath string                 `json:"image,omitempty"`
}

func toParticleDef(j *particleDefJSON) *particles.Def {
	if j == nil {
		return nil
	}
	d := particles.Def{
		MaxCount:           j.MaxCount,
		ComputeShaderPath:  j.ComputeShaderPath,
		Emitter: particles.Emitter{
			Shape:     j.Emitter.Shape,
			PositionX: j.Emitter.Position[0],
			PositionY: j.Emitter.Position[1],
			Radius:    j.Emitter.Radius,
			ImagePath: j.Emitter.ImagePath,
		},
		LifetimeSeconds:    j.LifetimeSeconds,
		InitialSpeed:       j.InitialSpeed,
		InitialSize:        j.InitialSize,
		SizeEnd:            j.SizeEnd,
		Gravity:            j.Gravity,
		Drag:               j.Drag,
		Turbulence:         j.Turbulence,
		AttractionStrength: j.AttractionStrength,
		EmitRate:           j.EmitRate,
		BurstOnBeat:        j.BurstOnBeat,
		SpriteAtlasPath:    j.SpriteAtlasPath,
		ImageSample:        j.ImageSample,
		Blend:              j.Blend,
	}
	if d.Blend == "" {
		d.Blend = particles.BlendAdditive
	}
	return &d
}

func fromParticleDef(d *particles.Def) *particleDefJSON {
	if d == nil {
		return nil
	}
	return &particleDefJSON{
		MaxCount:          d.MaxCount,
		ComputeShaderPath: d.ComputeShaderPath,
		Emitter: emitterJSON{
			Shape:     d.Emitter.Shape,
			Position:  [2]float32{d.Emitter.PositionX, d.Emitter.PositionY},
			Radius:    d.Emitter.Radius,
			ImagePath: d.Emitter.ImagePath,
		},
		LifetimeSeconds:    d.LifetimeSeconds,
		InitialSpeed:       d.InitialSpeed,
		InitialSize:        d.InitialSize,
		SizeEnd:            d.SizeEnd,
		Gravity:            d.Gravity,
		Drag:               d.Drag,
		Turbulence:         d.Turbulence,
		AttractionStrength: d.AttractionStrength,
		EmitRate:           d.EmitRate,
		BurstOnBeat:        d.BurstOnBeat,
		SpriteAtlasPath:    d.SpriteAtlasPath,
		ImageSample:        d.ImageSample,
		Blend:              d.Blend,
	}
}

// MarshalJSON encodes a Descriptor per the §6 .pfx wire format.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	j := descriptorJSON{
		Name:          d.Name,
		Author:        d.Author,
		Description:   d.Description,
		Shader:        d.Shader,
		Inputs:        d.Inputs,
		PostProcess:   d.PostProcess,
		Particles:     fromParticleDef(d.Particles),
		AudioMappings: d.AudioMappings,
		Hidden:        d.Hidden,
	}
	for _, p := range d.Passes {
		scale := p.Scale
		j.Passes = append(j.Passes, passJSON{
			Name: p.Name, Shader: p.Shader, Scale: &scale, Inputs: p.Inputs, Feedback: p.Feedback,
		})
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes a Descriptor from the §6 .pfx wire format.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var j descriptorJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return fmt.Errorf("effect: decode descriptor: %w", err)
	}
	d.Name = j.Name
	d.Author = j.Author
	d.Description = j.Description
	d.Shader = j.Shader
	d.Inputs = j.Inputs
	d.PostProcess = j.PostProcess
	d.Particles = toParticleDef(j.Particles)
	d.AudioMappings = j.AudioMappings
	d.Hidden = j.Hidden
	d.Passes = nil
	for _, p := range j.Passes {
		scale := float32(DefaultScale)
		if p.Scale != nil {
			scale = *p.Scale
		}
		d.Passes = append(d.Passes, Pass{
			Name: p.Name, Shader: p.Shader, Scale: scale, Inputs: p.Inputs, Feedback: p.Feedback,
		})
	}
	return nil
}
