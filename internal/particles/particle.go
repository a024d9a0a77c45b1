// Package particles implements the optional per-effect GPU particle
// simulation (§4.9): a ping-pong pair of Particle storage buffers updated
// by a compute shader, an emission accumulator driven by audio features
// and beats, and the image-emitter pixel-sampling preprocessing step.
package particles

// EmitterShape identifies the geometric source particles spawn from (§3).
type EmitterShape string

const (
	ShapePoint  EmitterShape = "point"
	ShapeRing   EmitterShape = "ring"
	ShapeLine   EmitterShape = "line"
	ShapeScreen EmitterShape = "screen"
	ShapeImage  EmitterShape = "image"
)

// BlendMode is the particle render pass's blend mode (§3: "blend mode").
// Kept distinct from layer/compositor blend modes since particle render
// only ever uses additive or alpha blending.
type BlendMode string

const (
	BlendAdditive BlendMode = "additive"
	BlendAlpha    BlendMode = "alpha"
)

// SampleMode identifies how an image emitter pre-samples source pixels
// into the auxiliary buffer (§4.9).
type SampleMode string

const (
	SampleGrid      SampleMode = "grid"
	SampleThreshold SampleMode = "threshold"
	SampleRandom    SampleMode = "random"
)

// Emitter describes where and how particles spawn (§3 "emitter").
type Emitter struct {
	Shape     EmitterShape
	PositionX float32
	PositionY float32
	Radius    float32
	ImagePath string // only meaningful when Shape == ShapeImage
}

// ImageSampleConfig configures the image-emitter pixel-sampling
// preprocessing step (§4.9).
type ImageSampleConfig struct {
	Mode      SampleMode
	Threshold float32 // SampleThreshold only: brightness cutoff
}

// Def is the particle system definition attached to an effect (§3).
type Def struct {
	MaxCount             int
	ComputeShaderPath    string // shader file with cs_main and the particle render entry points; there is no built-in default
	Emitter              Emitter
	LifetimeSeconds      float32
	InitialSpeed         float32
	InitialSize          float32
	SizeEnd              float32
	Gravity              float32
	Drag                 float32
	Turbulence           float32
	AttractionStrength   float32
	EmitRate             float32 // particles/sec
	BurstOnBeat          int     // extra particles per detected beat
	SpriteAtlasPath      string
	ImageSample          *ImageSampleConfig
	Blend                BlendMode
}

// DefaultDef returns sane defaults for a particle system with no override
// of emit shape (point emitter at origin) or blend mode (additive).
func DefaultDef() Def {
	return Def{
		MaxCount:        4096,
		Emitter:         Emitter{Shape: ShapePoint},
		LifetimeSeconds: 2.0,
		InitialSpeed:    0.2,
		InitialSize:     0.01,
		SizeEnd:         0.0,
		Gravity:         0.0,
		Drag:            0.1,
		EmitRate:        200,
		Blend:           BlendAdditive,
	}
}

// Particle mirrors the GPU storage record (§3): 64 bytes, four vec4s.
// Field order matches the WGSL struct bit-for-bit; do not reorder.
type Particle struct {
	PosX, PosY, posLifePad, Life float32 // pos_life: xy, _, life in [0,1]
	VelX, VelY, Size, velSizePad float32 // vel_size
	R, G, B, A                   float32 // color rgba
	Age, Lifetime, EmitterID, flagsPad float32
}

// ParticleSize is the byte size of one Particle record on the wire.
const ParticleSize = 64

// ParticleUniforms mirrors the §4.9 GPU uniform (128 B, 32 f32 slots): 16
// simulation scalars followed by 16 audio-feature slots (a subset of the
// full 20-field vector — bpm/beat_phase/beat/onset plus the band/timbral
// fields most relevant to particle behavior). Field order matches the WGSL
// layout bit-for-bit; do not reorder.
type ParticleUniforms struct {
	Dt              float32
	Time            float32
	ResolutionX     float32
	ResolutionY     float32
	Gravity         float32
	Drag            float32
	Turbulence      float32
	AttractionX     float32
	AttractionY     float32
	AttractionForce float32
	InitialSpeed    float32
	InitialSize     float32
	SizeEnd         float32
	LifetimeSeconds float32
	EmitCount       float32
	Seed            float32
	Features        [16]float32
}

// ParticleUniformsSize is the byte size of ParticleUniforms on the wire.
const ParticleUniformsSize = 32 * 4
