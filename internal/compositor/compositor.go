package compositor

import (
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"phosphor/internal/gpu"
	"phosphor/internal/layer"
)

// LayerInput is one enabled layer's contribution to the composite, in UI
// stacking order (topmost last, §4.10).
type LayerInput struct {
	View    *wgpu.TextureView
	Blend   layer.BlendMode
	Opacity float32
}

// Step is one composite-pass instruction after the first layer has been
// seeded into the accumulator.
type Step struct {
	Blend   layer.BlendMode
	Opacity float32
}

// Plan is the pure (GPU-free) description, built by BuildPlan, of how
// Execute runs the compositor for a given layer list — split out from Execute so the
// §8 "compositor fast path" and ordering logic is unit-testable without a
// device.
type Plan struct {
	// FastPath is true when a single enabled, fully-opaque layer makes the
	// accumulator unnecessary (§4.10 "single enabled layer with opacity >=
	// 1.0 bypasses the compositor entirely"); FastPathIndex names it.
	FastPath      bool
	FastPathIndex int

	// SeedOpaque is true when the first layer should be blitted directly
	// (opacity >= 1.0); false means it must be composited with Normal
	// blend against a transparent background at its own opacity.
	SeedOpaque bool

	// Steps are the composite passes for every layer after the first,
	// applied in order.
	Steps []Step
}

// BuildPlan computes the composite plan for an ordered list of enabled
// layers (§4.10). Callers must pre-filter to enabled layers only.
func BuildPlan(inputs []LayerInput) Plan {
	if len(inputs) == 1 {
		return Plan{FastPath: inputs[0].Opacity >= 1.0, FastPathIndex: 0, SeedOpaque: inputs[0].Opacity >= 1.0}
	}
	if len(inputs) == 0 {
		return Plan{}
	}
	plan := Plan{SeedOpaque: inputs[0].Opacity >= 1.0}
	for _, in := range inputs[1:] {
		plan.Steps = append(plan.Steps, Step{Blend: in.Blend, Opacity: in.Opacity})
	}
	return plan
}

// Compositor owns the ping-pong accumulator targets and per-pass uniform
// buffers used to execute a Plan on the GPU (§9 "Ownership of GPU
// resources": "The compositor owns its accumulator targets and a small
// pool of per-pass uniform buffers").
type Compositor struct {
	device *wgpu.Device
	accum  *gpu.PingPongTarget

	pipeline *wgpu.RenderPipeline
	uniforms *wgpu.Buffer
}

// NewCompositor creates a Compositor with an accumulator sized to the
// surface and a compiled composite-pass pipeline.
func NewCompositor(device *wgpu.Device, width, height uint32, format wgpu.TextureFormat, pipeline *wgpu.RenderPipeline) (*Compositor, error) {
	accum, err := gpu.NewPingPongTarget(device, width, height, format)
	if err != nil {
		return nil, fmt.Errorf("compositor: create accumulator: %w", err)
	}
	uniforms, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  compositeUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("compositor: create uniform buffer: %w", err)
	}
	return &Compositor{device: device, accum: accum, pipeline: pipeline, uniforms: uniforms}, nil
}

// compositeUniformSize is blend_mode (u32) + opacity (f32), padded to a
// 16-byte uniform stride.
const compositeUniformSize = 16

// Resize re-creates the accumulator at new dimensions (§9, mirrors
// PassExecutor.Resize).
func (c *Compositor) Resize(width, height uint32) error {
	return c.accum.Resize(width, height)
}

// Execute runs plan against encoder/queue, reading from inputs in order
// and returning the view holding the final composite (§4.10 algorithm).
// If plan.FastPath is set, Execute does nothing and the caller should use
// inputs[plan.FastPathIndex].View directly.
func (c *Compositor) Execute(encoder *wgpu.CommandEncoder, queue *wgpu.Queue, inputs []LayerInput, plan Plan) (*wgpu.TextureView, error) {
	if plan.FastPath {
		return inputs[plan.FastPathIndex].View, nil
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("compositor: Execute called with no layers")
	}

	if plan.SeedOpaque {
		c.blit(encoder, inputs[0].View)
	} else {
		c.clearTransparent(encoder)
		c.accum.Flip() // the cleared target becomes the background read below
		c.compositePass(encoder, queue, c.accum.ReadView(), inputs[0].View, layer.BlendNormal, inputs[0].Opacity)
		c.accum.Flip()
	}

	for i, step := range plan.Steps {
		c.compositePass(encoder, queue, c.accum.ReadView(), inputs[i+1].View, step.Blend, step.Opacity)
		c.accum.Flip()
	}

	return c.accum.ReadView(), nil
}

func (c *Compositor) blit(encoder *wgpu.CommandEncoder, src *wgpu.TextureView) {
	// Runs a trivial copy-through pass writing src into the accumulator's
	// current write target, then flips so ReadView exposes it.
	c.compositePass(encoder, nil, src, src, layer.BlendNormal, 1.0)
	c.accum.Flip()
}

func (c *Compositor) clearTransparent(encoder *wgpu.CommandEncoder) {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       c.accum.WriteView(),
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	pass.End()
}

// compositePass binds bg/fg as textures, writes the blend_mode/opacity
// uniform, and draws a fullscreen triangle into the accumulator's current
// write target (§4.10: "composite pass reading the accumulator-as-
// background and layer-as-foreground"). The bind group is rebuilt every
// call since bg/fg are a fresh pair of views each composite step, unlike
// PassExecutor's static per-pass bind groups.
func (c *Compositor) compositePass(encoder *wgpu.CommandEncoder, queue *wgpu.Queue, bg, fg *wgpu.TextureView, mode layer.BlendMode, opacity float32) {
	if queue != nil {
		data := make([]byte, compositeUniformSize)
		data[0] = byte(mode)
		data[1] = byte(mode >> 8)
		data[2] = byte(mode >> 16)
		data[3] = byte(mode >> 24)
		putF32(data[4:], opacity)
		queue.WriteBuffer(c.uniforms, 0, data)
	}
	bindGroup, err := c.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: c.uniforms},
			{Binding: 1, TextureView: bg},
			{Binding: 2, TextureView: fg},
			{Binding: 3, Sampler: c.accum.Sampler()},
		},
	})
	if err != nil {
		return
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    c.accum.WriteView(),
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
		}},
	})
	pass.SetPipeline(c.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()
}

func putF32(b []byte, f float32) {
	bits := math.Float32bits(f)
	b[0] = byte(bits)
	b[1] = byte(bits >> 8)
	b[2] = byte(bits >> 16)
	b[3] = byte(bits >> 24)
}
