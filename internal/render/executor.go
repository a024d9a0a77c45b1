// Package render implements the per-effect pass executor (§4.8): it
// compiles an effect's ordered pass list into GPU pipelines and
// ping-pong targets and drives them once per frame.
package render

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"phosphor/internal/effect"
	"phosphor/internal/gpu"
)

// compiledPass holds one pass's GPU resources.
type compiledPass struct {
	desc       effect.Pass
	target     *gpu.PingPongTarget
	pipeline   *wgpu.RenderPipeline
	bindGroups [2]*wgpu.BindGroup // indexed by the target's Current(); both slots bind the current read view and are rebuilt after every Flip
	source     string              // last-compiled source, for hot-reload change detection
	shaderErr  string
}

// PassExecutor orchestrates one effect's ordered pass list (§4.8). Each
// layer owns exactly one PassExecutor (§9 "Ownership of GPU resources").
type PassExecutor struct {
	device        *wgpu.Device
	format        wgpu.TextureFormat
	width, height uint32

	passes      []*compiledPass
	byName      map[string]int
	blackPixel  *wgpu.TextureView // 1x1 placeholder bound to non-feedback passes
	uniformBuf  *wgpu.Buffer
}

// uniformBufferSize matches gpu.GlobalUniformsSize.
const uniformBufferSize = gpu.GlobalUniformsSize

// NewPassExecutor compiles every pass of passes in order (§4.8
// "Construction loads each shader..., compiles a fragment pipeline,
// creates a ping-pong target at the pass's declared scale, and builds two
// bind groups").
func NewPassExecutor(device *wgpu.Device, format wgpu.TextureFormat, width, height uint32, passes []effect.Pass, loadShader func(path string) (string, error)) (*PassExecutor, error) {
	pe := &PassExecutor{
		device: device,
		format: format,
		width:  width,
		height: height,
		byName: make(map[string]int),
	}

	uniformBuf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  uniformBufferSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create uniform buffer: %w", err)
	}
	pe.uniformBuf = uniformBuf

	blackTex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Size:          wgpu.Extent3D{Width: 1, Height: 1, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("render: create placeholder texture: %w", err)
	}
	blackView, err := blackTex.CreateView(nil)
	if err != nil {
		return nil, fmt.Errorf("render: create placeholder view: %w", err)
	}
	pe.blackPixel = blackView

	for i, p := range passes {
		cp, err := pe.compilePass(p, loadShader)
		if err != nil {
			return nil, fmt.Errorf("render: compile pass %q: %w", p.Name, err)
		}
		pe.passes = append(pe.passes, cp)
		pe.byName[p.Name] = i
	}
	return pe, nil
}

func (pe *PassExecutor) compilePass(p effect.Pass, loadShader func(string) (string, error)) (*compiledPass, error) {
	source, err := loadShader(p.Shader)
	if err != nil {
		return nil, err
	}
	w := scaledDimension(pe.width, p.Scale)
	h := scaledDimension(pe.height, p.Scale)

	target, err := gpu.NewPingPongTarget(pe.device, w, h, pe.format)
	if err != nil {
		return nil, fmt.Errorf("create ping-pong target: %w", err)
	}

	cp := &compiledPass{desc: p, target: target, source: source}
	if err := pe.buildPipeline(cp, source); err != nil {
		return nil, err
	}
	pe.rebuildBindGroups(cp)
	return cp, nil
}

func (pe *PassExecutor) buildPipeline(cp *compiledPass, source string) error {
	module, err := pe.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{WGSLSource: source})
	if err != nil {
		return fmt.Errorf("compile shader: %w", err)
	}
	pipeline, err := pe.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Vertex: wgpu.VertexState{Module: module, EntryPoint: "vs_main"},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets:    []wgpu.ColorTargetState{{Format: pe.format}},
		},
		Primitive: wgpu.PrimitiveState{Topology: wgpu.PrimitiveTopologyTriangleList},
	})
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	cp.pipeline = pipeline
	cp.shaderErr = ""
	return nil
}

// rebuildBindGroups builds the two bind groups for cp: group 0 binding 1
// is the *other* ping-pong texture for a feedback pass (§9's invariant:
// "bind_groups[current] is the set where the read view is the other
// texture in the pair"), or the 1x1 black placeholder for a non-feedback
// pass (§4.8).
func (pe *PassExecutor) rebuildBindGroups(cp *compiledPass) {
	for slot := 0; slot < 2; slot++ {
		readView := pe.blackPixel
		if cp.desc.Feedback {
			readView = cp.target.ReadView()
		}
		bg, err := pe.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: pe.uniformBuf},
				{Binding: 1, TextureView: readView},
				{Binding: 2, Sampler: cp.target.Sampler()},
			},
		})
		if err == nil {
			cp.bindGroups[slot] = bg
		}
	}
}

// Execute writes uniforms once, runs every pass in declaration order, and
// returns the last pass's write target (§4.8).
func (pe *PassExecutor) Execute(encoder *wgpu.CommandEncoder, queue *wgpu.Queue, uniforms gpu.GlobalUniforms) (*wgpu.TextureView, error) {
	if len(pe.passes) == 0 {
		return nil, fmt.Errorf("render: executor has no passes")
	}
	queue.WriteBuffer(pe.uniformBuf, 0, uniforms.Bytes())

	for _, cp := range pe.passes {
		pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			ColorAttachments: []wgpu.RenderPassColorAttachment{{
				View:    cp.target.WriteView(),
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
			}},
		})
		pass.SetPipeline(cp.pipeline)
		pass.SetBindGroup(0, cp.bindGroups[cp.target.Current()], nil)
		pass.Draw(3, 1, 0, 0)
		pass.End()
	}
	return pe.passes[len(pe.passes)-1].target.WriteView(), nil
}

// Flip toggles current for every feedback-enabled pass only (§4.8).
func (pe *PassExecutor) Flip() {
	for _, cp := range pe.passes {
		if cp.desc.Feedback {
			cp.target.Flip()
			pe.rebuildBindGroups(cp)
		}
	}
}

// Resize re-creates every pass's target at its declared scale relative to
// the new surface size and rebuilds bind groups (§4.8).
func (pe *PassExecutor) Resize(width, height uint32) error {
	pe.width, pe.height = width, height
	for _, cp := range pe.passes {
		w := scaledDimension(width, cp.desc.Scale)
		h := scaledDimension(height, cp.desc.Scale)
		if err := cp.target.Resize(w, h); err != nil {
			return fmt.Errorf("render: resize pass %q: %w", cp.desc.Name, err)
		}
		pe.rebuildBindGroups(cp)
	}
	return nil
}

// RecompilePass compiles a new pipeline for pass i from source (§4.8
// "Recompile-pass"). On failure the old pipeline is retained and the
// diagnostic is returned; on success ShaderError(i) clears.
func (pe *PassExecutor) RecompilePass(i int, source string) error {
	if i < 0 || i >= len(pe.passes) {
		return fmt.Errorf("render: pass index %d out of range", i)
	}
	cp := pe.passes[i]
	oldPipeline := cp.pipeline
	if err := pe.buildPipeline(cp, source); err != nil {
		cp.pipeline = oldPipeline
		cp.shaderErr = err.Error()
		return err
	}
	cp.source = source
	pe.rebuildBindGroups(cp)
	return nil
}

// ShaderError returns the last compile diagnostic for pass i, or "" if
// its current pipeline compiled cleanly.
func (pe *PassExecutor) ShaderError(i int) string {
	if i < 0 || i >= len(pe.passes) {
		return ""
	}
	return pe.passes[i].shaderErr
}

// PassIndex looks up a pass's index by name (used when walking a
// hot-reload change set against declared inputs, §4.14).
func (pe *PassExecutor) PassIndex(name string) (int, bool) {
	i, ok := pe.byName[name]
	return i, ok
}

// PassSource returns the last-compiled source for pass i, used by the
// hot-reload loop to detect a genuine content change (§4.14).
func (pe *PassExecutor) PassSource(i int) string {
	if i < 0 || i >= len(pe.passes) {
		return ""
	}
	return pe.passes[i].source
}

// PassCount reports how many passes this executor runs.
func (pe *PassExecutor) PassCount() int { return len(pe.passes) }

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// scaledDimension applies a pass's declared render-scale to a base surface
// dimension, defaulting an unset (<= 0) scale to effect.DefaultScale and
// flooring the result to at least 1 pixel (§4.8). Split out from
// compilePass/Resize so the rounding behavior is unit-testable without a
// device.
func scaledDimension(base uint32, scale float32) uint32 {
	if scale <= 0 {
		scale = effect.DefaultScale
	}
	return maxU32(1, uint32(float32(base)*scale))
}
