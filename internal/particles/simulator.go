package particles

import (
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
)

// Simulator owns the GPU-side ping-pong storage buffers, the atomic
// emission counter, and the uniform buffer for one effect's particle
// system (§4.9, §9 "Ownership of GPU resources": "if any, particle
// storage" belongs to the owning layer).
type Simulator struct {
	device *wgpu.Device
	def    Def

	buffers   [2]*wgpu.Buffer // Particle[max_count], ping-ponged
	emitCount *wgpu.Buffer    // small atomic emission counter
	uniforms  *wgpu.Buffer    // ParticleUniforms, 128 B

	computePipeline *wgpu.ComputePipeline
	computeLayout   *wgpu.PipelineLayout
	bindGroups      [2]*wgpu.BindGroup

	renderPipeline *wgpu.RenderPipeline

	current int // 0 or 1: which buffer index holds particles_in this frame

	accumulator Accumulator
}

// NewSimulator allocates the storage/uniform buffers and compiles the
// compute + render pipelines for def.
func NewSimulator(device *wgpu.Device, def Def, computeSource, renderSource string) (*Simulator, error) {
	if def.MaxCount <= 0 {
		return nil, fmt.Errorf("particles: MaxCount must be positive, got %d", def.MaxCount)
	}
	s := &Simulator{device: device, def: def}

	size := uint64(def.MaxCount) * ParticleSize
	for i := range s.buffers {
		buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
			Size:  size,
			Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("particles: create storage buffer %d: %w", i, err)
		}
		s.buffers[i] = buf
	}

	counter, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  4,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("particles: create emit counter: %w", err)
	}
	s.emitCount = counter

	uniforms, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Size:  ParticleUniformsSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("particles: create uniform buffer: %w", err)
	}
	s.uniforms = uniforms

	if err := s.compileCompute(computeSource); err != nil {
		return nil, err
	}
	if err := s.compileRender(renderSource); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Simulator) compileCompute(source string) error {
	module, err := s.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{WGSLSource: source})
	if err != nil {
		return fmt.Errorf("particles: compile compute shader: %w", err)
	}
	pipeline, err := s.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Compute: wgpu.ProgrammableStageDescriptor{Module: module, EntryPoint: "cs_main"},
	})
	if err != nil {
		return fmt.Errorf("particles: create compute pipeline: %w", err)
	}
	s.computePipeline = pipeline
	s.rebuildBindGroups()
	return nil
}

func (s *Simulator) compileRender(source string) error {
	module, err := s.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{WGSLSource: source})
	if err != nil {
		return fmt.Errorf("particles: compile render shader: %w", err)
	}
	blend := additiveBlendState()
	if s.def.Blend == BlendAlpha {
		blend = alphaBlendState()
	}
	pipeline, err := s.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Vertex:    wgpu.VertexState{Module: module, EntryPoint: "vs_main"},
		Fragment:  &wgpu.FragmentState{Module: module, EntryPoint: "fs_main", Targets: []wgpu.ColorTargetState{{Blend: &blend}}},
		Primitive: wgpu.PrimitiveState{Topology: wgpu.PrimitiveTopologyTriangleList},
	})
	if err != nil {
		return fmt.Errorf("particles: create render pipeline: %w", err)
	}
	s.renderPipeline = pipeline
	return nil
}

func additiveBlendState() wgpu.BlendState {
	return wgpu.BlendState{
		Color: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorSrcAlpha, DstFactor: wgpu.BlendFactorOne, Operation: wgpu.BlendOperationAdd},
		Alpha: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOne, Operation: wgpu.BlendOperationAdd},
	}
}

func alphaBlendState() wgpu.BlendState {
	return wgpu.BlendState{
		Color: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorSrcAlpha, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
		Alpha: wgpu.BlendComponent{SrcFactor: wgpu.BlendFactorOne, DstFactor: wgpu.BlendFactorOneMinusSrcAlpha, Operation: wgpu.BlendOperationAdd},
	}
}

func (s *Simulator) rebuildBindGroups() {
	for slot := 0; slot < 2; slot++ {
		in, out := s.buffers[slot], s.buffers[1-slot]
		bg, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: s.uniforms},
				{Binding: 1, Buffer: in},
				{Binding: 2, Buffer: out},
				{Binding: 3, Buffer: s.emitCount},
			},
		})
		if err == nil {
			s.bindGroups[slot] = bg
		}
	}
}

// Step advances the simulation by dt seconds: writes ParticleUniforms,
// resets the emit counter, dispatches the compute pass (§4.9 steps 1-2).
func (s *Simulator) Step(encoder *wgpu.CommandEncoder, queue *wgpu.Queue, uniforms ParticleUniforms) {
	queue.WriteBuffer(s.uniforms, 0, encodeParticleUniforms(uniforms))
	queue.WriteBuffer(s.emitCount, 0, []byte{0, 0, 0, 0})

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(s.computePipeline)
	pass.SetBindGroup(0, s.bindGroups[s.current], nil)
	groups := DispatchGroups(s.def.MaxCount)
	pass.DispatchWorkgroups(uint32(groups), 1, 1)
	pass.End()
}

// Render draws 6 vertices per particle, instanced over MaxCount, reading
// the output buffer from this step (§4.9 step 3).
func (s *Simulator) Render(pass *wgpu.RenderPassEncoder) {
	outIdx := 1 - s.current
	pass.SetPipeline(s.renderPipeline)
	pass.SetVertexBuffer(0, s.buffers[outIdx], 0, 0)
	pass.Draw(6, uint32(s.def.MaxCount), 0, 0)
}

// Flip swaps the particles_in/particles_out roles for next frame (§4.9
// step 4).
func (s *Simulator) Flip() {
	s.current = 1 - s.current
}

// RecompileCompute hot-reloads the compute shader, sharing the existing
// bind group layout (§4.9 "recompile_compute(source) creates a new
// pipeline sharing the existing layout").
func (s *Simulator) RecompileCompute(source string) error {
	return s.compileCompute(source)
}

// Accumulator exposes the CPU-side emission accumulator so callers can
// drive Step's beat/emit-rate bookkeeping (kept here rather than duplicated
// by every caller).
func (s *Simulator) Accumulator() *Accumulator { return &s.accumulator }

func encodeParticleUniforms(u ParticleUniforms) []byte {
	scalars := []float32{
		u.Dt, u.Time, u.ResolutionX, u.ResolutionY, u.Gravity, u.Drag, u.Turbulence,
		u.AttractionX, u.AttractionY, u.AttractionForce, u.InitialSpeed, u.InitialSize,
		u.SizeEnd, u.LifetimeSeconds, u.EmitCount, u.Seed,
	}
	buf := make([]byte, ParticleUniformsSize)
	off := 0
	for _, f := range scalars {
		putF32LE(buf[off:], f)
		off += 4
	}
	for _, f := range u.Features {
		putF32LE(buf[off:], f)
		off += 4
	}
	return buf
}

func putF32LE(b []byte, f float32) {
	bits := math.Float32bits(f)
	b[0] = byte(bits)
	b[1] = byte(bits >> 8)
	b[2] = byte(bits >> 16)
	b[3] = byte(bits >> 24)
}
