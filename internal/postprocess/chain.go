package postprocess

import (
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
)

// Chain is the engine-wide post-process chain: bloom extract, a two-pass
// Gaussian blur, and a final composite applying chromatic aberration,
// vignette, and grain (§4.11, §2 step 6). It owns three quarter-resolution
// HDR targets and four uniform buffers (§9 "Ownership of GPU resources":
// "The post-process chain owns three quarter-res HDR targets and four
// uniform buffers"); those map here to extract/blurA/blurB render targets
// and extract/blurH/blurV/composite uniform buffers.
type Chain struct {
	device *wgpu.Device
	format wgpu.TextureFormat

	width, height               uint32
	quarterWidth, quarterHeight uint32

	extractTarget *target
	blurATarget   *target
	blurBTarget   *target

	extractUniforms  *wgpu.Buffer
	blurHUniforms    *wgpu.Buffer
	blurVUniforms    *wgpu.Buffer
	compositeUniforms *wgpu.Buffer

	extractPipeline   *wgpu.RenderPipeline
	blurPipeline      *wgpu.RenderPipeline
	compositePipeline *wgpu.RenderPipeline

	sampler *wgpu.Sampler
}

// target is a single HDR render target with its own view, used for the
// three quarter-res intermediate stages.
type target struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

const chainUniformSize = 16

// NewChain allocates the quarter-res targets and uniform buffers and
// compiles the three pipelines from pre-loaded shader sources (§4.11).
func NewChain(device *wgpu.Device, format wgpu.TextureFormat, width, height uint32, extractSrc, blurSrc, compositeSrc string) (*Chain, error) {
	c := &Chain{device: device, format: format}

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
	})
	if err != nil {
		return nil, fmt.Errorf("postprocess: create sampler: %w", err)
	}
	c.sampler = sampler

	for _, spec := range []struct {
		name string
		size uint64
		buf  **wgpu.Buffer
	}{
		{"extract", chainUniformSize, &c.extractUniforms},
		{"blurH", chainUniformSize, &c.blurHUniforms},
		{"blurV", chainUniformSize, &c.blurVUniforms},
		{"composite", chainUniformSize, &c.compositeUniforms},
	} {
		buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
			Size:  spec.size,
			Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, fmt.Errorf("postprocess: create %s uniform buffer: %w", spec.name, err)
		}
		*spec.buf = buf
	}

	if err := c.compilePipelines(extractSrc, blurSrc, compositeSrc); err != nil {
		return nil, err
	}
	if err := c.Resize(width, height); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Chain) compilePipelines(extractSrc, blurSrc, compositeSrc string) error {
	build := func(source, label string) (*wgpu.RenderPipeline, error) {
		module, err := c.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{WGSLSource: source})
		if err != nil {
			return nil, fmt.Errorf("postprocess: compile %s shader: %w", label, err)
		}
		pipeline, err := c.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
			Vertex: wgpu.VertexState{Module: module, EntryPoint: "vs_main"},
			Fragment: &wgpu.FragmentState{
				Module:     module,
				EntryPoint: "fs_main",
				Targets:    []wgpu.ColorTargetState{{Format: c.format}},
			},
			Primitive: wgpu.PrimitiveState{Topology: wgpu.PrimitiveTopologyTriangleList},
		})
		if err != nil {
			return nil, fmt.Errorf("postprocess: create %s pipeline: %w", label, err)
		}
		return pipeline, nil
	}

	extract, err := build(extractSrc, "bloom extract")
	if err != nil {
		return err
	}
	blur, err := build(blurSrc, "gaussian blur")
	if err != nil {
		return err
	}
	composite, err := build(compositeSrc, "composite")
	if err != nil {
		return err
	}
	c.extractPipeline = extract
	c.blurPipeline = blur
	c.compositePipeline = composite
	return nil
}

func newTarget(device *wgpu.Device, format wgpu.TextureFormat, width, height uint32) (*target, error) {
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		return nil, err
	}
	return &target{texture: tex, view: view}, nil
}

// Resize re-creates the three quarter-res targets for a new surface size
// (§4.11, §4.8 "Resize").
func (c *Chain) Resize(width, height uint32) error {
	c.width, c.height = width, height
	c.quarterWidth = quarterDimension(width)
	c.quarterHeight = quarterDimension(height)

	extract, err := newTarget(c.device, c.format, c.quarterWidth, c.quarterHeight)
	if err != nil {
		return fmt.Errorf("postprocess: create extract target: %w", err)
	}
	blurA, err := newTarget(c.device, c.format, c.quarterWidth, c.quarterHeight)
	if err != nil {
		return fmt.Errorf("postprocess: create blur-a target: %w", err)
	}
	blurB, err := newTarget(c.device, c.format, c.quarterWidth, c.quarterHeight)
	if err != nil {
		return fmt.Errorf("postprocess: create blur-b target: %w", err)
	}
	c.extractTarget = extract
	c.blurATarget = blurA
	c.blurBTarget = blurB
	return nil
}

// quarterDimension floors a surface dimension to quarter resolution, never
// below 1px.
func quarterDimension(d uint32) uint32 {
	q := d / 4
	if q < 1 {
		return 1
	}
	return q
}

// Execute runs bloom extract -> horizontal blur -> vertical blur -> final
// composite against sceneView (the composited, pre-post-process frame),
// writing the result into outputView (§4.11, §2 step 6: "Post-process
// (bloom extract -> two-pass Gaussian blur -> composite with chromatic
// aberration, vignette, grain) to the surface"). When settings disables
// every stage, callers should skip Execute and blit sceneView directly.
func (c *Chain) Execute(encoder *wgpu.CommandEncoder, queue *wgpu.Queue, sceneView, outputView *wgpu.TextureView, settings Settings, timeSeconds float32) error {
	if c.extractTarget == nil {
		return fmt.Errorf("postprocess: chain not sized, call Resize first")
	}

	c.writeExtractUniforms(queue, settings)
	c.runPass(encoder, c.extractPipeline, c.extractTarget.view)

	if settings.BloomEnabled {
		c.writeBlurUniforms(queue, c.blurHUniforms, 1.0/float32(c.quarterWidth), 0)
		c.runPass(encoder, c.blurPipeline, c.blurATarget.view)

		c.writeBlurUniforms(queue, c.blurVUniforms, 0, 1.0/float32(c.quarterHeight))
		c.runPass(encoder, c.blurPipeline, c.blurBTarget.view)
	}

	c.writeCompositeUniforms(queue, settings, timeSeconds)
	c.runPass(encoder, c.compositePipeline, outputView)
	return nil
}

func (c *Chain) runPass(encoder *wgpu.CommandEncoder, pipeline *wgpu.RenderPipeline, output *wgpu.TextureView) {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    output,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: wgpu.StoreOpStore,
		}},
	})
	pass.SetPipeline(pipeline)
	pass.Draw(3, 1, 0, 0)
	pass.End()
}

func (c *Chain) writeExtractUniforms(queue *wgpu.Queue, s Settings) {
	buf := make([]byte, chainUniformSize)
	putF32(buf[0:], s.BloomThreshold)
	putF32(buf[4:], s.BloomKnee)
	queue.WriteBuffer(c.extractUniforms, 0, buf)
}

func (c *Chain) writeBlurUniforms(queue *wgpu.Queue, buffer *wgpu.Buffer, texelDX, texelDY float32) {
	buf := make([]byte, chainUniformSize)
	putF32(buf[0:], texelDX)
	putF32(buf[4:], texelDY)
	queue.WriteBuffer(buffer, 0, buf)
}

func (c *Chain) writeCompositeUniforms(queue *wgpu.Queue, s Settings, timeSeconds float32) {
	buf := make([]byte, chainUniformSize)
	putF32(buf[0:], s.BloomIntensity)
	putF32(buf[4:], boolToF32(s.ChromaticAberrationEnabled)*s.ChromaticAberrationIntensity)
	putF32(buf[8:], boolToF32(s.VignetteEnabled)*s.VignetteStrength)
	putF32(buf[12:], boolToF32(s.GrainEnabled)*s.GrainIntensity)
	queue.WriteBuffer(c.compositeUniforms, 0, buf)
	_ = timeSeconds // time is carried in the shared global uniform block, not here
}

func boolToF32(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func putF32(b []byte, f float32) {
	bits := math.Float32bits(f)
	b[0] = byte(bits)
	b[1] = byte(bits >> 8)
	b[2] = byte(bits >> 16)
	b[3] = byte(bits >> 24)
}
