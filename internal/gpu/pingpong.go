package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// PingPongTarget is a pair of color-attachment textures with linear
// samplers (§3). `current` selects which texture is writable this frame;
// the other is readable. Flip toggles the pair after a pass writes.
//
// The contract callers must honor (§9 "Ping-pong with feedback"): a
// feedback pass logically reads frame t-1 and writes frame t. ReadView
// always returns the texture written *last* frame, never the one about to
// be written this frame.
type PingPongTarget struct {
	device  *wgpu.Device
	format  wgpu.TextureFormat
	width   uint32
	height  uint32

	textures [2]*wgpu.Texture
	views    [2]*wgpu.TextureView
	sampler  *wgpu.Sampler

	flip flipState
}

// flipState is the pure index-bookkeeping half of PingPongTarget, split
// out so the §8 ping-pong invariant ("after a feedback pass and a flip,
// the previously-written texture is now the read texture") is testable
// without a GPU device.
type flipState struct {
	current int // index of the texture that is writable this frame
}

// Current reports which index is currently writable (0 or 1).
func (f *flipState) Current() int { return f.current }

// ReadIndex reports which index is currently readable (0 or 1) — always
// the other slot from Current.
func (f *flipState) ReadIndex() int { return 1 - f.current }

// Flip toggles which index is writable.
func (f *flipState) Flip() { f.current = 1 - f.current }

// NewPingPongTarget creates a ping-pong pair sized width x height at
// format, with a linear sampler shared by both textures.
func NewPingPongTarget(device *wgpu.Device, width, height uint32, format wgpu.TextureFormat) (*PingPongTarget, error) {
	p := &PingPongTarget{device: device, format: format}
	if err := p.resize(width, height); err != nil {
		return nil, err
	}
	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create ping-pong sampler: %w", err)
	}
	p.sampler = sampler
	return p, nil
}

func (p *PingPongTarget) resize(width, height uint32) error {
	for i := range p.textures {
		tex, err := p.device.CreateTexture(&wgpu.TextureDescriptor{
			Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     wgpu.TextureDimension2D,
			Format:        p.format,
			Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
		})
		if err != nil {
			return fmt.Errorf("gpu: create ping-pong texture %d: %w", i, err)
		}
		view, err := tex.CreateView(nil)
		if err != nil {
			return fmt.Errorf("gpu: create ping-pong view %d: %w", i, err)
		}
		p.textures[i] = tex
		p.views[i] = view
	}
	p.width, p.height = width, height
	return nil
}

// Resize re-creates both textures at the new dimensions (§4.8 "Resize").
// Callers must rebuild any bind groups referencing the old views.
func (p *PingPongTarget) Resize(width, height uint32) error {
	return p.resize(width, height)
}

// WriteView returns the texture view passes should render into this
// frame.
func (p *PingPongTarget) WriteView() *wgpu.TextureView { return p.views[p.flip.Current()] }

// ReadView returns the *other* texture's view — the one written last
// frame, which a feedback pass samples from this frame.
func (p *PingPongTarget) ReadView() *wgpu.TextureView { return p.views[p.flip.ReadIndex()] }

// WriteTexture returns the texture passes should render into this frame —
// after a write, it "holds the freshest contents" per §3's ping-pong
// invariant.
func (p *PingPongTarget) WriteTexture() *wgpu.Texture { return p.textures[p.flip.Current()] }

// Sampler returns the linear sampler shared by both textures.
func (p *PingPongTarget) Sampler() *wgpu.Sampler { return p.sampler }

// Current reports which index is currently writable (0 or 1).
func (p *PingPongTarget) Current() int { return p.flip.Current() }

// Flip toggles which texture is writable. After a feedback pass writes
// and Flip is called, the previously-written texture becomes the read
// texture (§8 testable property).
func (p *PingPongTarget) Flip() {
	p.flip.Flip()
}
