// Package layer implements the layer stack (§3): the ordered list of up
// to 8 enabled/disabled render layers, each either an effect (pass list +
// parameter store) or a media clip, composited in order by the
// compositor (package compositor).
package layer

import (
	"fmt"

	"github.com/google/uuid"

	"phosphor/internal/effect"
	"phosphor/internal/media"
	"phosphor/internal/params"
	"phosphor/internal/postprocess"
)

// MaxLayers and MinLayers are the §3 layer-count invariants: "at most 8
// layers; at least 1 must exist".
const (
	MaxLayers = 8
	MinLayers = 1
)

// ContentKind distinguishes a layer's content variant (§3).
type ContentKind int

const (
	ContentEffect ContentKind = iota
	ContentMedia
)

// EffectContent is a layer backed by a multi-pass effect (§3).
type EffectContent struct {
	InstanceID  string // stable opaque ID for this effect instance, §4.15
	EffectName  string
	EffectIndex int // recorded even on load failure, per §7
	Desc        effect.Descriptor
	Params      *params.Store
	LoadError   string
}

// MediaContent is a layer backed by a static/animated/live media source
// (§3).
type MediaContent struct {
	Source      media.Source
	Transport   *media.Transport
	SourcePath  string
	WebcamTag   string
	DecodeError string
}

// Layer is one entry in the layer stack (§3).
type Layer struct {
	Name       string
	CustomName string // optional display override

	ContentKind ContentKind
	Effect      *EffectContent
	Media       *MediaContent

	Blend   BlendMode
	Opacity float32
	Enabled bool
	Locked  bool
	Pinned  bool

	PostProcess *postprocess.Settings // per-layer override, nil = use global
}

// DisplayName returns CustomName if set, else Name.
func (l Layer) DisplayName() string {
	if l.CustomName != "" {
		return l.CustomName
	}
	return l.Name
}

// NewEffectLayer creates an enabled, unlocked layer showing the given
// effect at full opacity with Normal blend.
func NewEffectLayer(name string, desc effect.Descriptor) *Layer {
	store := params.NewStore()
	store.LoadDefs(desc.Inputs)
	return &Layer{
		Name:        name,
		ContentKind: ContentEffect,
		Effect: &EffectContent{
			InstanceID: uuid.NewString(),
			EffectName: desc.Name,
			Desc:       desc,
			Params:     store,
		},
		Blend:   BlendNormal,
		Opacity: 1.0,
		Enabled: true,
	}
}

// NewMediaLayer creates an enabled, unlocked layer playing the given
// media source.
func NewMediaLayer(name string, src media.Source, path string) *Layer {
	return &Layer{
		Name:        name,
		ContentKind: ContentMedia,
		Media: &MediaContent{
			Source:     src,
			Transport:  media.NewTransport(),
			SourcePath: path,
		},
		Blend:   BlendNormal,
		Opacity: 1.0,
		Enabled: true,
	}
}

// Stack is the ordered layer list (§3: "layers.indices are stable between
// mutations" — Remove never reindexes by shifting identity, only by
// position; callers addressing a layer across a frame boundary should
// prefer Stack.Layers()[i] within a single frame, not a cached pointer
// across a Remove).
type Stack struct {
	layers      []*Layer
	activeIndex int
}

// NewStack creates a Stack seeded with one layer, satisfying the "at
// least 1 must exist" invariant from construction.
func NewStack(initial *Layer) *Stack {
	return &Stack{layers: []*Layer{initial}}
}

// Layers returns the current ordered layer list. Callers must not retain
// the returned slice across a mutating call (Add/Remove/Move).
func (s *Stack) Layers() []*Layer { return s.layers }

// Len reports the current layer count.
func (s *Stack) Len() int { return len(s.layers) }

// Add appends a new layer, enforcing the §3 "at most 8 layers" invariant.
func (s *Stack) Add(l *Layer) error {
	if len(s.layers) >= MaxLayers {
		return fmt.Errorf("layer: cannot add layer, already at max %d", MaxLayers)
	}
	s.layers = append(s.layers, l)
	return nil
}

// Remove deletes the layer at index i, enforcing the §3 "at least 1 must
// exist" invariant. GPU resources owned by the removed layer are the
// caller's responsibility to release before calling Remove (§3
// "Lifecycles": "released by layer destruction").
func (s *Stack) Remove(i int) error {
	if len(s.layers) <= MinLayers {
		return fmt.Errorf("layer: cannot remove layer, only %d remain (minimum %d)", len(s.layers), MinLayers)
	}
	if i < 0 || i >= len(s.layers) {
		return fmt.Errorf("layer: index %d out of range", i)
	}
	s.layers = append(s.layers[:i], s.layers[i+1:]...)
	if s.activeIndex >= len(s.layers) {
		s.activeIndex = len(s.layers) - 1
	}
	return nil
}

// Active returns the currently active layer (the one parameter writes
// target by default, per §5 control ingest).
func (s *Stack) Active() *Layer {
	if s.activeIndex < 0 || s.activeIndex >= len(s.layers) {
		return nil
	}
	return s.layers[s.activeIndex]
}

// ActiveIndex returns the active layer's index.
func (s *Stack) ActiveIndex() int { return s.activeIndex }

// SetActive selects the active layer by index.
func (s *Stack) SetActive(i int) error {
	if i < 0 || i >= len(s.layers) {
		return fmt.Errorf("layer: index %d out of range", i)
	}
	s.activeIndex = i
	return nil
}

// At returns the layer at index i, or nil if out of range.
func (s *Stack) At(i int) *Layer {
	if i < 0 || i >= len(s.layers) {
		return nil
	}
	return s.layers[i]
}

// Resize matches the stack to length n by appending layers built by
// makeLayer or truncating from the tail, used by async preset apply (§4.15 "shrinks/
// grows the layer stack to match the preset"). n is clamped to
// [MinLayers, MaxLayers].
func (s *Stack) Resize(n int, makeLayer func() *Layer) {
	if n < MinLayers {
		n = MinLayers
	}
	if n > MaxLayers {
		n = MaxLayers
	}
	for len(s.layers) > n {
		s.layers = s.layers[:len(s.layers)-1]
	}
	for len(s.layers) < n {
		s.layers = append(s.layers, makeLayer())
	}
	if s.activeIndex >= len(s.layers) {
		s.activeIndex = len(s.layers) - 1
	}
}
