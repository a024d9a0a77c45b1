package effect

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// uniformBlockDeclaration is the standard WGSL struct every fragment
// shader gets unless it already declares its own (§4.13). Field order
// matches gpu.GlobalUniforms bit-for-bit (§6, §9).
const uniformBlockDeclaration = `struct PhosphorUniforms {
    time: f32,
    delta_time: f32,
    resolution: vec2<f32>,
    sub_bass: f32, bass: f32, low_mid: f32, mid: f32, upper_mid: f32,
    presence: f32, brilliance: f32,
    rms: f32, kick: f32, centroid: f32, flux: f32, flatness: f32, rolloff: f32,
    bandwidth: f32, zcr: f32, onset: f32, beat: f32, beat_phase: f32,
    bpm: f32, beat_strength: f32,
    params: array<vec4<f32>, 4>,
    feedback_decay: f32,
    frame_index: f32,
};

@group(0) @binding(0) var<uniform> uniforms: PhosphorUniforms;
@group(0) @binding(1) var prev_frame: texture_2d<f32>;
@group(0) @binding(2) var prev_sampler: sampler;
`

// uniformBlockMarker is what Loader checks for to decide whether a shader
// source already declares its own uniform block (§4.13 "unless the source
// already declares it").
const uniformBlockMarker = "struct PhosphorUniforms"

// ShaderLibrary holds the concatenated WGSL library modules (noise,
// palette, SDF, tonemap helpers) that get appended to every shader after
// the uniform block (§4.13).
type ShaderLibrary struct {
	mu      sync.RWMutex
	dir     string
	modules map[string]string // filename -> source, for individual reload diagnostics
	order   []string
}

// NewShaderLibrary loads every *.wgsl file directly inside dir, the shader
// library directory.
func NewShaderLibrary(dir string) (*ShaderLibrary, error) {
	l := &ShaderLibrary{dir: dir}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-reads all library files from disk (§4.13 "reload_library()").
// On a read error for an individual file, that module's previous contents
// are kept and the error is returned after attempting every file, so a
// single bad file doesn't blank the rest of the library.
func (l *ShaderLibrary) Reload() error {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return err
	}
	modules := make(map[string]string)
	var names []string
	var firstErr error
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".wgsl") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(l.dir, e.Name()))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			l.mu.RLock()
			prev, had := l.modules[e.Name()]
			l.mu.RUnlock()
			if had {
				modules[e.Name()] = prev
				names = append(names, e.Name())
			}
			continue
		}
		modules[e.Name()] = string(data)
		names = append(names, e.Name())
	}
	sort.Strings(names)

	l.mu.Lock()
	l.modules = modules
	l.order = names
	l.mu.Unlock()
	return firstErr
}

// Concatenated returns every library module's source, joined in a stable
// (sorted-by-filename) order.
func (l *ShaderLibrary) Concatenated() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var b strings.Builder
	for _, name := range l.order {
		b.WriteString(l.modules[name])
		b.WriteString("\n")
	}
	return b.String()
}

// PrepareFragment builds the final shader source for a fragment pass:
// the uniform block (unless already present) followed by the library
// modules followed by the pass's own source (§4.13).
func (l *ShaderLibrary) PrepareFragment(source string) string {
	var b strings.Builder
	if !strings.Contains(source, uniformBlockMarker) {
		b.WriteString(uniformBlockDeclaration)
	}
	b.WriteString(l.Concatenated())
	b.WriteString(source)
	return b.String()
}

// PrepareCompute builds the final shader source for a compute pass: the
// library modules (no fragment uniform block) followed by the shader's
// own source (§4.13: "Compute shaders get the library prepended without
// the fragment-uniform block").
func (l *ShaderLibrary) PrepareCompute(source string) string {
	var b strings.Builder
	b.WriteString(l.Concatenated())
	b.WriteString(source)
	return b.String()
}
