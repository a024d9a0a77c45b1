package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"

	"phosphor/internal/hotreload"
	"phosphor/internal/layer"
	"phosphor/internal/particles"
	"phosphor/internal/render"
)

// LayerRuntime bundles the GPU resources one layer's effect content needs
// to render a frame (§9 "Ownership of GPU resources": each layer owns
// exactly one PassExecutor and, if its effect declares particles, one
// Simulator).
type LayerRuntime struct {
	Executor  *render.PassExecutor
	Particles *particles.Simulator
}

// AttachRuntime compiles GPU resources for l's effect content against
// device/format/width/height and registers them so PollHotReload and
// Runtime can find them. Call once per layer after a device becomes
// available, and again after an effect (re)load changes l.Effect.Desc.
func (e *Engine) AttachRuntime(device *wgpu.Device, format wgpu.TextureFormat, width, height uint32, l *layer.Layer) error {
	if l.ContentKind != layer.ContentEffect || l.Effect == nil {
		return nil
	}
	passes, ok := l.Effect.Desc.NormalizedPasses()
	if !ok {
		return fmt.Errorf("engine: layer %q effect has no renderable passes", l.DisplayName())
	}

	loadShader := func(path string) (string, error) {
		return e.shaderLoader.LoadShaderSource(path, false)
	}
	executor, err := render.NewPassExecutor(device, format, width, height, passes, loadShader)
	if err != nil {
		return fmt.Errorf("engine: compile layer %q: %w", l.DisplayName(), err)
	}

	rt := &LayerRuntime{Executor: executor}

	if def := l.Effect.Desc.Particles; def != nil {
		computeSrc, err := e.shaderLoader.LoadShaderSource(def.ComputeShaderPath, true)
		if err != nil {
			return fmt.Errorf("engine: load particle compute shader: %w", err)
		}
		renderSrc, err := e.shaderLoader.LoadShaderSource(def.ComputeShaderPath, false)
		if err != nil {
			return fmt.Errorf("engine: load particle render shader: %w", err)
		}
		sim, err := particles.NewSimulator(device, *def, computeSrc, renderSrc)
		if err != nil {
			return fmt.Errorf("engine: create particle simulator: %w", err)
		}
		rt.Particles = sim
	}

	e.runtimes[l] = rt
	return nil
}

// DetachRuntime drops the runtime registered for l (§3 "Lifecycles":
// "released by layer destruction" — the caller is responsible for
// releasing the underlying GPU resources before calling this, the same
// contract layer.Stack.Remove documents).
func (e *Engine) DetachRuntime(l *layer.Layer) {
	delete(e.runtimes, l)
}

// Runtime returns the GPU runtime registered for l, if any.
func (e *Engine) Runtime(l *layer.Layer) (*LayerRuntime, bool) {
	rt, ok := e.runtimes[l]
	return rt, ok
}

// PollHotReload drains the shader watcher and dispatches the changed-path
// batch to every layer's runtime (§4.14, §8 "hot-reload loop"). Diagnostics
// from a failed recompile are returned for the caller to fold into the
// status channel.
func (e *Engine) PollHotReload() []hotreload.Diagnostic {
	changed := e.Watcher.Drain()
	if len(changed) == 0 {
		return nil
	}
	// Watcher paths keep the watched directory as a prefix, while passes
	// declare shader paths relative to shadersRoot; add the relative form of
	// every path under shadersRoot so Dispatch can match either.
	for _, p := range changed {
		if rel, err := filepath.Rel(e.shadersRoot, p); err == nil && !strings.HasPrefix(rel, "..") {
			changed = append(changed, rel)
		}
	}

	var diags []hotreload.Diagnostic
	for _, l := range e.Stack.Layers() {
		if l.ContentKind != layer.ContentEffect || l.Effect == nil {
			continue
		}
		rt, ok := e.runtimes[l]
		if !ok {
			continue
		}
		passes, ok := l.Effect.Desc.NormalizedPasses()
		if !ok {
			continue
		}
		decls := make([]hotreload.PassDecl, len(passes))
		for i, p := range passes {
			decls[i] = hotreload.PassDecl{Name: p.Name, ShaderPath: p.Shader}
		}
		diags = append(diags, hotreload.Dispatch(changed, e.libDir, decls, rt.Executor, e.shaderLoader)...)

		if rt.Particles != nil && l.Effect.Desc.Particles != nil {
			if d := hotreload.DispatchCompute(changed, e.libDir, l.Effect.Desc.Particles.ComputeShaderPath, rt.Particles, e.shaderLoader); d != nil {
				diags = append(diags, *d)
			}
		}
	}
	for _, d := range diags {
		e.Status.Publish(fmt.Sprintf("shader error in %s: %v", d.PassName, d.Err))
	}
	return diags
}
