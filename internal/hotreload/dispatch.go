package hotreload

import "path/filepath"

// PassTarget is the subset of render.PassExecutor's surface the dispatch
// loop needs to walk and recompile an effect's passes (§4.14).
type PassTarget interface {
	PassCount() int
	PassSource(i int) string
	RecompilePass(i int, source string) error
}

// ComputeTarget is the subset of particles.Simulator's surface needed to
// recompile a particle system's compute shader (§4.14 "same logic for
// particle compute shaders").
type ComputeTarget interface {
	RecompileCompute(source string) error
}

// SourceLoader resolves a pass's declared shader path to its final,
// library-prepared source, and reloads the shared library (§4.13
// "reload_library()").
type SourceLoader interface {
	ReloadLibrary() error
	LoadShaderSource(relPath string, compute bool) (string, error)
}

// PassDecl is the minimal per-pass metadata Dispatch needs: its declared
// shader path, matched against the watcher's changed-paths set.
type PassDecl struct {
	Name       string
	ShaderPath string
}

// Diagnostic records one failed recompile attempt, surfaced to the status
// channel (§7).
type Diagnostic struct {
	PassName string
	Err      error
}

// Dispatch applies one frame's batch of changed filesystem paths to a
// single effect layer's passes (§4.14): if any library path changed, every
// pass is treated as dirty; otherwise only passes whose declared shader
// path appears in changed are reloaded. A pass is only recompiled when its
// freshly-loaded source differs from what's already compiled — "detect
// content change vs. the tracked last source" — since editors routinely
// fire a Write event without changing bytes (e.g. a no-op save-as).
func Dispatch(changed []string, libDir string, passes []PassDecl, target PassTarget, loader SourceLoader) []Diagnostic {
	libraryChanged := pathsUnderDir(changed, libDir)
	if libraryChanged {
		if err := loader.ReloadLibrary(); err != nil {
			return []Diagnostic{{PassName: "<library>", Err: err}}
		}
	}

	changedSet := make(map[string]struct{}, len(changed))
	for _, p := range changed {
		changedSet[filepath.Clean(p)] = struct{}{}
	}

	var diags []Diagnostic
	for i, decl := range passes {
		if i >= target.PassCount() {
			break
		}
		if !libraryChanged {
			if _, ok := changedSet[filepath.Clean(decl.ShaderPath)]; !ok {
				continue
			}
		}
		source, err := loader.LoadShaderSource(decl.ShaderPath, false)
		if err != nil {
			diags = append(diags, Diagnostic{PassName: decl.Name, Err: err})
			continue
		}
		if source == target.PassSource(i) {
			continue
		}
		if err := target.RecompilePass(i, source); err != nil {
			diags = append(diags, Diagnostic{PassName: decl.Name, Err: err})
		}
	}
	return diags
}

// DispatchCompute applies a changed-paths batch to a particle system's
// compute shader, following the same "§4.14 same logic for particle
// compute shaders" rule.
func DispatchCompute(changed []string, libDir string, computeShaderPath string, target ComputeTarget, loader SourceLoader) *Diagnostic {
	libraryChanged := pathsUnderDir(changed, libDir)
	if !libraryChanged {
		found := false
		clean := filepath.Clean(computeShaderPath)
		for _, p := range changed {
			if filepath.Clean(p) == clean {
				found = true
				break
			}
		}
		if !found {
			return nil
		}
	}
	source, err := loader.LoadShaderSource(computeShaderPath, true)
	if err != nil {
		return &Diagnostic{PassName: "<particles>", Err: err}
	}
	if err := target.RecompileCompute(source); err != nil {
		return &Diagnostic{PassName: "<particles>", Err: err}
	}
	return nil
}

func pathsUnderDir(paths []string, dir string) bool {
	if dir == "" {
		return false
	}
	clean := filepath.Clean(dir)
	for _, p := range paths {
		if rel, err := filepath.Rel(clean, filepath.Clean(p)); err == nil && !isParentEscape(rel) {
			return true
		}
	}
	return false
}

func isParentEscape(rel string) bool {
	return len(rel) >= 2 && rel[0] == '.' && rel[1] == '.'
}
