package engine

import "phosphor/internal/effect"

// shaderLoaderAdapter binds a fixed shaders root to an effect.Loader so it
// satisfies hotreload.SourceLoader's narrower two-argument
// LoadShaderSource signature (§4.13, §4.14).
type shaderLoaderAdapter struct {
	loader      *effect.Loader
	shadersRoot string
}

func newShaderLoaderAdapter(loader *effect.Loader, shadersRoot string) *shaderLoaderAdapter {
	return &shaderLoaderAdapter{loader: loader, shadersRoot: shadersRoot}
}

func (a *shaderLoaderAdapter) ReloadLibrary() error {
	return a.loader.Library.Reload()
}

func (a *shaderLoaderAdapter) LoadShaderSource(relPath string, compute bool) (string, error) {
	return a.loader.LoadShaderSource(a.shadersRoot, relPath, compute)
}
