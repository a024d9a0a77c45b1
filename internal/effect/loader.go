package effect

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Loader reads .pfx effect descriptors from an effects/ directory (§4.13,
// §6) and owns the ShaderLibrary shared by every effect it loads.
type Loader struct {
	effectsDir string
	Library    *ShaderLibrary
}

// NewLoader creates a Loader rooted at effectsDir, with its shader
// library loaded from libDir.
func NewLoader(effectsDir, libDir string) (*Loader, error) {
	lib, err := NewShaderLibrary(libDir)
	if err != nil {
		return nil, fmt.Errorf("effect: load shader library: %w", err)
	}
	return &Loader{effectsDir: effectsDir, Library: lib}, nil
}

// Entry pairs a loaded effect with the index it was found at (§7 "Effect
// load error... effect index is still recorded on the layer").
type Entry struct {
	Index int
	Path  string
	Desc  Descriptor
	Err   error // non-nil if loading failed; Desc is the zero value
}

// List reads every .pfx file under the effects directory in stable
// (sorted-by-filename) order. A per-file parse error does not abort the
// scan (§7 "Effect load error"): the entry records the error and the
// index it would have occupied so the editor can still locate the source.
func (l *Loader) List() []Entry {
	files, err := filepath.Glob(filepath.Join(l.effectsDir, "*.pfx"))
	if err != nil {
		log.Printf("[effect] glob %s: %v", l.effectsDir, err)
		return nil
	}
	sort.Strings(files)

	entries := make([]Entry, 0, len(files))
	for i, path := range files {
		desc, err := l.loadFile(path)
		entries = append(entries, Entry{Index: i, Path: path, Desc: desc, Err: err})
		if err != nil {
			log.Printf("[effect] load %s: %v", path, err)
		}
	}
	return entries
}

// LoadByIndex loads the i'th effect in List() order. Returns an error
// (with the index still addressable by the caller) on failure.
func (l *Loader) LoadByIndex(i int) (Descriptor, error) {
	entries := l.List()
	if i < 0 || i >= len(entries) {
		return Descriptor{}, fmt.Errorf("effect: index %d out of range (%d effects)", i, len(entries))
	}
	return entries[i].Desc, entries[i].Err
}

// LoadByName loads the effect whose descriptor Name matches name.
func (l *Loader) LoadByName(name string) (Descriptor, error) {
	for _, e := range l.List() {
		if e.Err == nil && e.Desc.Name == name {
			return e.Desc, nil
		}
	}
	return Descriptor{}, fmt.Errorf("effect: no effect named %q", name)
}

func (l *Loader) loadFile(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, err
	}
	var desc Descriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return Descriptor{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if _, ok := desc.NormalizedPasses(); !ok {
		return Descriptor{}, fmt.Errorf("%s: no shader or passes declared", filepath.Base(path))
	}
	return desc, nil
}

// LoadShaderSource reads a pass's shader file relative to the effects
// directory's sibling "shaders" tree and prepares it via the shader
// library (§4.13, §6 "assets/shaders/**/*.wgsl").
func (l *Loader) LoadShaderSource(shadersRoot, relPath string, compute bool) (string, error) {
	data, err := os.ReadFile(filepath.Join(shadersRoot, relPath))
	if err != nil {
		return "", fmt.Errorf("effect: read shader %s: %w", relPath, err)
	}
	source := string(data)
	if strings.TrimSpace(source) == "" {
		return "", fmt.Errorf("effect: shader %s is empty", relPath)
	}
	if compute {
		return l.Library.PrepareCompute(source), nil
	}
	return l.Library.PrepareFragment(source), nil
}
