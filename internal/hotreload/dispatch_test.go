package hotreload

import (
	"errors"
	"testing"
)

type fakeLoader struct {
	libReloaded bool
	libErr      error
	sources     map[string]string
	loadErr     map[string]error
}

func (f *fakeLoader) ReloadLibrary() error {
	f.libReloaded = true
	return f.libErr
}

func (f *fakeLoader) LoadShaderSource(relPath string, compute bool) (string, error) {
	if err, ok := f.loadErr[relPath]; ok {
		return "", err
	}
	return f.sources[relPath], nil
}

type fakePassTarget struct {
	sources     []string
	recompiled  map[int]string
	recompErr   map[int]error
}

func (f *fakePassTarget) PassCount() int { return len(f.sources) }
func (f *fakePassTarget) PassSource(i int) string {
	return f.sources[i]
}
func (f *fakePassTarget) RecompilePass(i int, source string) error {
	if err, ok := f.recompErr[i]; ok {
		return err
	}
	if f.recompiled == nil {
		f.recompiled = make(map[int]string)
	}
	f.recompiled[i] = source
	f.sources[i] = source
	return nil
}

type fakeComputeTarget struct {
	recompiled string
	err        error
}

func (f *fakeComputeTarget) RecompileCompute(source string) error {
	if f.err != nil {
		return f.err
	}
	f.recompiled = source
	return nil
}

func TestDispatchOnlyRecompilesChangedPassShader(t *testing.T) {
	loader := &fakeLoader{sources: map[string]string{"a.wgsl": "old a", "b.wgsl": "new b"}}
	target := &fakePassTarget{sources: []string{"old a", "old b"}}
	passes := []PassDecl{{Name: "a", ShaderPath: "a.wgsl"}, {Name: "b", ShaderPath: "b.wgsl"}}

	diags := Dispatch([]string{"b.wgsl"}, "lib", passes, target, loader)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	if target.sources[0] != "old a" {
		t.Errorf("pass a should be untouched, got %q", target.sources[0])
	}
	if target.sources[1] != "new b" {
		t.Errorf("pass b should be recompiled to %q, got %q", "new b", target.sources[1])
	}
	if loader.libReloaded {
		t.Error("library should not reload when no lib path changed")
	}
}

func TestDispatchSkipsRecompileWhenSourceUnchanged(t *testing.T) {
	loader := &fakeLoader{sources: map[string]string{"a.wgsl": "same"}}
	target := &fakePassTarget{sources: []string{"same"}}
	passes := []PassDecl{{Name: "a", ShaderPath: "a.wgsl"}}

	Dispatch([]string{"a.wgsl"}, "lib", passes, target, loader)
	if target.recompiled != nil {
		t.Error("unchanged source should not trigger RecompilePass")
	}
}

func TestDispatchLibraryChangeMarksAllPassesDirty(t *testing.T) {
	loader := &fakeLoader{sources: map[string]string{"a.wgsl": "new a", "b.wgsl": "new b"}}
	target := &fakePassTarget{sources: []string{"old a", "old b"}}
	passes := []PassDecl{{Name: "a", ShaderPath: "a.wgsl"}, {Name: "b", ShaderPath: "b.wgsl"}}

	Dispatch([]string{"lib/noise.wgsl"}, "lib", passes, target, loader)
	if !loader.libReloaded {
		t.Error("library should reload on a lib/*.wgsl change")
	}
	if target.sources[0] != "new a" || target.sources[1] != "new b" {
		t.Errorf("both passes should recompile on library change, got %+v", target.sources)
	}
}

func TestDispatchKeepsOldPipelineOnRecompileFailure(t *testing.T) {
	loader := &fakeLoader{sources: map[string]string{"a.wgsl": "broken"}}
	target := &fakePassTarget{sources: []string{"old a"}, recompErr: map[int]error{0: errors.New("shader compile failed")}}
	passes := []PassDecl{{Name: "a", ShaderPath: "a.wgsl"}}

	diags := Dispatch([]string{"a.wgsl"}, "lib", passes, target, loader)
	if len(diags) != 1 || diags[0].PassName != "a" {
		t.Fatalf("expected one diagnostic for pass a, got %+v", diags)
	}
	if target.sources[0] != "old a" {
		t.Errorf("pass source should remain unchanged on failure, got %q", target.sources[0])
	}
}

func TestDispatchLoadErrorProducesDiagnostic(t *testing.T) {
	loader := &fakeLoader{loadErr: map[string]error{"a.wgsl": errors.New("read failed")}}
	target := &fakePassTarget{sources: []string{"old a"}}
	passes := []PassDecl{{Name: "a", ShaderPath: "a.wgsl"}}

	diags := Dispatch([]string{"a.wgsl"}, "lib", passes, target, loader)
	if len(diags) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", diags)
	}
}

func TestDispatchComputeRecompilesOnMatchingPath(t *testing.T) {
	loader := &fakeLoader{sources: map[string]string{"sim.wgsl": "new sim"}}
	target := &fakeComputeTarget{}

	diag := DispatchCompute([]string{"sim.wgsl"}, "lib", "sim.wgsl", target, loader)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %+v", diag)
	}
	if target.recompiled != "new sim" {
		t.Errorf("compute shader should recompile to %q, got %q", "new sim", target.recompiled)
	}
}

func TestDispatchComputeIgnoresUnrelatedChange(t *testing.T) {
	loader := &fakeLoader{sources: map[string]string{"sim.wgsl": "new sim"}}
	target := &fakeComputeTarget{}

	diag := DispatchCompute([]string{"other.wgsl"}, "lib", "sim.wgsl", target, loader)
	if diag != nil {
		t.Fatalf("unexpected diagnostic: %+v", diag)
	}
	if target.recompiled != "" {
		t.Error("unrelated change should not trigger compute recompile")
	}
}
