package effect

import (
	"encoding/json"
	"testing"

	"phosphor/internal/params"
)

func TestDescriptorJSONRoundTrip(t *testing.T) {
	d := Descriptor{
		Name:   "plasma",
		Author: "phosphor",
		Passes: []Pass{
			{Name: "main", Shader: "plasma.wgsl", Scale: 1.0, Feedback: true},
			{Name: "blur", Shader: "blur.wgsl", Scale: 0.5, Inputs: []string{"main"}},
		},
		Inputs: []params.ParamDef{
			{Type: params.KindFloat, Name: "speed", FloatDefault: 1, FloatMin: 0, FloatMax: 4},
		},
	}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Descriptor
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Name != d.Name || len(got.Passes) != 2 || got.Passes[1].Scale != 0.5 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.Inputs) != 1 || got.Inputs[0].Name != "speed" {
		t.Errorf("inputs round trip mismatch: %+v", got.Inputs)
	}
}

func TestNormalizedPassesExplicitList(t *testing.T) {
	d := Descriptor{Passes: []Pass{{Name: "a", Shader: "a.wgsl"}}}
	passes, ok := d.NormalizedPasses()
	if !ok || len(passes) != 1 {
		t.Fatalf("want 1 pass, got %v ok=%v", passes, ok)
	}
	if passes[0].Scale != DefaultScale {
		t.Errorf("omitted scale should default to %v, got %v", DefaultScale, passes[0].Scale)
	}
}

func TestNormalizedPassesLegacySingleShader(t *testing.T) {
	d := Descriptor{Shader: "legacy.wgsl"}
	passes, ok := d.NormalizedPasses()
	if !ok || len(passes) != 1 {
		t.Fatalf("want synthesized single pass, got %v ok=%v", passes, ok)
	}
	if !passes[0].Feedback {
		t.Error("legacy single-shader implicit pass must have feedback true (§6)")
	}
}

func TestNormalizedPassesInvalidWhenEmpty(t *testing.T) {
	d := Descriptor{}
	if _, ok := d.NormalizedPasses(); ok {
		t.Error("descriptor with no shader and no passes should be invalid")
	}
}

func TestShaderLibraryPrependsUniformBlockUnlessPresent(t *testing.T) {
	lib := &ShaderLibrary{modules: map[string]string{"noise.wgsl": "fn noise() {}\n"}, order: []string{"noise.wgsl"}}

	out := lib.PrepareFragment("fn main() {}")
	if want := uniformBlockDeclaration; len(out) < len(want) || out[:len(want)] != want {
		t.Error("PrepareFragment should prepend the standard uniform block when absent")
	}

	withOwn := "struct PhosphorUniforms { x: f32 };\nfn main() {}"
	out2 := lib.PrepareFragment(withOwn)
	if len(out2) >= len(uniformBlockDeclaration)+len(withOwn) {
		t.Error("PrepareFragment should not prepend a second uniform block when source already declares one")
	}
}

func TestShaderLibraryComputeOmitsUniformBlock(t *testing.T) {
	lib := &ShaderLibrary{modules: map[string]string{}, order: nil}
	out := lib.PrepareCompute("fn main() {}")
	if containsMarker(out, uniformBlockMarker) {
		t.Error("PrepareCompute must never prepend the fragment uniform block")
	}
}

func containsMarker(s, marker string) bool {
	for i := 0; i+len(marker) <= len(s); i++ {
		if s[i:i+len(marker)] == marker {
			return true
		}
	}
	return false
}
