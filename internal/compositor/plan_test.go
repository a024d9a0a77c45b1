package compositor

import (
	"testing"

	"phosphor/internal/layer"
)

func TestBuildPlanSingleOpaqueLayerIsFastPath(t *testing.T) {
	plan := BuildPlan([]LayerInput{{Blend: layer.BlendNormal, Opacity: 1.0}})
	if !plan.FastPath {
		t.Error("single layer at opacity 1.0 should take the compositor fast path (§8 scenario 5)")
	}
}

func TestBuildPlanSingleTransparentLayerIsNotFastPath(t *testing.T) {
	plan := BuildPlan([]LayerInput{{Blend: layer.BlendNormal, Opacity: 0.5}})
	if plan.FastPath {
		t.Error("single layer below opacity 1.0 still needs the compositor")
	}
}

func TestBuildPlanMultiLayerProducesOneStepPerExtraLayer(t *testing.T) {
	plan := BuildPlan([]LayerInput{
		{Blend: layer.BlendNormal, Opacity: 1.0},
		{Blend: layer.BlendAdd, Opacity: 0.5},
		{Blend: layer.BlendScreen, Opacity: 0.8},
	})
	if plan.FastPath {
		t.Error("multi-layer composite should never take the fast path")
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("steps = %d, want 2 (one per layer after the first)", len(plan.Steps))
	}
	if plan.Steps[0].Blend != layer.BlendAdd || plan.Steps[1].Blend != layer.BlendScreen {
		t.Errorf("steps out of order: %+v", plan.Steps)
	}
}

func TestBuildPlanEmptyInputProducesEmptyPlan(t *testing.T) {
	plan := BuildPlan(nil)
	if plan.FastPath || len(plan.Steps) != 0 {
		t.Errorf("empty input should yield an empty plan, got %+v", plan)
	}
}
