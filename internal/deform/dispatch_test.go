package deform

import (
	"context"
	"fmt"
	"testing"
)

func registryWith(models []loadedModel) *Registry {
	r := NewRegistry(nil, discardLogger(), 0)
	r.models = models
	r.state = StateClean
	return r
}

func TestDispatch_SkipsEmptyAndUnposedSlots(t *testing.T) {
	m0 := &stubModel{out: []float32{1, 2, 3, 4, 5, 6}}
	m2 := &stubModel{out: []float32{9, 9, 9}}
	reg := registryWith([]loadedModel{
		{model: m0, vertices: []int{0, 2}},
		{}, // joint without a model
		{model: m2, vertices: []int{1}},
	})

	dst := make([]float32, 9)
	// Only two transforms: slot 2 has a model but no pose this pass.
	reg.Dispatch(context.Background(), []Transform{
		{Rotation: [4]float32{0, 0, 0, 1}},
		{Rotation: [4]float32{0, 0, 0, 1}},
	}, dst)

	want := []float32{1, 2, 3, 0, 0, 0, 4, 5, 6}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst[%d] = %v, want %v (dst=%v)", i, dst[i], want[i], dst)
		}
	}
	if m0.calls != 1 {
		t.Fatalf("slot 0 calls = %d, want 1", m0.calls)
	}
	if m2.calls != 0 {
		t.Fatalf("slot 2 calls = %d, want 0", m2.calls)
	}
}

func TestDispatch_ExcessTransformsIgnored(t *testing.T) {
	m0 := &stubModel{out: []float32{1, 1, 1}}
	reg := registryWith([]loadedModel{{model: m0, vertices: []int{0}}})

	dst := make([]float32, 3)
	reg.Dispatch(context.Background(), make([]Transform, 5), dst)
	if m0.calls != 1 {
		t.Fatalf("calls = %d, want 1", m0.calls)
	}
	if dst[0] != 1 {
		t.Fatalf("dst = %v", dst)
	}
}

func TestDispatch_OverlapHigherSlotWins(t *testing.T) {
	reg := registryWith([]loadedModel{
		{model: &stubModel{out: []float32{1, 1, 1}}, vertices: []int{5}},
		{model: &stubModel{out: []float32{7, 8, 9}}, vertices: []int{5}},
	})

	dst := make([]float32, 18)
	reg.Dispatch(context.Background(), make([]Transform, 2), dst)
	if dst[15] != 7 || dst[16] != 8 || dst[17] != 9 {
		t.Fatalf("vertex 5 delta = %v, want slot 1's prediction", dst[15:18])
	}
}

func TestDispatch_NormalizedRoundTrip(t *testing.T) {
	m := &stubModel{out: []float32{0.5, 0.5, 0.5}}
	reg := registryWith([]loadedModel{{
		model:      m,
		vertices:   []int{0},
		normalized: true,
		bounds: Bounds{
			TransMin: []float32{0, 0, 0},
			TransMax: []float32{2, 2, 2},
			VertsMin: []float32{-1, 0, 10},
			VertsMax: []float32{1, 2, 30},
		},
	}})

	dst := make([]float32, 3)
	reg.Dispatch(context.Background(), []Transform{
		{Rotation: [4]float32{0, 0, 0, 1}, Translation: [3]float32{1, 2, 0}},
	}, dst)

	// Input was normalized before invocation.
	wantIn := []float32{0, 0, 0, 1, 0.5, 1, 0}
	for i := range wantIn {
		if m.lastIn[i] != wantIn[i] {
			t.Fatalf("model input[%d] = %v, want %v (in=%v)", i, m.lastIn[i], wantIn[i], m.lastIn)
		}
	}
	// Output was denormalized before scatter.
	want := []float32{0, 1, 20}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}

func TestDispatch_PredictErrorSkipsSlot(t *testing.T) {
	reg := registryWith([]loadedModel{
		{model: &stubModel{err: fmt.Errorf("backend down")}, vertices: []int{0}},
		{model: &stubModel{out: []float32{2, 2, 2}}, vertices: []int{1}},
	})

	dst := make([]float32, 6)
	reg.Dispatch(context.Background(), make([]Transform, 2), dst)
	if dst[0] != 0 || dst[1] != 0 || dst[2] != 0 {
		t.Fatalf("failing slot wrote deltas: %v", dst[:3])
	}
	if dst[3] != 2 {
		t.Fatalf("healthy slot skipped: %v", dst)
	}
}

func TestDispatch_OutOfRangeVertexSkipped(t *testing.T) {
	reg := registryWith([]loadedModel{
		{model: &stubModel{out: []float32{1, 1, 1, 2, 2, 2}}, vertices: []int{0, 99}},
	})

	dst := make([]float32, 6)
	reg.Dispatch(context.Background(), make([]Transform, 1), dst)
	if dst[0] != 1 {
		t.Fatalf("in-range vertex not written: %v", dst)
	}
	for i := 3; i < 6; i++ {
		if dst[i] != 0 {
			t.Fatalf("out-of-range vertex leaked into dst: %v", dst)
		}
	}
}

func TestDispatch_ShortOutputGuarded(t *testing.T) {
	// Model yields one vertex worth of data but the slot claims two.
	reg := registryWith([]loadedModel{
		{model: &stubModel{out: []float32{1, 2, 3}}, vertices: []int{0, 1}},
	})

	dst := make([]float32, 6)
	reg.Dispatch(context.Background(), make([]Transform, 1), dst)
	if dst[0] != 1 || dst[2] != 3 {
		t.Fatalf("prefix not scattered: %v", dst)
	}
	if dst[3] != 0 {
		t.Fatalf("vertex beyond output written: %v", dst)
	}
}
