package rig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/okairos/deltarig/internal/manifest"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadRig_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	rigPath := filepath.Join(dir, "rig.yaml")
	writeFile(t, rigPath, `
manifest: out/output_data.json
positions: mesh/rest.f32
weights: mesh/paint.f32
envelope: 0.5
`)

	r, err := LoadRig(rigPath)
	if err != nil {
		t.Fatalf("LoadRig: %v", err)
	}
	if want := filepath.Join(dir, "out", "output_data.json"); r.Manifest != want {
		t.Errorf("Manifest = %q, want %q", r.Manifest, want)
	}
	if want := filepath.Join(dir, "mesh", "rest.f32"); r.Positions != want {
		t.Errorf("Positions = %q, want %q", r.Positions, want)
	}
	if want := filepath.Join(dir, "mesh", "paint.f32"); r.Weights != want {
		t.Errorf("Weights = %q, want %q", r.Weights, want)
	}
	if r.EnvelopeValue() != 0.5 {
		t.Errorf("EnvelopeValue = %v, want 0.5", r.EnvelopeValue())
	}
}

func TestLoadRig_EnvelopeDefaultsToOne(t *testing.T) {
	dir := t.TempDir()
	rigPath := filepath.Join(dir, "rig.yaml")
	writeFile(t, rigPath, "manifest: m.json\npositions: p.f32\n")

	r, err := LoadRig(rigPath)
	if err != nil {
		t.Fatalf("LoadRig: %v", err)
	}
	if r.EnvelopeValue() != 1 {
		t.Errorf("EnvelopeValue = %v, want 1", r.EnvelopeValue())
	}
	if r.Weights != "" {
		t.Errorf("Weights = %q, want empty", r.Weights)
	}
}

func TestLoadRig_RequiredFields(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		body string
	}{
		{"no manifest", "positions: p.f32\n"},
		{"no positions", "manifest: m.json\n"},
		{"bad yaml", "manifest: [unterminated\n"},
	}
	for _, tc := range cases {
		path := filepath.Join(dir, "rig.yaml")
		writeFile(t, path, tc.body)
		if _, err := LoadRig(path); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestLoadPose(t *testing.T) {
	dir := t.TempDir()
	posePath := filepath.Join(dir, "pose.yaml")
	writeFile(t, posePath, `
frames:
  - name: crouch
    joints:
      - slot: 0
        rotation: [0, 0, 0.707, 0.707]
        translation: [0, -1, 0]
`)

	p, err := LoadPose(posePath)
	if err != nil {
		t.Fatalf("LoadPose: %v", err)
	}
	if len(p.Frames) != 1 || p.Frames[0].Name != "crouch" {
		t.Fatalf("unexpected frames: %+v", p.Frames)
	}
	j := p.Frames[0].Joints[0]
	if j.Slot == nil || *j.Slot != 0 {
		t.Errorf("Slot = %v, want 0", j.Slot)
	}
	if j.Rotation != [4]float32{0, 0, 0.707, 0.707} {
		t.Errorf("Rotation = %v", j.Rotation)
	}
}

func TestLoadPose_EmptyFrames(t *testing.T) {
	dir := t.TempDir()
	posePath := filepath.Join(dir, "pose.yaml")
	writeFile(t, posePath, "frames: []\n")
	if _, err := LoadPose(posePath); err == nil {
		t.Fatal("expected error for empty frames")
	}
}

func posedManifest(t *testing.T) *manifest.Document {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "output_data.json")
	writeFile(t, path, `{
		"models": [
			{"root": "a", "meta": "a/m", "input": "in", "output": "out"},
			{"root": "b", "meta": "b/m", "input": "in", "output": "out"},
			{"root": "c", "meta": "c/m", "input": "in", "output": "out"}
		],
		"joint_map": [[0], [1], [2]],
		"joint_names": ["hip", "spine", "head"]
	}`)
	doc, err := manifest.Load(path)
	if err != nil {
		t.Fatalf("manifest.Load: %v", err)
	}
	return doc
}

func TestFrameTransforms_ByName(t *testing.T) {
	doc := posedManifest(t)
	f := Frame{Joints: []Joint{
		{Joint: "spine", Rotation: [4]float32{0.1, 0.2, 0.3, 0.9}, Translation: [3]float32{1, 2, 3}},
	}}

	ts, err := f.Transforms(doc)
	if err != nil {
		t.Fatalf("Transforms: %v", err)
	}
	if len(ts) != 2 {
		t.Fatalf("len = %d, want 2", len(ts))
	}
	// slot 0 is left at rest
	if ts[0].Rotation != [4]float32{0, 0, 0, 1} || ts[0].Translation != [3]float32{} {
		t.Errorf("rest transform = %+v", ts[0])
	}
	if ts[1].Rotation != f.Joints[0].Rotation || ts[1].Translation != f.Joints[0].Translation {
		t.Errorf("posed transform = %+v", ts[1])
	}
}

func TestFrameTransforms_BySlot(t *testing.T) {
	doc := posedManifest(t)
	two := 2
	f := Frame{Joints: []Joint{
		{Slot: &two, Translation: [3]float32{0, 1, 0}},
	}}

	ts, err := f.Transforms(doc)
	if err != nil {
		t.Fatalf("Transforms: %v", err)
	}
	if len(ts) != 3 {
		t.Fatalf("len = %d, want 3", len(ts))
	}
	if ts[2].Translation != [3]float32{0, 1, 0} {
		t.Errorf("slot 2 = %+v", ts[2])
	}
}

func TestFrameTransforms_Errors(t *testing.T) {
	doc := posedManifest(t)
	neg := -1
	cases := []struct {
		name string
		f    Frame
	}{
		{"unknown joint", Frame{Joints: []Joint{{Joint: "tail"}}}},
		{"negative slot", Frame{Joints: []Joint{{Slot: &neg}}}},
		{"unaddressed", Frame{Joints: []Joint{{}}}},
	}
	for _, tc := range cases {
		if _, err := tc.f.Transforms(doc); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestBufferRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "positions.f32")
	want := []float32{0, 1.5, -2.25, 3e7, -0.001, 42}

	if err := WriteBuffer(path, want); err != nil {
		t.Fatalf("WriteBuffer: %v", err)
	}
	got, err := ReadBuffer(path)
	if err != nil {
		t.Fatalf("ReadBuffer: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestReadBuffer_TruncatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.f32")
	if err := os.WriteFile(path, []byte{1, 2, 3, 4, 5, 6}, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadBuffer(path); err == nil {
		t.Fatal("expected error for truncated buffer")
	}
}
