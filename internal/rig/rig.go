// Package rig loads the offline evaluation harness documents: a rig
// description naming the mesh buffers and manifest, and posed frames to
// evaluate against it.
package rig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/okairos/deltarig/internal/config"
	"github.com/okairos/deltarig/internal/deform"
	"github.com/okairos/deltarig/internal/manifest"
	"gopkg.in/yaml.v3"
)

// Rig describes the mesh and manifest an evaluation runs against.
// Relative paths are resolved against the rig file's directory.
type Rig struct {
	Manifest  string   `yaml:"manifest"`
	Positions string   `yaml:"positions"`         // flat xyz float32 buffer, 3n values
	Weights   string   `yaml:"weights,omitempty"` // per-vertex float32 buffer, n values
	Envelope  *float32 `yaml:"envelope,omitempty"`
}

// EnvelopeValue returns the rig's envelope, defaulting to 1 when unset.
func (r *Rig) EnvelopeValue() float32 {
	if r.Envelope == nil {
		return 1
	}
	return *r.Envelope
}

// Pose holds the frames to evaluate.
type Pose struct {
	Frames []Frame `yaml:"frames"`
}

// Frame is one frame's joint transforms.
type Frame struct {
	Name   string  `yaml:"name,omitempty"`
	Joints []Joint `yaml:"joints"`
}

// Joint poses one joint, addressed by slot index or by manifest joint name.
type Joint struct {
	Slot        *int       `yaml:"slot,omitempty"`
	Joint       string     `yaml:"joint,omitempty"`
	Rotation    [4]float32 `yaml:"rotation"` // quaternion x y z w
	Translation [3]float32 `yaml:"translation"`
}

// LoadRig reads and validates a rig document.
func LoadRig(path string) (*Rig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read rig %s: %w", path, err)
	}
	var r Rig
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if r.Manifest == "" {
		return nil, fmt.Errorf("rig %s: manifest is required", path)
	}
	if r.Positions == "" {
		return nil, fmt.Errorf("rig %s: positions is required", path)
	}
	base := filepath.Dir(path)
	if r.Manifest, err = resolvePath(base, r.Manifest); err != nil {
		return nil, err
	}
	if r.Positions, err = resolvePath(base, r.Positions); err != nil {
		return nil, err
	}
	if r.Weights != "" {
		if r.Weights, err = resolvePath(base, r.Weights); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

// LoadPose reads a pose document.
func LoadPose(path string) (*Pose, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read pose %s: %w", path, err)
	}
	var p Pose
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if len(p.Frames) == 0 {
		return nil, fmt.Errorf("pose %s: no frames", path)
	}
	return &p, nil
}

func resolvePath(base, p string) (string, error) {
	p, err := config.ExpandPath(p)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(p) {
		return p, nil
	}
	return filepath.Join(base, p), nil
}

// Transforms flattens a frame into slot-indexed transforms for dispatch.
// Entries addressed by name resolve through the manifest's joint names.
// Slots below the highest posed slot that the frame leaves unposed evaluate
// at rest: identity rotation, zero translation.
func (f *Frame) Transforms(doc *manifest.Document) ([]deform.Transform, error) {
	type posed struct {
		slot int
		j    Joint
	}
	entries := make([]posed, 0, len(f.Joints))
	maxSlot := -1
	for i, j := range f.Joints {
		slot := -1
		switch {
		case j.Slot != nil:
			slot = *j.Slot
			if slot < 0 {
				return nil, fmt.Errorf("frame %q: joints[%d]: negative slot %d", f.Name, i, slot)
			}
		case j.Joint != "":
			s, ok := doc.SlotByName(j.Joint)
			if !ok {
				return nil, fmt.Errorf("frame %q: unknown joint %q", f.Name, j.Joint)
			}
			slot = s
		default:
			return nil, fmt.Errorf("frame %q: joints[%d]: needs slot or joint", f.Name, i)
		}
		entries = append(entries, posed{slot: slot, j: j})
		if slot > maxSlot {
			maxSlot = slot
		}
	}

	out := make([]deform.Transform, maxSlot+1)
	for i := range out {
		out[i].Rotation = [4]float32{0, 0, 0, 1}
	}
	for _, e := range entries {
		out[e.slot] = deform.Transform{Rotation: e.j.Rotation, Translation: e.j.Translation}
	}
	return out, nil
}
