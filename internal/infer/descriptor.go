package infer

import (
	"encoding/json"
	"fmt"
	"os"
)

// PoseDim is the fixed input width of every joint model: quaternion xyzw
// followed by translation xyz.
const PoseDim = 7

// Descriptor describes a serialized dense model: its graph handles, layer
// shapes, and where the weight blob lives.
type Descriptor struct {
	FormatVersion int         `json:"format_version"`
	Input         string      `json:"input"`
	Output        string      `json:"output"`
	Weights       string      `json:"weights"`
	Layers        []LayerSpec `json:"layers"`
}

// LayerSpec is one dense layer: a units_in × units_out weight matrix, a
// units_out bias vector, and an element-wise activation.
type LayerSpec struct {
	UnitsIn    int    `json:"units_in"`
	UnitsOut   int    `json:"units_out"`
	Activation string `json:"activation"`
}

// LoadDescriptor reads and validates a model descriptor.
func LoadDescriptor(path string) (*Descriptor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read descriptor %s: %w", path, err)
	}
	var d Descriptor
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("invalid descriptor JSON %s: %w", path, err)
	}
	if d.FormatVersion != 1 {
		return nil, fmt.Errorf("descriptor %s: unsupported format_version %d", path, d.FormatVersion)
	}
	if len(d.Layers) == 0 {
		return nil, fmt.Errorf("descriptor %s: no layers", path)
	}
	if d.Layers[0].UnitsIn != PoseDim {
		return nil, fmt.Errorf("descriptor %s: first layer units_in=%d, want %d", path, d.Layers[0].UnitsIn, PoseDim)
	}
	for i, l := range d.Layers {
		if l.UnitsIn <= 0 || l.UnitsOut <= 0 {
			return nil, fmt.Errorf("descriptor %s: layer %d has invalid shape %dx%d", path, i, l.UnitsIn, l.UnitsOut)
		}
		if _, err := activation(l.Activation); err != nil {
			return nil, fmt.Errorf("descriptor %s: layer %d: %w", path, i, err)
		}
		if i > 0 && d.Layers[i-1].UnitsOut != l.UnitsIn {
			return nil, fmt.Errorf("descriptor %s: layer %d units_in=%d does not chain from layer %d units_out=%d",
				path, i, l.UnitsIn, i-1, d.Layers[i-1].UnitsOut)
		}
	}
	if d.Weights == "" {
		d.Weights = "weights.f32"
	}
	return &d, nil
}

// WeightCount returns the number of float32 values the weight blob must hold.
func (d *Descriptor) WeightCount() int {
	n := 0
	for _, l := range d.Layers {
		n += l.UnitsIn*l.UnitsOut + l.UnitsOut
	}
	return n
}
