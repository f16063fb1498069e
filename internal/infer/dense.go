package infer

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/chewxy/math32"
)

type nativeRuntime struct{}

// NewNative returns the in-process runtime that executes dense models
// directly from their weight blobs.
func NewNative() Runtime {
	return &nativeRuntime{}
}

func (r *nativeRuntime) Name() string { return "native" }

// Load resolves a dense model artifact: descriptor, handle binding, weights.
//
// The handle names requested by the caller must match the ones the artifact
// declares; asking for a handle the graph does not have is a resolution
// failure, not a silent rebind.
func (r *nativeRuntime) Load(_ context.Context, ref ArtifactRef) (Model, error) {
	desc, err := LoadDescriptor(ref.Meta)
	if err != nil {
		return nil, err
	}
	if ref.Input != "" && ref.Input != desc.Input {
		return nil, fmt.Errorf("artifact %s has no input handle %q (declares %q)", ref.Meta, ref.Input, desc.Input)
	}
	if ref.Output != "" && ref.Output != desc.Output {
		return nil, fmt.Errorf("artifact %s has no output handle %q (declares %q)", ref.Meta, ref.Output, desc.Output)
	}

	weightsPath := desc.Weights
	if !filepath.IsAbs(weightsPath) {
		weightsPath = filepath.Join(ref.Root, weightsPath)
	}
	flat, err := readWeights(weightsPath, desc.WeightCount())
	if err != nil {
		return nil, err
	}

	layers := make([]denseLayer, len(desc.Layers))
	off := 0
	for i, spec := range desc.Layers {
		act, err := activation(spec.Activation)
		if err != nil {
			return nil, err
		}
		nw := spec.UnitsIn * spec.UnitsOut
		layers[i] = denseLayer{
			in:   spec.UnitsIn,
			out:  spec.UnitsOut,
			w:    flat[off : off+nw],
			bias: flat[off+nw : off+nw+spec.UnitsOut],
			act:  act,
		}
		off += nw + spec.UnitsOut
	}

	return &denseModel{
		layers: layers,
		inDim:  desc.Layers[0].UnitsIn,
		outDim: desc.Layers[len(desc.Layers)-1].UnitsOut,
	}, nil
}

// denseLayer holds one layer's weights as flat row-major float32:
// w[i*out+j] connects input i to output j.
type denseLayer struct {
	in   int
	out  int
	w    []float32
	bias []float32
	act  func(float32) float32
}

type denseModel struct {
	layers []denseLayer
	inDim  int
	outDim int
}

func (m *denseModel) InputDim() int  { return m.inDim }
func (m *denseModel) OutputDim() int { return m.outDim }

func (m *denseModel) Predict(_ context.Context, in []float32) ([]float32, error) {
	if len(in) != m.inDim {
		return nil, fmt.Errorf("input length %d, model expects %d", len(in), m.inDim)
	}
	cur := in
	for li := range m.layers {
		l := &m.layers[li]
		next := make([]float32, l.out)
		for j := 0; j < l.out; j++ {
			sum := l.bias[j]
			for i := 0; i < l.in; i++ {
				sum += cur[i] * l.w[i*l.out+j]
			}
			next[j] = l.act(sum)
		}
		cur = next
	}
	return cur, nil
}

// activation resolves an activation name to its element-wise function.
func activation(name string) (func(float32) float32, error) {
	switch name {
	case "", "linear":
		return func(x float32) float32 { return x }, nil
	case "tanh":
		return math32.Tanh, nil
	case "relu":
		return func(x float32) float32 {
			if x < 0 {
				return 0
			}
			return x
		}, nil
	case "sigmoid":
		return func(x float32) float32 { return 1 / (1 + math32.Exp(-x)) }, nil
	default:
		return nil, fmt.Errorf("unknown activation %q", name)
	}
}
