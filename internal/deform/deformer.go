package deform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/okairos/deltarig/internal/infer"
)

// Frame carries the inputs for one evaluation pass.
type Frame struct {
	ManifestPath string
	Transforms   []Transform
	Envelope     float32
	Weights      Weights // nil weighs every vertex 1
	Mesh         Mesh
}

// Deformer applies learned per-joint corrective deltas to a mesh.
//
// A Deformer is not safe for concurrent Evaluate calls; hosts evaluating
// several meshes in parallel should give each its own instance.
type Deformer struct {
	reg    *Registry
	log    *slog.Logger
	deltas []float32
}

// Options configures a Deformer. The zero value selects the native runtime,
// the default logger, and a 5s manifest lock timeout.
type Options struct {
	Runtime     infer.Runtime
	Logger      *slog.Logger
	LockTimeout time.Duration
}

// New constructs a Deformer.
func New(opts Options) *Deformer {
	if opts.Runtime == nil {
		opts.Runtime = infer.NewNative()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Deformer{
		reg: NewRegistry(opts.Runtime, opts.Logger, opts.LockTimeout),
		log: opts.Logger,
	}
}

// MarkDirty forces a manifest reload on the next Evaluate.
func (d *Deformer) MarkDirty() {
	d.reg.MarkDirty()
}

// Registry exposes the underlying model registry for tooling; Evaluate is
// the normal path.
func (d *Deformer) Registry() *Registry {
	return d.reg
}

// Evaluate runs one full deformation pass: reload models if needed, predict
// per-joint deltas, and blend them onto the mesh.
//
// Load failures degrade to zero correction and are reported through the
// logger, never as an error: the host's evaluation loop must keep running.
// The only error is a host programming mistake (nil mesh).
func (d *Deformer) Evaluate(ctx context.Context, f Frame) error {
	if f.Mesh == nil {
		return fmt.Errorf("evaluate: nil mesh")
	}
	d.reg.Load(ctx, f.ManifestPath)

	n := 3 * f.Mesh.NumVertices()
	if cap(d.deltas) < n {
		d.deltas = make([]float32, n)
	}
	d.deltas = d.deltas[:n]
	for i := range d.deltas {
		d.deltas[i] = 0
	}

	d.reg.Dispatch(ctx, f.Transforms, d.deltas)
	Blend(d.deltas, f.Envelope, f.Weights, f.Mesh)
	return nil
}
