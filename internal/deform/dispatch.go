package deform

import "context"

// Dispatch runs every bound model against its joint's transform and scatters
// the predicted deltas into dst, a flat xyz buffer of 3×vertexCount values.
//
// Transforms beyond the loaded slot list are ignored, as are slots beyond the
// transform list; an empty slot contributes nothing. Scattering overwrites:
// when two slots claim the same vertex, the higher slot index wins. A failing
// invocation skips that slot for this pass only.
func (r *Registry) Dispatch(ctx context.Context, transforms []Transform, dst []float32) {
	models := r.snapshot()
	for i, tr := range transforms {
		if i >= len(models) {
			continue
		}
		lm := &models[i]
		if lm.model == nil {
			continue
		}

		in := tr.Vector()
		if lm.normalized {
			in = NormalizeTransform(in, lm.bounds)
		}
		out, err := lm.model.Predict(ctx, in)
		if err != nil {
			r.log.Error("model invocation failed", "slot", i, "err", err)
			continue
		}
		if lm.normalized {
			out = DenormalizePrediction(out, lm.bounds)
		}

		for k, v := range lm.vertices {
			src := 3 * k
			if src+3 > len(out) {
				break
			}
			di := 3 * v
			if v < 0 || di+3 > len(dst) {
				// Mesh size is unknown at load time, so stale vertex lists
				// surface here.
				r.log.Debug("vertex outside mesh", "slot", i, "vertex", v)
				continue
			}
			dst[di] = out[src]
			dst[di+1] = out[src+1]
			dst[di+2] = out[src+2]
		}
	}
}
