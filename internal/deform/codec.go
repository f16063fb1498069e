package deform

import "github.com/chewxy/math32"

// Bounds holds the normalization ranges a model was trained with.
// TransMax/TransMin span the three translation axes; VertsMax/VertsMin span
// every output component.
type Bounds struct {
	TransMax []float32
	TransMin []float32
	VertsMax []float32
	VertsMin []float32
}

// NormalizeTransform maps a raw pose vector into the model's trained input
// range. Rotation components pass through unchanged; translation components
// are rescaled to (t - min) / (max - min) per axis. The input is not mutated.
//
// Zero-width bounds would divide to NaN or Inf; those components degrade to
// zero so a degenerate training range cannot poison the whole pose.
func NormalizeTransform(in []float32, b Bounds) []float32 {
	out := make([]float32, len(in))
	copy(out, in)
	n := len(b.TransMax)
	if len(b.TransMin) < n {
		n = len(b.TransMin)
	}
	for axis := 0; axis < 3 && axis < n; axis++ {
		i := 4 + axis
		if i >= len(out) {
			break
		}
		out[i] = sanitize((in[i] - b.TransMin[axis]) / (b.TransMax[axis] - b.TransMin[axis]))
	}
	return out
}

// DenormalizePrediction maps raw model output back to world-scale deltas:
// pred * (max - min) + min per component. The input is not mutated.
func DenormalizePrediction(pred []float32, b Bounds) []float32 {
	out := make([]float32, len(pred))
	copy(out, pred)
	n := len(pred)
	if len(b.VertsMax) < n {
		n = len(b.VertsMax)
	}
	if len(b.VertsMin) < n {
		n = len(b.VertsMin)
	}
	for i := 0; i < n; i++ {
		out[i] = sanitize(pred[i]*(b.VertsMax[i]-b.VertsMin[i]) + b.VertsMin[i])
	}
	return out
}

func sanitize(v float32) float32 {
	if math32.IsNaN(v) || math32.IsInf(v, 0) {
		return 0
	}
	return v
}
