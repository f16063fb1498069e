package deform

// Blend adds the weighted deltas onto the mesh positions.
//
// The offset applied to vertex v is deltas[3v:3v+3] × envelope × weight(v),
// with no clamping. A nil Weights weighs every vertex 1.
func Blend(deltas []float32, envelope float32, w Weights, mesh Mesh) {
	n := mesh.NumVertices()
	for v := 0; v < n; v++ {
		base := 3 * v
		if base+3 > len(deltas) {
			break
		}
		wv := envelope
		if w != nil {
			wv *= w.Weight(v)
		}
		p := mesh.Position(v)
		p[0] += deltas[base] * wv
		p[1] += deltas[base+1] * wv
		p[2] += deltas[base+2] * wv
		mesh.SetPosition(v, p)
	}
}
