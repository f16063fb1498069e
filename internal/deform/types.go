package deform

// Vec3 is one vertex position or offset.
type Vec3 [3]float32

// Transform is one joint's world transform: unit quaternion plus translation.
type Transform struct {
	Rotation    [4]float32 // quaternion x y z w
	Translation [3]float32
}

// Vector returns the transform as the flat pose vector models are trained
// against: rotation xyzw then translation xyz.
func (t Transform) Vector() []float32 {
	return []float32{
		t.Rotation[0], t.Rotation[1], t.Rotation[2], t.Rotation[3],
		t.Translation[0], t.Translation[1], t.Translation[2],
	}
}

// Mesh exposes vertex positions to the deformer.
type Mesh interface {
	NumVertices() int
	Position(i int) Vec3
	SetPosition(i int, p Vec3)
}

// BufferMesh is a Mesh backed by a flat xyz position buffer.
type BufferMesh struct {
	Positions []float32
}

func (m *BufferMesh) NumVertices() int {
	return len(m.Positions) / 3
}

func (m *BufferMesh) Position(i int) Vec3 {
	return Vec3{m.Positions[3*i], m.Positions[3*i+1], m.Positions[3*i+2]}
}

func (m *BufferMesh) SetPosition(i int, p Vec3) {
	m.Positions[3*i] = p[0]
	m.Positions[3*i+1] = p[1]
	m.Positions[3*i+2] = p[2]
}

// Weights supplies the per-vertex painted weight.
type Weights interface {
	Weight(i int) float32
}

// UniformWeights applies the same weight to every vertex.
type UniformWeights float32

func (w UniformWeights) Weight(int) float32 { return float32(w) }

// SliceWeights reads weights from a slice. Vertices beyond the slice weigh 1,
// matching hosts that only store explicitly painted values.
type SliceWeights []float32

func (w SliceWeights) Weight(i int) float32 {
	if i < 0 || i >= len(w) {
		return 1
	}
	return w[i]
}

// CacheState tracks whether loaded models reflect the current manifest path.
type CacheState int

const (
	// StateDirty means the registry must reload before the next dispatch.
	// It is the zero value: a fresh registry has nothing loaded.
	StateDirty CacheState = iota
	// StateClean means loaded models reflect the current manifest path.
	StateClean
)

func (s CacheState) String() string {
	if s == StateClean {
		return "clean"
	}
	return "dirty"
}
