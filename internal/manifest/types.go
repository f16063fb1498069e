package manifest

// Slot describes one joint's bound correction model.
type Slot struct {
	Root       string    `json:"root"`
	Meta       string    `json:"meta"`
	Input      string    `json:"input"`
	Output     string    `json:"output"`
	Normalized bool      `json:"normalized"`
	TransMax   []float32 `json:"trans_max"`
	TransMin   []float32 `json:"trans_min"`
	VertsMax   []float32 `json:"verts_max"`
	VertsMin   []float32 `json:"verts_min"`
}

// Document is a parsed deformer manifest.
//
// Slots and JointMap are parallel: Slots[i] predicts deltas for exactly the
// vertices listed in JointMap[i], in that order. A nil slot is a joint that
// has no trained model.
type Document struct {
	Slots       []*Slot
	JointMap    [][]int
	JointNames  []string
	InputFields []string

	names map[string]int
}

// PoseFields is the transform component order every model is trained against.
var PoseFields = []string{"rx", "ry", "rz", "rw", "tx", "ty", "tz"}

// NumSlots returns the number of joint slots in the document.
func (d *Document) NumSlots() int {
	return len(d.Slots)
}

// SlotByName resolves a joint name to its slot index.
// Names are compared in Unicode NFC form.
func (d *Document) SlotByName(name string) (int, bool) {
	i, ok := d.names[nfc(name)]
	return i, ok
}

// PoseFieldsMatch reports whether the document's input_fields, when present,
// match the fixed rotation-then-translation order the engine composes.
func (d *Document) PoseFieldsMatch() bool {
	if len(d.InputFields) == 0 {
		return true
	}
	if len(d.InputFields) != len(PoseFields) {
		return false
	}
	for i, f := range d.InputFields {
		if f != PoseFields[i] {
			return false
		}
	}
	return true
}
