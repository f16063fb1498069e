package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/text/unicode/norm"
)

// Load reads and validates a deformer manifest.
//
// Failures are classified through ErrNotFound and ErrMalformed so callers can
// report a missing file differently from a broken one. Unknown keys in the
// document are ignored.
func Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("cannot read manifest %s: %w", path, err)
	}

	var raw struct {
		Models      []*Slot  `json:"models"`
		JointMap    [][]int  `json:"joint_map"`
		JointNames  []string `json:"joint_names"`
		InputFields []string `json:"input_fields"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("manifest %s: %w: %v", path, ErrMalformed, err)
	}
	if len(raw.Models) == 0 {
		return nil, fmt.Errorf("manifest %s: %w: no models defined", path, ErrMalformed)
	}
	if len(raw.JointMap) != len(raw.Models) {
		return nil, fmt.Errorf("manifest %s: %w: models=%d joint_map=%d", path, ErrMalformed, len(raw.Models), len(raw.JointMap))
	}

	doc := &Document{
		Slots:       raw.Models,
		JointMap:    raw.JointMap,
		InputFields: raw.InputFields,
		names:       make(map[string]int, len(raw.JointNames)),
	}
	// DCC exports are not consistent about composed vs decomposed Unicode in
	// joint paths; store and look names up in NFC form.
	for i, name := range raw.JointNames {
		if i >= len(doc.Slots) {
			break
		}
		n := nfc(name)
		doc.JointNames = append(doc.JointNames, n)
		if _, dup := doc.names[n]; !dup {
			doc.names[n] = i
		}
	}
	return doc, nil
}

func nfc(s string) string {
	return norm.NFC.String(s)
}

// JointName returns the joint name for slot i, or "" when names are absent.
func (d *Document) JointName(i int) string {
	if i < 0 || i >= len(d.JointNames) {
		return ""
	}
	return d.JointNames[i]
}
