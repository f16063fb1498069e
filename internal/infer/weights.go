package infer

import (
	"encoding/binary"
	"fmt"
	"math"
)

// readWeights loads a little-endian float32 weight blob and checks its size
// against the descriptor's declared layer shapes.
func readWeights(path string, want int) ([]float32, error) {
	raw, release, err := readBlob(path)
	if err != nil {
		return nil, err
	}
	defer release()

	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("weight blob %s: size %d is not a multiple of 4 bytes", path, len(raw))
	}
	if len(raw) != want*4 {
		return nil, fmt.Errorf("weight blob %s: size mismatch: got %d floats, want %d", path, len(raw)/4, want)
	}

	out := make([]float32, want)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}
