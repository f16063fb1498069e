package rig

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// ReadBuffer loads a flat little-endian float32 buffer, the interchange
// format for mesh positions and paint weights.
func ReadBuffer(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read buffer %s: %w", path, err)
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("buffer %s: size %d is not a multiple of 4", path, len(data))
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// WriteBuffer writes a flat little-endian float32 buffer.
func WriteBuffer(path string, values []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create buffer %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, values); err != nil {
		_ = f.Close()
		return fmt.Errorf("cannot write buffer %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("cannot flush buffer %s: %w", path, err)
	}
	return f.Close()
}
