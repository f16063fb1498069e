//go:build !unix

package infer

import (
	"fmt"
	"os"
)

// readBlob stages a weight blob for decoding and returns a release func.
func readBlob(path string) ([]byte, func(), error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read weight blob %s: %w", path, err)
	}
	return data, func() {}, nil
}
