//go:build unix

package infer

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// readBlob stages a weight blob for decoding and returns a release func.
//
// Trained rigs carry one blob per joint and the sum easily reaches hundreds
// of megabytes; mapping read-only avoids holding a second heap copy of the
// raw bytes while they are decoded.
func readBlob(path string) ([]byte, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open weight blob %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot stat weight blob %s: %w", path, err)
	}
	if st.Size() == 0 {
		return nil, func() {}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot map weight blob %s: %w", path, err)
	}
	return data, func() { _ = unix.Munmap(data) }, nil
}
