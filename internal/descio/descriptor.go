// Package descio reads the legacy per-cloud descriptor binary format: point
// positions are discarded here (they come from the point-cloud file, a
// separate collaborator), only the descriptor block is kept.
package descio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ZanzyTHEbar/fastreg/internal/registration"
)

// ErrIOFailure wraps any file-missing, truncated, or header-inconsistent
// condition.
var ErrIOFailure = errors.New("descio: io failure")

// ReadFile opens path and fully consumes the legacy descriptor format:
// little-endian int32 N, int32 D, then N records of [3 float32 xyz][D
// float32 descriptor]. The xyz block is discarded; the returned matrix
// holds only the descriptor columns.
func ReadFile(path string) (*registration.FeatureMatrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIOFailure, err)
	}
	defer f.Close()
	return Read(f)
}

// Read consumes r per the format ReadFile documents.
func Read(r io.Reader) (*registration.FeatureMatrix, error) {
	var header [2]int32
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrIOFailure, err)
	}
	n, d := int(header[0]), int(header[1])
	if n < 0 || d < 0 {
		return nil, fmt.Errorf("%w: negative N=%d or D=%d in header", ErrIOFailure, n, d)
	}

	fm := registration.NewFeatureMatrix(d, n, nil)
	xyz := make([]float32, 3)
	desc := make([]float32, d)

	for j := 0; j < n; j++ {
		if err := binary.Read(r, binary.LittleEndian, &xyz); err != nil {
			return nil, fmt.Errorf("%w: truncated record %d (xyz): %v", ErrIOFailure, j, err)
		}
		if err := binary.Read(r, binary.LittleEndian, &desc); err != nil {
			return nil, fmt.Errorf("%w: truncated record %d (descriptor): %v", ErrIOFailure, j, err)
		}
		col := fm.Col(j)
		for i, v := range desc {
			col[i] = float64(v)
		}
	}

	return fm, nil
}
