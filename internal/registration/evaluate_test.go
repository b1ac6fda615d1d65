package registration

import (
	"testing"

	"github.com/ZanzyTHEbar/fastreg/internal/kdindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountCorrespondencesWithin(t *testing.T) {
	target := oneHotFeatures(5, 5)
	rows := make([][]float64, target.N)
	for j := 0; j < target.N; j++ {
		rows[j] = target.Col(j)
	}
	idx, err := kdindex.Build(rows)
	require.NoError(t, err)

	// Query matches three of the five targets exactly.
	query := NewFeatureMatrix(5, 3, nil)
	query.Col(0)[0] = 1
	query.Col(1)[2] = 1
	query.Col(2)[4] = 1

	count, err := CountCorrespondencesWithin(idx, query, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestCountCorrespondencesWithinEmpty(t *testing.T) {
	_, err := CountCorrespondencesWithin(nil, nil, 1.0)
	require.ErrorIs(t, err, ErrEmptyInput)
}
