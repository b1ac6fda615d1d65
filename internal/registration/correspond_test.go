package registration

import (
	"testing"

	"github.com/ZanzyTHEbar/fastreg/internal/kdindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oneHotFeatures(n, d int) *FeatureMatrix {
	fm := NewFeatureMatrix(d, n, nil)
	for j := 0; j < n && j < d; j++ {
		fm.Col(j)[j] = 1.0
	}
	return fm
}

func buildIndex(t *testing.T, f *FeatureMatrix) *kdindex.Index {
	t.Helper()
	rows := make([][]float64, f.N)
	for j := 0; j < f.N; j++ {
		rows[j] = f.Col(j)
	}
	idx, err := kdindex.Build(rows)
	require.NoError(t, err)
	return idx
}

func TestBuildCorrespondencesIdentityMatch(t *testing.T) {
	n := 40
	a := cubeLattice()[:n]
	b := a.Clone()
	fa := oneHotFeatures(n, n)
	fb := oneHotFeatures(n, n)

	idxA := buildIndex(t, fa)
	idxB := buildIndex(t, fb)

	opts := DefaultOptions()
	opts.MaximumTupleCount = 100

	corres := buildCorrespondences(a, b, fa, fb, idxA, idxB, opts, nil)

	require.NotEmpty(t, corres)
	assert.LessOrEqual(t, len(corres), 3*opts.MaximumTupleCount)
	for _, c := range corres {
		assert.Equal(t, c.I, c.J) // identical descriptors => identical indices
	}
}

func TestBuildCorrespondencesTupleCapHonored(t *testing.T) {
	n := 40
	a := cubeLattice()[:n]
	b := a.Clone()
	fa := oneHotFeatures(n, n)
	fb := oneHotFeatures(n, n)

	idxA := buildIndex(t, fa)
	idxB := buildIndex(t, fb)

	opts := DefaultOptions()
	opts.MaximumTupleCount = 5

	corres := buildCorrespondences(a, b, fa, fb, idxA, idxB, opts, nil)

	assert.LessOrEqual(t, len(corres), 3*5)
}

func TestBuildCorrespondencesAsymmetryHandledBothWays(t *testing.T) {
	// B larger than A: internal swap logic should still produce pairs in
	// (A,B) orientation (i < len(A), j < len(B)).
	nA, nB := 10, 30
	a := cubeLattice()[:nA]
	bFull := cubeLattice()
	b := make(PointCloud, nB)
	copy(b, bFull[:nB])
	// Make B's first nA points equal A's, so identity descriptors line up.
	copy(b, a)

	fa := oneHotFeatures(nA, nB)
	fb := oneHotFeatures(nB, nB)

	idxA := buildIndex(t, fa)
	idxB := buildIndex(t, fb)

	opts := DefaultOptions()

	corres := buildCorrespondences(a, b, fa, fb, idxA, idxB, opts, nil)
	for _, c := range corres {
		assert.Less(t, c.I, nA)
		assert.Less(t, c.J, nB)
	}
}

func TestTuplePruneRejectsInconsistentTriangles(t *testing.T) {
	// A-side triangle has very different edge lengths than B-side; the
	// gate should reject essentially all samples with a tight scale.
	cA := PointCloud{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	cB := PointCloud{{0, 0, 0}, {100, 0, 0}, {0, 100, 0}}
	corres := []CorrespondencePair{{I: 0, J: 0}, {I: 1, J: 1}, {I: 2, J: 2}}

	opts := DefaultOptions()
	opts.TupleScale = 0.95
	opts.MaximumTupleCount = 1000

	out := tuplePrune(cA, cB, corres, opts, nil)
	assert.Empty(t, out)
}

func TestTuplePruneAcceptsConsistentTriangles(t *testing.T) {
	cA := PointCloud{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}}
	cB := PointCloud{{5, 5, 5}, {6, 5, 5}, {5, 6, 5}, {6, 6, 5}} // rigid translation
	corres := []CorrespondencePair{{I: 0, J: 0}, {I: 1, J: 1}, {I: 2, J: 2}, {I: 3, J: 3}}

	opts := DefaultOptions()
	opts.MaximumTupleCount = 10

	out := tuplePrune(cA, cB, corres, opts, nil)
	assert.NotEmpty(t, out)
	assert.LessOrEqual(t, len(out), 30)
}

func TestTuplePruneDeterministicWithSeed(t *testing.T) {
	cA := PointCloud{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}, {2, 2, 2}}
	cB := PointCloud{{5, 5, 5}, {6, 5, 5}, {5, 6, 5}, {6, 6, 5}, {7, 7, 7}}
	corres := []CorrespondencePair{{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}}

	opts := DefaultOptions()
	opts.RNGSeed = 42
	opts.MaximumTupleCount = 20

	out1 := tuplePrune(cA, cB, corres, opts, nil)
	out2 := tuplePrune(cA, cB, corres, opts, nil)
	assert.Equal(t, out1, out2)
}
