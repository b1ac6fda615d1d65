package registration

import (
	"github.com/ZanzyTHEbar/fastreg/internal/kdindex"
)

// Options configures one Register call. The zero value is not valid;
// callers should start from DefaultOptions().
type Options struct {
	// DivisionFactor is the μ decay multiplier applied every 4 iterations
	// when DecreaseMu is set. Must be > 1.
	DivisionFactor float64
	// UseAbsoluteScale skips the global rescale in C2 (§4.2).
	UseAbsoluteScale bool
	// DecreaseMu enables the GNC annealing schedule (§4.4.2).
	DecreaseMu bool
	// MaximumCorrespondenceDistance floors μ's decay and gates the final
	// inlier count.
	MaximumCorrespondenceDistance float64
	// IterationNumber is the solver's fixed iteration count (no early
	// stop, per §4.4.4).
	IterationNumber int
	// TupleScale is the tuple-consistency edge-length-ratio gate, in
	// (0,1).
	TupleScale float64
	// MaximumTupleCount caps accepted tuples in §4.3.4.
	MaximumTupleCount int
	// RNGSeed seeds the tuple sampler. The zero value is itself a valid,
	// reproducible seed (see DESIGN.md's Open Question decisions).
	RNGSeed uint64
	// Logger receives progress and counts; nil uses a no-op logger.
	Logger Logger
}

// DefaultOptions returns the option set from spec §6.1's default column.
func DefaultOptions() Options {
	return Options{
		DivisionFactor:                1.4,
		UseAbsoluteScale:              false,
		DecreaseMu:                    true,
		MaximumCorrespondenceDistance: 0.025,
		IterationNumber:               64,
		TupleScale:                    0.95,
		MaximumTupleCount:             1000,
		RNGSeed:                       0,
	}
}

// Result carries Register's outcome.
type Result struct {
	// Transform is the public-API convention: aligns A to B, i.e. the
	// inverse of the world-space "T*B≈A" transform computed internally
	// (§4.5 step 7).
	Transform Transform
	// TransformBToA is the pre-inverse transform: applying it to the
	// original (un-normalized) cloud B aligns it with the original cloud
	// A. Exposed alongside Transform since both are one inversion apart
	// and the underlying solve computes this one first.
	TransformBToA Transform
	// InlierCount is the final correspondence count passing the
	// correspondence-distance threshold after the solve.
	InlierCount int
	// FinalMu is the GNC scale parameter at the end of the solve, or -1 if
	// the solver returned early for insufficient correspondences.
	FinalMu float64
	// MeanResidual is the mean per-correspondence residual distance (in
	// normalized space) after the solve, a diagnostic alongside InlierCount.
	MeanResidual float64
	// Insufficient is set when tuple filtering left fewer than 10
	// correspondences; Transform and TransformBToA are both identity.
	Insufficient bool
	// NumericalFailure is set when the solver's Cholesky factorization
	// failed on a singular system; Transform is the best-so-far estimate
	// at the point of failure.
	NumericalFailure bool
}

// Register performs pairwise rigid alignment of source against target using
// their respective feature descriptors.
//
// source/target are mutated internally only via deep copies; the caller's
// slices are untouched.
func Register(source, target PointCloud, sourceFeat, targetFeat *FeatureMatrix, opts Options) (Result, error) {
	if err := validate(source, target, sourceFeat, targetFeat); err != nil {
		return Result{}, err
	}
	log := opts.Logger
	if log == nil {
		log = noopLogger{}
	}

	// §4.5 step 1: deep-copy inputs, since C2 mutates them.
	a := source.Clone()
	b := target.Clone()

	// §4.5 step 2: normalize.
	norm := normalize(a, b, opts.UseAbsoluteScale)

	// §4.5 step 3: build descriptor KNN indices, unnormalized.
	indexA, err := buildDescriptorIndex(sourceFeat)
	if err != nil {
		return Result{}, err
	}
	indexB, err := buildDescriptorIndex(targetFeat)
	if err != nil {
		return Result{}, err
	}

	// §4.5 step 4: correspondence search.
	corres := buildCorrespondences(a, b, sourceFeat, targetFeat, indexA, indexB, opts, log)

	if len(corres) < minCorrespondences {
		log.Warn("registration: only %d correspondences after tuple pruning, returning identity", len(corres))
		return Result{
			Transform:     Identity(),
			TransformBToA: Identity(),
			FinalMu:       -1,
			Insufficient:  true,
		}, nil
	}

	// §4.5 step 5: solve in normalized space.
	sr := solvePairwise(a, b, corres, norm.startScale, opts, log)

	result := Result{
		InlierCount:      sr.inlierCount,
		FinalMu:          sr.finalMu,
		MeanResidual:     sr.meanResidual,
		NumericalFailure: !sr.numericalOK,
	}

	// §4.5 step 6: de-normalize. R = R_n, t = -R_n*mu_B + global_scale*t_n + mu_A.
	world := denormalize(sr.transform, norm)
	result.TransformBToA = world
	// §4.5 step 7: public API aligns A to B, the inverse of the above.
	result.Transform = world.Inverse()

	return result, nil
}

func buildDescriptorIndex(f *FeatureMatrix) (*kdindex.Index, error) {
	rows := make([][]float64, f.N)
	for j := 0; j < f.N; j++ {
		rows[j] = f.Col(j)
	}
	idx, err := kdindex.Build(rows)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func denormalize(tn Transform, norm normalizeResult) Transform {
	var world Transform
	world.R = tn.R
	// t = -R_n * mu_B + global_scale * t_n + mu_A
	var rMuB Vec3
	for r := 0; r < 3; r++ {
		rMuB[r] = tn.R[r][0]*norm.centroidB[0] + tn.R[r][1]*norm.centroidB[1] + tn.R[r][2]*norm.centroidB[2]
	}
	world.T = rMuB.scale(-1).add(tn.T.scale(norm.globalScale)).add(norm.centroidA)
	return world
}

func validate(source, target PointCloud, sourceFeat, targetFeat *FeatureMatrix) error {
	if len(source) == 0 || len(target) == 0 {
		return ErrEmptyInput
	}
	if sourceFeat == nil || targetFeat == nil || sourceFeat.N == 0 || targetFeat.N == 0 {
		return ErrEmptyInput
	}
	if len(source) != sourceFeat.N {
		return dimensionMismatchf("source cloud has %d points, feature matrix has %d columns", len(source), sourceFeat.N)
	}
	if len(target) != targetFeat.N {
		return dimensionMismatchf("target cloud has %d points, feature matrix has %d columns", len(target), targetFeat.N)
	}
	if sourceFeat.D != targetFeat.D {
		return dimensionMismatchf("source descriptor width %d differs from target %d", sourceFeat.D, targetFeat.D)
	}
	return nil
}
