package registration

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// solveResult is C4's output: the fitted transform in normalized space, the
// final GNC scale parameter (-1 signals insufficient correspondences per
// §4.4.4), and whether the last Cholesky factorization succeeded.
type solveResult struct {
	transform    Transform
	finalMu      float64
	numericalOK  bool
	inlierCount  int
	meanResidual float64
}

const minCorrespondences = 10

// solvePairwise runs the GNC-annealed reweighted Gauss-Newton solve of
// §4.4. a and b are the normalized-space point clouds; corres indexes into
// them. startScale seeds the Geman-McClure scale parameter μ.
func solvePairwise(a, b PointCloud, corres []CorrespondencePair, startScale float64, opts Options, log Logger) solveResult {
	if len(corres) < minCorrespondences {
		return solveResult{transform: Identity(), finalMu: -1}
	}

	mu := startScale
	trans := Identity()

	// bCopy is the working copy of B's points, transformed in place by each
	// iteration's incremental delta (mirrors the source's pcj_copy).
	bCopy := make(PointCloud, len(corres))
	for k, c := range corres {
		bCopy[k] = b[c.J]
	}
	aPts := make(PointCloud, len(corres))
	for k, c := range corres {
		aPts[k] = a[c.I]
	}

	result := solveResult{numericalOK: true}

	for iter := 0; iter < opts.IterationNumber; iter++ {
		if opts.DecreaseMu && iter%4 == 0 && mu > opts.MaximumCorrespondenceDistance {
			mu /= opts.DivisionFactor
		}

		jtj := mat.NewSymDense(6, nil)
		jtr := mat.NewVecDense(6, nil)

		var jRow [6]float64
		for k := range corres {
			p := aPts[k]
			q := bCopy[k]
			r := p.sub(q)
			r2 := r.norm2()
			w := mu / (r2 + mu)
			w *= w

			// row 0 (residual x)
			jRow = [6]float64{0, -q[2], q[1], -1, 0, 0}
			accumulate(jtj, jtr, jRow, r[0], w)
			// row 1 (residual y)
			jRow = [6]float64{q[2], 0, -q[0], 0, -1, 0}
			accumulate(jtj, jtr, jRow, r[1], w)
			// row 2 (residual z)
			jRow = [6]float64{-q[1], q[0], 0, 0, 0, -1}
			accumulate(jtj, jtr, jRow, r[2], w)
		}

		var chol mat.Cholesky
		ok := chol.Factorize(jtj)
		if !ok {
			result.numericalOK = false
			if log != nil {
				log.Warn("solver: Cholesky factorization failed at iteration %d, returning best-so-far transform", iter)
			}
			break
		}

		var delta mat.VecDense
		var negJtr mat.VecDense
		negJtr.ScaleVec(-1, jtr)
		if err := chol.SolveVecTo(&delta, &negJtr); err != nil {
			result.numericalOK = false
			if log != nil {
				log.Warn("solver: solve failed at iteration %d: %v", iter, err)
			}
			break
		}

		wx, wy, wz := delta.AtVec(0), delta.AtVec(1), delta.AtVec(2)
		tx, ty, tz := delta.AtVec(3), delta.AtVec(4), delta.AtVec(5)

		incr := smallAngleTransform(wx, wy, wz, tx, ty, tz)
		trans = trans.Compose(incr)

		for k := range bCopy {
			bCopy[k] = incr.Apply(bCopy[k])
		}
	}

	result.transform = trans
	result.finalMu = mu
	result.inlierCount = countInliers(aPts, bCopy, opts.MaximumCorrespondenceDistance)
	result.meanResidual = meanResidualNorm(aPts, bCopy)
	return result
}

// meanResidualNorm reports the mean per-correspondence residual distance
// after the solve, a diagnostic alongside the inlier count.
func meanResidualNorm(a, b PointCloud) float64 {
	if len(a) == 0 {
		return 0
	}
	residuals := make([]float64, len(a))
	for i := range a {
		residuals[i] = math.Sqrt(a[i].sub(b[i]).norm2())
	}
	return stat.Mean(residuals, nil)
}

// countInliers reports how many correspondences have residual distance at
// or below the configured correspondence-distance floor after the solve,
// for Result's diagnostic inlier count.
func countInliers(a, b PointCloud, threshold float64) int {
	thr2 := threshold * threshold
	n := 0
	for i := range a {
		if a[i].sub(b[i]).norm2() <= thr2 {
			n++
		}
	}
	return n
}

func accumulate(jtj *mat.SymDense, jtr *mat.VecDense, j [6]float64, r, w float64) {
	for row := 0; row < 6; row++ {
		if j[row] == 0 {
			continue
		}
		jtr.SetVec(row, jtr.AtVec(row)+w*j[row]*r)
		for col := row; col < 6; col++ {
			jtj.SetSym(row, col, jtj.At(row, col)+w*j[row]*j[col])
		}
	}
}

// smallAngleTransform builds the source's small-angle composition
// Rz(wz)*Ry(wy)*Rx(wx), translation (tx,ty,tz), matching §4.4.3 exactly
// (not a true exponential map — this is deliberate parity with the
// original solver, which this redesign reproduces verbatim in algorithm).
func smallAngleTransform(wx, wy, wz, tx, ty, tz float64) Transform {
	rx := rotX(wx)
	ry := rotY(wy)
	rz := rotZ(wz)
	r := matMul3(matMul3(rz, ry), rx)
	return Transform{R: r, T: Vec3{tx, ty, tz}}
}

func rotX(a float64) [3][3]float64 {
	c, s := math.Cos(a), math.Sin(a)
	return [3][3]float64{
		{1, 0, 0},
		{0, c, -s},
		{0, s, c},
	}
}

func rotY(a float64) [3][3]float64 {
	c, s := math.Cos(a), math.Sin(a)
	return [3][3]float64{
		{c, 0, s},
		{0, 1, 0},
		{-s, 0, c},
	}
}

func rotZ(a float64) [3][3]float64 {
	c, s := math.Cos(a), math.Sin(a)
	return [3][3]float64{
		{c, -s, 0},
		{s, c, 0},
		{0, 0, 1},
	}
}

func matMul3(a, b [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += a[r][k] * b[k][c]
			}
			out[r][c] = s
		}
	}
	return out
}
