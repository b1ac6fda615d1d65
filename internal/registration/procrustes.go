package registration

import (
	"gonum.org/v1/gonum/mat"
)

// kabschRotation computes the least-squares rotation aligning centered
// source onto centered target (both length-n Vec3 slices, already
// centroid-subtracted) via the Kabsch/orthogonal-Procrustes SVD solution.
//
// This is the same covariance-matrix-then-SVD construction as a standard
// 2D Procrustes fit, generalized from 2D point pairs to 3D and stripped of
// the scale-factor and translation-composition steps this module's solver
// already owns -- it is used only as an independent closed-form cross-check
// against the iterative Gauss-Newton solver's rotation in tests, not in the
// Register pipeline itself.
func kabschRotation(centeredSource, centeredTarget []Vec3) [3][3]float64 {
	n := len(centeredSource)
	sourceData := make([]float64, 3*n)
	targetData := make([]float64, 3*n)
	for i := 0; i < n; i++ {
		for d := 0; d < 3; d++ {
			sourceData[d*n+i] = centeredSource[i][d]
			targetData[d*n+i] = centeredTarget[i][d]
		}
	}
	X := mat.NewDense(3, n, sourceData)
	Y := mat.NewDense(3, n, targetData)

	var h mat.Dense
	h.Mul(X, Y.T())

	var svd mat.SVD
	svd.Factorize(&h, mat.SVDThin)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var r mat.Dense
	r.Mul(&v, u.T())

	if mat.Det(&r) < 0 {
		d := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, -1})
		var vCorrected mat.Dense
		vCorrected.Mul(&v, d)
		r.Mul(&vCorrected, u.T())
	}

	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = r.At(i, j)
		}
	}
	return out
}
