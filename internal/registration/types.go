// Package registration implements pairwise rigid alignment of two 3D point
// clouds from precomputed per-point feature descriptors: mutual-nearest-
// neighbor correspondence search in descriptor space, tuple-consistency
// pruning, and a graduated-non-convexity Gauss-Newton pose solver.
package registration

// Vec3 is a 3D point or vector, double precision.
type Vec3 [3]float64

func (v Vec3) add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v Vec3) sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

func (v Vec3) scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

func (v Vec3) norm2() float64 {
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// PointCloud is an ordered, indexed sequence of 3D points.
type PointCloud []Vec3

// Clone returns a deep copy.
func (pc PointCloud) Clone() PointCloud {
	out := make(PointCloud, len(pc))
	copy(out, pc)
	return out
}

// FeatureMatrix is a D×N dense matrix of per-point descriptors stored
// column-major by point: Col(j) is the descriptor of point j.
type FeatureMatrix struct {
	D, N int
	data []float64 // length D*N, data[j*D+d] is point j's d-th component
}

// NewFeatureMatrix allocates a D×N matrix. data, if non-nil, must have
// length D*N and is used directly (not copied).
func NewFeatureMatrix(d, n int, data []float64) *FeatureMatrix {
	if data == nil {
		data = make([]float64, d*n)
	}
	return &FeatureMatrix{D: d, N: n, data: data}
}

// Col returns point j's descriptor as a D-length slice sharing storage with
// the matrix.
func (f *FeatureMatrix) Col(j int) []float64 {
	return f.data[j*f.D : (j+1)*f.D]
}

// SetCol copies v into point j's descriptor column.
func (f *FeatureMatrix) SetCol(j int, v []float64) {
	copy(f.Col(j), v)
}

// CorrespondencePair is an ordered pair (I, J): point I in cloud A matches
// point J in cloud B.
type CorrespondencePair struct {
	I, J int
}

// Transform is a 4x4 rigid transformation, row-major: applying it to a
// point p (as a homogeneous column vector) yields R*p + t.
type Transform struct {
	R [3][3]float64
	T Vec3
}

// Identity returns the identity rigid transform.
func Identity() Transform {
	return Transform{R: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
}

// Apply maps p through the transform: R*p + t.
func (tr Transform) Apply(p Vec3) Vec3 {
	return Vec3{
		tr.R[0][0]*p[0] + tr.R[0][1]*p[1] + tr.R[0][2]*p[2] + tr.T[0],
		tr.R[1][0]*p[0] + tr.R[1][1]*p[1] + tr.R[1][2]*p[2] + tr.T[1],
		tr.R[2][0]*p[0] + tr.R[2][1]*p[1] + tr.R[2][2]*p[2] + tr.T[2],
	}
}

// Compose returns the transform that applies tr first, then other: i.e.
// other ∘ tr.
func (tr Transform) Compose(other Transform) Transform {
	var out Transform
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += other.R[r][k] * tr.R[k][c]
			}
			out.R[r][c] = s
		}
	}
	// out.T = other.R * tr.T + other.T
	var rt Vec3
	for r := 0; r < 3; r++ {
		rt[r] = other.R[r][0]*tr.T[0] + other.R[r][1]*tr.T[1] + other.R[r][2]*tr.T[2]
	}
	out.T = rt.add(other.T)
	return out
}

// Inverse returns the inverse rigid transform: R' = Rᵀ, t' = -Rᵀt.
func (tr Transform) Inverse() Transform {
	var out Transform
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out.R[r][c] = tr.R[c][r]
		}
	}
	var rt Vec3
	for r := 0; r < 3; r++ {
		rt[r] = out.R[r][0]*tr.T[0] + out.R[r][1]*tr.T[1] + out.R[r][2]*tr.T[2]
	}
	out.T = rt.scale(-1)
	return out
}
