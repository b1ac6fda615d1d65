package registration

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// normalizeResult carries the per-cloud centroid and the scale parameters
// C2 derives from it, per spec §4.2.
type normalizeResult struct {
	centroidA, centroidB Vec3
	globalScale          float64
	startScale           float64
}

// normalize centers clouds a and b on their own centroids (mutating them in
// place) and, unless useAbsoluteScale, rescales both by their joint max
// post-centering radius.
func normalize(a, b PointCloud, useAbsoluteScale bool) normalizeResult {
	centroidA := centroidOf(a)
	centroidB := centroidOf(b)

	subtract(a, centroidA)
	subtract(b, centroidB)

	r := max(maxRadius(a), maxRadius(b))

	var res normalizeResult
	res.centroidA, res.centroidB = centroidA, centroidB

	if useAbsoluteScale {
		res.globalScale = 1
		res.startScale = r
		return res
	}

	res.globalScale = r
	res.startScale = 1
	if r > 0 {
		scaleInPlace(a, 1/r)
		scaleInPlace(b, 1/r)
	}
	return res
}

func centroidOf(pc PointCloud) Vec3 {
	n := float64(len(pc))
	xs := make([]float64, len(pc))
	ys := make([]float64, len(pc))
	zs := make([]float64, len(pc))
	for i, p := range pc {
		xs[i], ys[i], zs[i] = p[0], p[1], p[2]
	}
	return Vec3{floats.Sum(xs) / n, floats.Sum(ys) / n, floats.Sum(zs) / n}
}

func subtract(pc PointCloud, v Vec3) {
	for i := range pc {
		pc[i] = pc[i].sub(v)
	}
}

func scaleInPlace(pc PointCloud, s float64) {
	for i := range pc {
		pc[i] = pc[i].scale(s)
	}
}

func maxRadius(pc PointCloud) float64 {
	radii := make([]float64, len(pc))
	for i, p := range pc {
		radii[i] = p.norm2()
	}
	if len(radii) == 0 {
		return 0
	}
	maxSq := floats.Max(radii)
	return math.Sqrt(maxSq)
}
