package registration

import (
	"math"
	"math/rand/v2"

	"github.com/ZanzyTHEbar/fastreg/internal/kdindex"
)

// descriptorVector adapts one feature column to kdindex.Vector.
type descriptorVector []float64

func (v descriptorVector) Dim() int         { return len(v) }
func (v descriptorVector) At(i int) float64 { return v[i] }

// buildCorrespondences runs §4.3 end to end: asymmetry handling, initial
// bidirectional matching, mandatory cross-check, and tuple-consistency
// pruning. cloudA/cloudB and featA/featB must already be in the (A,B)
// orientation the caller wants matched; this function performs its own
// internal larger-cloud-first swap and flips the output back.
func buildCorrespondences(
	cloudA, cloudB PointCloud,
	featA, featB *FeatureMatrix,
	indexA, indexB *kdindex.Index,
	opts Options,
	log Logger,
) []CorrespondencePair {
	// §4.3.1: let "i" (fi) be the larger cloud, "j" (fj) the smaller;
	// everything below runs in that orientation and is flipped back at the
	// end if swapped.
	swapped := false
	cA, cB := cloudA, cloudB
	fA, fB := featA, featB
	iA, iB := indexA, indexB
	if len(cloudB) > len(cloudA) {
		swapped = true
		cA, cB = cloudB, cloudA
		fA, fB = featB, featA
		iA, iB = indexB, indexA
	}

	nA, nB := len(cA), len(cB)

	// §4.3.2: initial bidirectional matching.
	iToJ := make([]int, nA)
	for i := range iToJ {
		iToJ[i] = -1
	}
	corresJI := make([]CorrespondencePair, nB)
	for j := 0; j < nB; j++ {
		idx, _, err := iA.KNN(descriptorVector(fB.Col(j)), 1)
		if err != nil || len(idx) == 0 {
			continue
		}
		i := idx[0]
		if iToJ[i] == -1 {
			ridx, _, err := iB.KNN(descriptorVector(fA.Col(i)), 1)
			if err == nil && len(ridx) > 0 {
				iToJ[i] = ridx[0]
			}
		}
		corresJI[j] = CorrespondencePair{I: i, J: j}
	}

	var corresIJ []CorrespondencePair
	for i := 0; i < nA; i++ {
		if iToJ[i] != -1 {
			corresIJ = append(corresIJ, CorrespondencePair{I: i, J: iToJ[i]})
		}
	}

	if log != nil {
		log.Debug("correspondence: initial candidates i->j=%d j->i=%d", len(corresIJ), len(corresJI))
	}

	// §4.3.3: mandatory cross-check. The source builds a combined pre-check
	// list and then immediately discards it when rebuilding the crossed
	// list; per §9 that dead assembly is not reproduced here.
	mi := make([][]int, nA)
	for _, p := range corresIJ {
		mi[p.I] = append(mi[p.I], p.J)
	}
	mj := make([][]int, nB)
	for _, p := range corresJI {
		mj[p.J] = append(mj[p.J], p.I)
	}

	var cross []CorrespondencePair
	for i := 0; i < nA; i++ {
		for _, j := range mi[i] {
			for _, back := range mj[j] {
				if back == i {
					cross = append(cross, CorrespondencePair{I: i, J: j})
				}
			}
		}
	}

	if log != nil {
		log.Debug("correspondence: after cross-check = %d", len(cross))
	}

	// §4.3.4: tuple-consistency pruning.
	tuples := tuplePrune(cA, cB, cross, opts, log)

	if swapped {
		for i := range tuples {
			tuples[i].I, tuples[i].J = tuples[i].J, tuples[i].I
		}
	}

	if log != nil {
		log.Debug("correspondence: final matches = %d", len(tuples))
	}

	return tuples
}

// tuplePrune implements §4.3.4's random-triple edge-ratio gate. Per §9's
// Open Question, sampled indices are not forced distinct and a degenerate
// triangle can pass trivially — this matches the source exactly.
func tuplePrune(cA, cB PointCloud, corres []CorrespondencePair, opts Options, log Logger) []CorrespondencePair {
	n := len(corres)
	if n == 0 {
		return nil
	}
	trials := n * 100
	scale := opts.TupleScale

	rng := rand.New(rand.NewPCG(opts.RNGSeed, opts.RNGSeed))

	var out []CorrespondencePair
	accepted := 0
	for t := 0; t < trials && accepted < opts.MaximumTupleCount; t++ {
		c0 := corres[rng.IntN(n)]
		c1 := corres[rng.IntN(n)]
		c2 := corres[rng.IntN(n)]

		a0, a1, a2 := cA[c0.I], cA[c1.I], cA[c2.I]
		b0, b1, b2 := cB[c0.J], cB[c1.J], cB[c2.J]

		lA := [3]float64{dist(a0, a1), dist(a1, a2), dist(a2, a0)}
		lB := [3]float64{dist(b0, b1), dist(b1, b2), dist(b2, b0)}

		ok := true
		for e := 0; e < 3; e++ {
			if !(scale*lA[e] < lB[e] && lB[e] < lA[e]/scale) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, c0, c1, c2)
			accepted++
		}
	}

	if log != nil {
		log.Debug("correspondence: tuple pruning accepted %d tuples of %d trials (cap %d)", accepted, trials, opts.MaximumTupleCount)
	}
	return out
}

func dist(a, b Vec3) float64 {
	d := a.sub(b)
	return math.Sqrt(d.norm2())
}
