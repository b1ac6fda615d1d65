package registration

import "github.com/ZanzyTHEbar/fastreg/internal/kdindex"

// CountCorrespondencesWithin is a small, separately-testable helper mirroring
// the original EvaluateFeatureMatch tool's role: it returns how many
// descriptors in query have at least one point of target's index within
// radius in descriptor space. It is not part of the Register pipeline -- it exists to
// exercise kdindex's radius query independent of the correspondence builder.
func CountCorrespondencesWithin(target *kdindex.Index, query *FeatureMatrix, radius float64) (int, error) {
	if target == nil || query == nil {
		return 0, ErrEmptyInput
	}
	r2 := radius * radius
	count := 0
	for j := 0; j < query.N; j++ {
		idxs, _, err := target.Radius(descriptorVector(query.Col(j)), r2)
		if err != nil {
			return 0, err
		}
		if len(idxs) > 0 {
			count++
		}
	}
	return count, nil
}
