package retrieval

import "sort"

// rrfConstant is the k in Reciprocal Rank Fusion's 1/(k + rank + 1) term.
const rrfConstant = 60.0

// Fuse combines any number of already-ranked result lists via Reciprocal
// Rank Fusion: result i of list L contributes 1/(rrfConstant + i + 1) to
// its fused score. Results are deduplicated by (Type, ID), keeping the
// earliest-appearing highlight, and the final list is sorted by fused score
// descending.
func Fuse(lists ...[]Result) []Result {
	type key struct {
		t  ResultType
		id string
	}

	byKey := map[key]*Result{}
	var order []key

	for _, list := range lists {
		for rank, r := range list {
			k := key{r.Type, r.ID}
			existing, seen := byKey[k]
			contribution := 1.0 / (rrfConstant + float64(rank) + 1)
			if !seen {
				copyR := r
				copyR.FusedScore = contribution
				byKey[k] = &copyR
				order = append(order, k)
				continue
			}
			existing.FusedScore += contribution
		}
	}

	fused := make([]Result, 0, len(order))
	for _, k := range order {
		fused = append(fused, *byKey[k])
	}
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].FusedScore > fused[j].FusedScore
	})
	return fused
}
