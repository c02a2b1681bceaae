package challenge

import "sort"

// Aggregate combines individual scores into a team total under a top-K rule:
// the K highest totals are summed and reported as contributors, descending.
// An empty score list or non-positive topK yields the zero aggregate, not an
// error.
func Aggregate(team string, scores []Score, topK int) TeamScore {
	if topK < 0 {
		topK = 0
	}

	totals := make([]int, len(scores))
	for i, s := range scores {
		totals[i] = s.Total
	}
	sort.Sort(sort.Reverse(sort.IntSlice(totals)))

	take := topK
	if take > len(totals) {
		take = len(totals)
	}

	contributors := make([]int, 0, take)
	total := 0
	for _, t := range totals[:take] {
		contributors = append(contributors, t)
		total += t
	}

	return TeamScore{
		Team:         team,
		Total:        total,
		Contributors: contributors,
	}
}
