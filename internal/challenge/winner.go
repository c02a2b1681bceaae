package challenge

// NoWinner is the sentinel ResolveWinner returns for an empty field or a
// tie. A tie is a valid, expected outcome the caller must handle (re-run a
// tiebreaker, declare joint winners); it is never an error here.
const NoWinner = -1

// ResolveWinner returns the index of the single highest total, or NoWinner
// when the input is empty or more than one entry shares the maximum.
func ResolveWinner(totals []int) int {
	if len(totals) == 0 {
		return NoWinner
	}

	best := 0
	tied := false
	for i := 1; i < len(totals); i++ {
		switch {
		case totals[i] > totals[best]:
			best = i
			tied = false
		case totals[i] == totals[best]:
			tied = true
		}
	}

	if tied {
		return NoWinner
	}
	return best
}
