package challenge

// debuffPenalties is the fixed lookup table for named negative statuses.
// Unrecognized identifiers are worth 0 and must never cause a failure.
var debuffPenalties = map[string]int{
	"tainted_water": -1,
	"exhausted":     -2,
	"injured":       -3,
}

// Stat thresholds and weights for modifier derivation.
const (
	energyDivisor   = 20 // floor(energy/20), 0..5 over the 0..100 stat range
	energyTermMax   = 5
	lowStatCutoff   = 30 // hunger/thirst below this incur a penalty
	lowStatPenalty  = -2
)

// ComputeModifiers maps a stat snapshot plus item and event bonuses to a
// Modifier. Pure and total: out-of-range stats are clamped, never rejected.
func ComputeModifiers(stats Stats, itemBonus, eventBonus int, debuffs []string) Modifier {
	energy := stats.Energy / energyDivisor
	if energy < 0 {
		energy = 0
	}
	if energy > energyTermMax {
		energy = energyTermMax
	}

	hunger := 0
	if stats.Hunger < lowStatCutoff {
		hunger = lowStatPenalty
	}

	thirst := 0
	if stats.Thirst < lowStatCutoff {
		thirst = lowStatPenalty
	}

	if itemBonus < 0 {
		itemBonus = 0
	}

	return Modifier{
		Energy:     energy,
		Hunger:     hunger,
		Thirst:     thirst,
		ItemBonus:  itemBonus,
		EventBonus: eventBonus,
		Debuffs:    debuffs,
	}
}

// DebuffPenalty sums the table penalties for the given identifiers and
// returns any identifiers the table does not recognize so callers can report
// them. Unknown debuffs contribute 0.
func DebuffPenalty(debuffs []string) (penalty int, unknown []string) {
	for _, d := range debuffs {
		p, ok := debuffPenalties[d]
		if !ok {
			unknown = append(unknown, d)
			continue
		}
		penalty += p
	}
	return penalty, unknown
}
