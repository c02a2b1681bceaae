package challenge

import "fmt"

// minTotal is the floor every score is clamped to. Even a maximally-debuffed
// participant keeps a non-zero contribution in aggregate comparisons.
const minTotal = 1

// ComputeScore folds a committed roll and the participant's modifier inputs
// into a final score with an itemized breakdown.
//
// The breakdown trace reads in a canonical order: base roll, energy bonus,
// hunger penalty, thirst penalty, item bonus, event modifier, debuff penalty.
// The arithmetic is commutative; the order exists so any re-run of
// verification reproduces the identical trace byte for byte.
func ComputeScore(participantID string, roll int, stats Stats, itemBonus, eventBonus int, debuffs []string) Score {
	mod := ComputeModifiers(stats, itemBonus, eventBonus, debuffs)
	debuffPenalty, _ := DebuffPenalty(debuffs)

	total := roll
	breakdown := []string{fmt.Sprintf("Base roll: %d", roll)}

	if mod.Energy > 0 {
		total += mod.Energy
		breakdown = append(breakdown, fmt.Sprintf("Energy bonus: +%d", mod.Energy))
	}
	if mod.Hunger < 0 {
		total += mod.Hunger
		breakdown = append(breakdown, fmt.Sprintf("Hunger penalty: %d", mod.Hunger))
	}
	if mod.Thirst < 0 {
		total += mod.Thirst
		breakdown = append(breakdown, fmt.Sprintf("Thirst penalty: %d", mod.Thirst))
	}
	if mod.ItemBonus > 0 {
		total += mod.ItemBonus
		breakdown = append(breakdown, fmt.Sprintf("Item bonus: +%d", mod.ItemBonus))
	}
	if mod.EventBonus != 0 {
		total += mod.EventBonus
		breakdown = append(breakdown, fmt.Sprintf("Event modifier: %+d", mod.EventBonus))
	}
	if debuffPenalty < 0 {
		total += debuffPenalty
		breakdown = append(breakdown, fmt.Sprintf("Debuff penalty: %d", debuffPenalty))
	}

	if total < minTotal {
		total = minTotal
	}

	return Score{
		ParticipantID: participantID,
		Roll:          roll,
		Modifiers:     mod,
		Total:         total,
		Breakdown:     breakdown,
	}
}
