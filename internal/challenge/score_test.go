package challenge

import (
	"reflect"
	"testing"
)

func TestComputeModifiers(t *testing.T) {
	tests := []struct {
		name       string
		stats      Stats
		itemBonus  int
		eventBonus int
		want       Modifier
	}{
		{
			name:  "well rested and fed",
			stats: Stats{Energy: 80, Hunger: 50, Thirst: 50},
			want:  Modifier{Energy: 4},
		},
		{
			name:  "hungry and thirsty",
			stats: Stats{Energy: 40, Hunger: 20, Thirst: 10},
			want:  Modifier{Energy: 2, Hunger: -2, Thirst: -2},
		},
		{
			name:  "thresholds are exclusive at 30",
			stats: Stats{Energy: 0, Hunger: 30, Thirst: 30},
			want:  Modifier{},
		},
		{
			name:  "energy term capped at 5",
			stats: Stats{Energy: 100, Hunger: 100, Thirst: 100},
			want:  Modifier{Energy: 5},
		},
		{
			name:  "out of range energy clamps, never fails",
			stats: Stats{Energy: 900, Hunger: 50, Thirst: 50},
			want:  Modifier{Energy: 5},
		},
		{
			name:  "negative energy clamps to zero",
			stats: Stats{Energy: -10, Hunger: 50, Thirst: 50},
			want:  Modifier{},
		},
		{
			name:       "bonuses pass through",
			stats:      Stats{Energy: 20, Hunger: 50, Thirst: 50},
			itemBonus:  3,
			eventBonus: -1,
			want:       Modifier{Energy: 1, ItemBonus: 3, EventBonus: -1},
		},
		{
			name:      "negative item bonus clamps to zero",
			stats:     Stats{Energy: 0, Hunger: 50, Thirst: 50},
			itemBonus: -5,
			want:      Modifier{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeModifiers(tt.stats, tt.itemBonus, tt.eventBonus, nil)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ComputeModifiers() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDebuffPenalty(t *testing.T) {
	tests := []struct {
		name        string
		debuffs     []string
		wantPenalty int
		wantUnknown []string
	}{
		{"no debuffs", nil, 0, nil},
		{"single debuff", []string{"injured"}, -3, nil},
		{"stacked debuffs", []string{"tainted_water", "exhausted", "injured"}, -6, nil},
		{"unknown is a no-op but reported", []string{"cursed"}, 0, []string{"cursed"}},
		{"mixed known and unknown", []string{"exhausted", "cursed"}, -2, []string{"cursed"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			penalty, unknown := DebuffPenalty(tt.debuffs)
			if penalty != tt.wantPenalty {
				t.Errorf("DebuffPenalty() penalty = %d, want %d", penalty, tt.wantPenalty)
			}
			if !reflect.DeepEqual(unknown, tt.wantUnknown) {
				t.Errorf("DebuffPenalty() unknown = %v, want %v", unknown, tt.wantUnknown)
			}
		})
	}
}

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name          string
		roll          int
		stats         Stats
		itemBonus     int
		eventBonus    int
		debuffs       []string
		wantTotal     int
		wantBreakdown []string
	}{
		{
			name:      "energized but hungry",
			roll:      10,
			stats:     Stats{Energy: 80, Hunger: 20, Thirst: 50},
			wantTotal: 12,
			wantBreakdown: []string{
				"Base roll: 10",
				"Energy bonus: +4",
				"Hunger penalty: -2",
			},
		},
		{
			name:      "floored at one",
			roll:      1,
			stats:     Stats{Energy: 0, Hunger: 10, Thirst: 10},
			debuffs:   []string{"injured"},
			wantTotal: 1,
			wantBreakdown: []string{
				"Base roll: 1",
				"Hunger penalty: -2",
				"Thirst penalty: -2",
				"Debuff penalty: -3",
			},
		},
		{
			name:       "every term present",
			roll:       50,
			stats:      Stats{Energy: 100, Hunger: 5, Thirst: 5},
			itemBonus:  3,
			eventBonus: 2,
			debuffs:    []string{"tainted_water", "exhausted"},
			wantTotal:  50 + 5 - 2 - 2 + 3 + 2 - 3,
			wantBreakdown: []string{
				"Base roll: 50",
				"Energy bonus: +5",
				"Hunger penalty: -2",
				"Thirst penalty: -2",
				"Item bonus: +3",
				"Event modifier: +2",
				"Debuff penalty: -3",
			},
		},
		{
			name:       "negative event modifier is signed",
			roll:       20,
			stats:      Stats{Energy: 10, Hunger: 50, Thirst: 50},
			eventBonus: -4,
			wantTotal:  16,
			wantBreakdown: []string{
				"Base roll: 20",
				"Event modifier: -4",
			},
		},
		{
			name:      "bare roll has only the base line",
			roll:      7,
			stats:     Stats{Energy: 10, Hunger: 50, Thirst: 50},
			wantTotal: 7,
			wantBreakdown: []string{
				"Base roll: 7",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeScore("p1", tt.roll, tt.stats, tt.itemBonus, tt.eventBonus, tt.debuffs)

			if got.Total != tt.wantTotal {
				t.Errorf("ComputeScore() total = %d, want %d", got.Total, tt.wantTotal)
			}
			if got.Roll != tt.roll {
				t.Errorf("ComputeScore() roll = %d, want %d", got.Roll, tt.roll)
			}
			if !reflect.DeepEqual(got.Breakdown, tt.wantBreakdown) {
				t.Errorf("ComputeScore() breakdown = %v, want %v", got.Breakdown, tt.wantBreakdown)
			}
		})
	}
}

func TestComputeScoreDeterministic(t *testing.T) {
	stats := Stats{Energy: 73, Hunger: 22, Thirst: 14}
	debuffs := []string{"exhausted", "tainted_water"}

	first := ComputeScore("p1", 42, stats, 2, -1, debuffs)
	for i := 0; i < 10; i++ {
		again := ComputeScore("p1", 42, stats, 2, -1, debuffs)
		if again.Total != first.Total {
			t.Fatalf("total changed between calls: %d != %d", again.Total, first.Total)
		}
		if !reflect.DeepEqual(again.Breakdown, first.Breakdown) {
			t.Fatalf("breakdown changed between calls")
		}
	}
}
