package challenge

// Stats is a single consistent snapshot of a participant's live condition,
// taken once at scoring time. Re-reading live stats mid-score would let a
// concurrent decay tick desynchronize the breakdown trace from the total.
type Stats struct {
	Energy int `json:"energy"`
	Hunger int `json:"hunger"`
	Thirst int `json:"thirst"`
	Social int `json:"social"`
}

// Modifier is the derived set of numeric adjustments applied to a raw roll.
// It is ephemeral: recomputed from the stat snapshot at scoring time, never
// persisted on its own.
type Modifier struct {
	Energy     int      `json:"energy"`      // bonus only, >= 0
	Hunger     int      `json:"hunger"`      // penalty only, <= 0
	Thirst     int      `json:"thirst"`      // penalty only, <= 0
	ItemBonus  int      `json:"item_bonus"`
	EventBonus int      `json:"event_bonus"`
	Debuffs    []string `json:"debuffs,omitempty"`
}

// Score is one participant's computed result for one challenge.
type Score struct {
	ParticipantID string   `json:"participant_id"`
	Roll          int      `json:"roll"`
	Modifiers     Modifier `json:"modifiers"`
	Total         int      `json:"total"`
	Breakdown     []string `json:"breakdown"`
}

// TeamScore aggregates a team's individual scores under a top-K rule.
type TeamScore struct {
	Team         string `json:"team"`
	Total        int    `json:"total"`
	Contributors []int  `json:"contributors"`
}
