package challenge

import "github.com/willsigmon/CastawayCouncil-sub001/internal/engine"

// Type describes one challenge variant. The commit-reveal and scoring core
// only ever sees rolls and modifier inputs; anything variant-specific
// (submission parsing, puzzle layouts) lives with the caller.
type Type interface {
	// ID returns the variant's identifier
	ID() string

	// Name returns a human-readable label
	Name() string

	// TeamBased reports whether scores aggregate into team totals
	TeamBased() bool

	// DefaultTopK returns how many contributors count toward a team total
	// when the challenge does not override it
	DefaultTopK() int

	// RollRange returns the variant's default roll range
	RollRange() engine.RollRange
}

// RollType is the generic roll-based challenge: every participant rolls,
// highest total (or team aggregate) wins.
type RollType struct{}

func (RollType) ID() string                  { return "roll" }
func (RollType) Name() string                { return "Roll-Off" }
func (RollType) TeamBased() bool             { return false }
func (RollType) DefaultTopK() int            { return 3 }
func (RollType) RollRange() engine.RollRange { return engine.DefaultRollRange }

// TowerType is the team tower puzzle: always team-based, only the two best
// builders count toward the tower total.
type TowerType struct{}

func (TowerType) ID() string                  { return "tower" }
func (TowerType) Name() string                { return "Tower Puzzle" }
func (TowerType) TeamBased() bool             { return true }
func (TowerType) DefaultTopK() int            { return 2 }
func (TowerType) RollRange() engine.RollRange { return engine.RollRange{Min: 1, Max: 60} }

// TypeRegistry holds all available challenge variants
var TypeRegistry = make(map[string]Type)

// RegisterType adds a variant to the registry
func RegisterType(t Type) {
	TypeRegistry[t.ID()] = t
}

// GetType retrieves a variant by id
func GetType(id string) (Type, bool) {
	t, exists := TypeRegistry[id]
	return t, exists
}

// ListTypes returns all registered variant ids
func ListTypes() []string {
	ids := make([]string, 0, len(TypeRegistry))
	for id := range TypeRegistry {
		ids = append(ids, id)
	}
	return ids
}

// init registers all variants
func init() {
	RegisterType(RollType{})
	RegisterType(TowerType{})
}
