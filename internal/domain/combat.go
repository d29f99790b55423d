package domain

// ErrCombatNotFound is returned when a combat id does not resolve.
var ErrCombatNotFound = categorized(ErrNotFound, "combat not found")

// CombatDraw is the result recorded when both creatures score the same.
const CombatDraw = "draw"

// Combat is an immutable record of a resolved fight.
type Combat struct {
	ID        int64  `json:"id"`
	Result    string `json:"result"`
	Creature1 int64  `json:"creature_1"`
	Creature2 int64  `json:"creature_2"`
	CreatedAt string `json:"created_at"`
}

// CreaturePairRequest names the two creatures of a combat or a fusion.
type CreaturePairRequest struct {
	Creature1 int64 `json:"creature_1"`
	Creature2 int64 `json:"creature_2"`
}

// Validate checks that both ids are positive and distinct.
func (r CreaturePairRequest) Validate() error {
	if r.Creature1 <= 0 || r.Creature2 <= 0 || r.Creature1 == r.Creature2 {
		return Invalid("creature_1 and creature_2 must be two different ids")
	}

	return nil
}
