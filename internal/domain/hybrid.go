package domain

// ErrHybridNotFound is returned when an id does not resolve to a hybrid creature.
var ErrHybridNotFound = categorized(ErrNotFound, "hybrid not found")

// Hybrid is a fused creature together with its parentage.
type Hybrid struct {
	Creature

	LinkID  int64 `json:"hybrid_id"`
	Parent1 int64 `json:"parent_1"`
	Parent2 int64 `json:"parent_2"`
}

// FusionRequest is the body of POST /hybrids.
type FusionRequest struct {
	CreaturePairRequest

	Name  string `json:"name"`
	Heads *int   `json:"heads"`
}
