package domain

var (
	// ErrTypeNotFound is returned when a type id does not resolve.
	ErrTypeNotFound = categorized(ErrNotFound, "type not found")
	// ErrTypeNameTaken is returned when creating a type whose name exists.
	ErrTypeNameTaken = categorized(ErrConflict, "type already exists")
	// ErrUnknownType is returned when a creature references a type that does not exist.
	ErrUnknownType = categorized(ErrInvalidInput, "unknown type")
)

// HybridTypeName is the type shared by every fused creature.
const HybridTypeName = "Hybrid"

// CreatureType classifies creatures.
type CreatureType struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedBy int64  `json:"created_by"`
}

// CreateTypeRequest is the body of POST /types.
type CreateTypeRequest struct {
	Name string `json:"name"`
}

// TypeCreaturesResponse is returned by GET /types/{id}/creatures.
type TypeCreaturesResponse struct {
	Type  CreatureType      `json:"type"`
	Items []CreatureSummary `json:"items"`
}
