package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrCreatureNotFound is returned when a creature id does not resolve.
	ErrCreatureNotFound = categorized(ErrNotFound, "creature not found")
	// ErrCreatureNameTaken is returned when another creature already uses the name.
	ErrCreatureNameTaken = categorized(ErrConflict, "creature name already exists")
	// ErrCreatureInUse is returned when deleting a creature still referenced by a combat or hybrid.
	ErrCreatureInUse = categorized(ErrConflict, "creature is referenced in combats or hybrids")
	// ErrUnknownCreator is returned when the acting user does not exist.
	ErrUnknownCreator = categorized(ErrInvalidInput, "creator does not exist")
)

// Creature is a bestiary entry.
type Creature struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	TypeID       int64  `json:"type_id"`
	TypeName     string `json:"type_name"`
	Image        string `json:"image"`
	HealthScore  int    `json:"health_score"`
	DefenseScore int    `json:"defense_score"`
	AttackScore  int    `json:"attack_score"`
	Heads        *int   `json:"heads"`
	CreatedAt    string `json:"created_at"`
	CreatedBy    int64  `json:"created_by"`
	IsHybrid     bool   `json:"is_hybrid"`
}

// TotalScore is the sum of the three stats used to rank creatures in combat.
func (c Creature) TotalScore() int {
	return c.AttackScore + c.DefenseScore + c.HealthScore
}

// HeadsOr returns the head count, or fallback when it is unknown.
func (c Creature) HeadsOr(fallback int) int {
	if c.Heads == nil {
		return fallback
	}

	return *c.Heads
}

// CreatureSummary is the list representation of a creature.
type CreatureSummary struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	TypeID    int64  `json:"type_id"`
	TypeName  string `json:"type_name"`
}

// NewCreature holds the columns of a creature about to be inserted.
type NewCreature struct {
	Name         string
	Description  string
	TypeID       int64
	// TypeName is looked up, or created on behalf of CreatedBy, in the insert
	// transaction when TypeID is 0.
	TypeName     string
	HealthScore  int
	DefenseScore int
	AttackScore  int
	Heads        *int
	CreatedBy    int64
	IsHybrid     bool
}

// CreatureUpdate holds the columns written by an update. It always carries the
// complete row: partial requests are merged onto the current state first.
type CreatureUpdate struct {
	Name         string
	Description  string
	TypeID       int64
	HealthScore  int
	DefenseScore int
	AttackScore  int
	Heads        *int
}

// ImageURLFunc derives the image URL of a freshly inserted creature from its id.
type ImageURLFunc func(id int64) string

// TypeRef identifies a type either by id or by name. JSON numbers and
// all-digit strings are ids; any other string is a name.
type TypeRef struct {
	ID   int64
	Name string
}

// IsZero reports whether no type was given.
func (r TypeRef) IsZero() bool {
	return r.ID == 0 && r.Name == ""
}

func (r TypeRef) String() string {
	if r.ID != 0 {
		return strconv.FormatInt(r.ID, 10)
	}

	return r.Name
}

func (r *TypeRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		*r = TypeRef{}

		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("unmarshal type name: %w", err)
		}

		*r = ParseTypeRef(s)

		return nil
	}

	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return fmt.Errorf("unmarshal type id: %w", err)
	}

	*r = TypeRef{ID: id}

	return nil
}

// ParseTypeRef interprets s as an id when it consists of digits only.
func ParseTypeRef(s string) TypeRef {
	s = strings.TrimSpace(s)

	if s != "" && strings.Trim(s, "0123456789") == "" {
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			return TypeRef{ID: id}
		}
	}

	return TypeRef{Name: s}
}

// CreateCreatureRequest is the body of POST /creatures.
type CreateCreatureRequest struct {
	Name        string  `json:"name"`
	Type        TypeRef `json:"type"`
	Description string  `json:"description"`
	Heads       *int    `json:"heads"`
}

// GenerateCreatureRequest is the body of POST /creatures/generate.
type GenerateCreatureRequest struct {
	Prompt string  `json:"prompt"`
	Type   TypeRef `json:"type"`
}

// UpdateCreatureRequest is the body of PUT /creatures/{id}. Absent fields keep their value.
type UpdateCreatureRequest struct {
	Name         *string  `json:"name"`
	Type         *TypeRef `json:"type"`
	Description  *string  `json:"description"`
	Heads        *int     `json:"heads"`
	HealthScore  *int     `json:"health_score"`
	DefenseScore *int     `json:"defense_score"`
	AttackScore  *int     `json:"attack_score"`
}
