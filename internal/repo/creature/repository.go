// Package creature stores creatures and their types.
package creature

import (
	"context"

	"github.com/mkrupp/bestiary/internal/domain"
)

// Repository persists creatures.
type Repository interface {
	// ListCreatures returns all creatures, newest first.
	ListCreatures(ctx context.Context) ([]domain.CreatureSummary, error)

	// ListCreaturesByType returns the creatures of one type, newest first.
	ListCreaturesByType(ctx context.Context, typeID int64) ([]domain.CreatureSummary, error)

	// GetCreature returns a creature or ErrCreatureNotFound.
	GetCreature(ctx context.Context, id int64) (*domain.Creature, error)

	// CreateCreature inserts c, then stores image(id) as its image URL. Both
	// writes happen in one transaction, together with the creation of a type
	// given by c.TypeName only.
	// Returns ErrCreatureNameTaken, ErrUnknownType or ErrUnknownCreator.
	CreateCreature(ctx context.Context, c domain.NewCreature, image domain.ImageURLFunc) (*domain.Creature, error)

	// UpdateCreature overwrites the mutable columns of a creature.
	UpdateCreature(ctx context.Context, id int64, u domain.CreatureUpdate) (*domain.Creature, error)

	// UpdateImage stores a new image URL.
	UpdateImage(ctx context.Context, id int64, url string) (*domain.Creature, error)

	// DeleteCreature removes a creature.
	// Returns ErrCreatureNotFound, or ErrCreatureInUse while combats or hybrids reference it.
	DeleteCreature(ctx context.Context, id int64) error
}

// TypeRepository persists creature types.
type TypeRepository interface {
	// ListTypes returns all types ordered by name.
	ListTypes(ctx context.Context) ([]domain.CreatureType, error)

	// GetType returns a type or ErrTypeNotFound.
	GetType(ctx context.Context, id int64) (*domain.CreatureType, error)

	// GetTypeByName returns a type by exact name, or nil and false.
	GetTypeByName(ctx context.Context, name string) (*domain.CreatureType, bool, error)

	// CreateType inserts a type. Returns ErrTypeNameTaken or ErrUnknownCreator.
	CreateType(ctx context.Context, name string, createdBy int64) (*domain.CreatureType, error)
}
