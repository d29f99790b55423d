// Package typesvc manages creature types.
package typesvc

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	"github.com/mkrupp/bestiary/internal/repo/creature"
	"github.com/mkrupp/bestiary/internal/svc/authsvc"
)

// CreatureLister lists the creatures of a type.
type CreatureLister interface {
	ListCreaturesByType(ctx context.Context, typeID int64) ([]domain.CreatureSummary, error)
}

// TypeService lists and creates creature types.
type TypeService struct {
	types     creature.TypeRepository
	creatures CreatureLister
	identity  authsvc.Identity
	log       logging.Logger
}

// NewTypeService creates a TypeService. New types are attributed to
// identity.ActingUserID.
func NewTypeService(
	types creature.TypeRepository,
	creatures CreatureLister,
	identity authsvc.Identity,
) *TypeService {
	return &TypeService{
		types:     types,
		creatures: creatures,
		identity:  identity,
		log:       logging.GetLogger("svc.typesvc.type_service"),
	}
}

// ListTypes returns all types ordered by name.
func (svc *TypeService) ListTypes(ctx context.Context) ([]domain.CreatureType, error) {
	types, err := svc.types.ListTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list types: %w", err)
	}

	return types, nil
}

// GetType returns a type or domain.ErrTypeNotFound.
func (svc *TypeService) GetType(ctx context.Context, id int64) (*domain.CreatureType, error) {
	t, err := svc.types.GetType(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get type: %w", err)
	}

	return t, nil
}

// TypeCreatures returns a type with its creatures, newest first.
func (svc *TypeService) TypeCreatures(ctx context.Context, id int64) (*domain.TypeCreaturesResponse, error) {
	t, err := svc.GetType(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := svc.creatures.ListCreaturesByType(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list creatures by type: %w", err)
	}

	return &domain.TypeCreaturesResponse{Type: *t, Items: items}, nil
}

// CreateType creates a type owned by the acting user.
func (svc *TypeService) CreateType(ctx context.Context, req domain.CreateTypeRequest) (created *domain.CreatureType, err error) {
	name := strings.TrimSpace(req.Name)
	createdBy := svc.identity.ActingUserID(ctx)

	log := svc.log.With(logging.Group("type", "name", name, "created_by", createdBy))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "type create failed", "error", err)
		} else {
			log.DebugContext(ctx, "type created", "id", created.ID)
		}
	}()

	if name == "" {
		return nil, domain.Invalid(`field "name" is required`)
	}

	created, err = svc.types.CreateType(ctx, name, createdBy)
	if err != nil {
		return nil, fmt.Errorf("create type: %w", err)
	}

	return created, nil
}
