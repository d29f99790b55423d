// Package creaturesvc manages creatures: manual and prompt-driven creation,
// updates, deletion and their images.
package creaturesvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	"github.com/mkrupp/bestiary/internal/repo/creature"
	"github.com/mkrupp/bestiary/internal/svc/authsvc"
	"github.com/mkrupp/bestiary/internal/svc/imagesvc"
)

// Generator produces the generated parts of a creature.
type Generator interface {
	NameFromPrompt(ctx context.Context, prompt string) string
	Description(ctx context.Context, name, typeName string) string
	ImageURL(name, typeName string, heads *int, seed int64) string
	Scores(name, typeName string) (health, defense, attack int)
}

// CreatureService implements the creature use cases.
type CreatureService struct {
	creatures creature.Repository
	types     creature.TypeRepository
	gen       Generator
	images    imagesvc.ImageService
	identity  authsvc.Identity
	log       logging.Logger
}

// NewCreatureService creates a CreatureService. New creatures and types are
// attributed to identity.ActingUserID.
func NewCreatureService(
	creatures creature.Repository,
	types creature.TypeRepository,
	gen Generator,
	images imagesvc.ImageService,
	identity authsvc.Identity,
) *CreatureService {
	return &CreatureService{
		creatures: creatures,
		types:     types,
		gen:       gen,
		images:    images,
		identity:  identity,
		log:       logging.GetLogger("svc.creaturesvc.creature_service"),
	}
}

// ListCreatures returns all creatures, newest first.
func (svc *CreatureService) ListCreatures(ctx context.Context) ([]domain.CreatureSummary, error) {
	items, err := svc.creatures.ListCreatures(ctx)
	if err != nil {
		return nil, fmt.Errorf("list creatures: %w", err)
	}

	return items, nil
}

// GetCreature returns one creature or domain.ErrCreatureNotFound.
func (svc *CreatureService) GetCreature(ctx context.Context, id int64) (*domain.Creature, error) {
	c, err := svc.creatures.GetCreature(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get creature: %w", err)
	}

	return c, nil
}

// CreateCreature creates a creature from explicit fields. A missing
// description is generated; stats are derived from name and type.
func (svc *CreatureService) CreateCreature(
	ctx context.Context,
	req domain.CreateCreatureRequest,
) (created *domain.Creature, err error) {
	name := strings.TrimSpace(req.Name)

	log := svc.log.With(logging.Group("creature", "name", name, "type", req.Type.String()))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "creature create failed", "error", err)
		} else {
			log.DebugContext(ctx, "creature created", "id", created.ID)
		}
	}()

	if name == "" {
		return nil, domain.Invalid(`field "name" is required`)
	}

	if req.Type.IsZero() {
		return nil, domain.Invalid(`field "type" (id or name) is required`)
	}

	if err := validateHeads(req.Heads); err != nil {
		return nil, err
	}

	t, err := svc.resolveType(ctx, req.Type)
	if err != nil {
		return nil, err
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = svc.gen.Description(ctx, name, t.Name)
	}

	return svc.insert(ctx, name, description, t, req.Heads)
}

// UpdateCreature applies the fields present in req to a creature.
func (svc *CreatureService) UpdateCreature(
	ctx context.Context,
	id int64,
	req domain.UpdateCreatureRequest,
) (updated *domain.Creature, err error) {
	log := svc.log.With(logging.Group("creature", "id", id))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "creature update failed", "error", err)
		} else {
			log.DebugContext(ctx, "creature updated")
		}
	}()

	current, err := svc.GetCreature(ctx, id)
	if err != nil {
		return nil, err
	}

	u := domain.CreatureUpdate{
		Name:         current.Name,
		Description:  current.Description,
		TypeID:       current.TypeID,
		HealthScore:  current.HealthScore,
		DefenseScore: current.DefenseScore,
		AttackScore:  current.AttackScore,
		Heads:        current.Heads,
	}

	if req.Name != nil {
		if u.Name = strings.TrimSpace(*req.Name); u.Name == "" {
			return nil, domain.Invalid(`field "name" must not be empty`)
		}
	}

	if req.Type != nil {
		if req.Type.IsZero() {
			return nil, domain.Invalid(`field "type" must not be empty`)
		}

		t, err := svc.resolveType(ctx, *req.Type)
		if err != nil {
			return nil, err
		}

		u.TypeID = t.ID
	}

	if req.Description != nil {
		u.Description = strings.TrimSpace(*req.Description)
	}

	if req.Heads != nil {
		if err := validateHeads(req.Heads); err != nil {
			return nil, err
		}

		u.Heads = req.Heads
	}

	for _, score := range []struct {
		name  string
		value *int
		dst   *int
	}{
		{"health_score", req.HealthScore, &u.HealthScore},
		{"defense_score", req.DefenseScore, &u.DefenseScore},
		{"attack_score", req.AttackScore, &u.AttackScore},
	} {
		if score.value == nil {
			continue
		}

		if *score.value < 0 {
			return nil, domain.Invalid("%s must not be negative", score.name)
		}

		*score.dst = *score.value
	}

	updated, err = svc.creatures.UpdateCreature(ctx, id, u)
	if err != nil {
		return nil, fmt.Errorf("update creature: %w", err)
	}

	return updated, nil
}

// DeleteCreature removes a creature that no combat or hybrid references.
func (svc *CreatureService) DeleteCreature(ctx context.Context, id int64) error {
	if err := svc.creatures.DeleteCreature(ctx, id); err != nil {
		svc.log.ErrorContext(ctx, "creature delete failed", "id", id, "error", err)

		return fmt.Errorf("delete creature: %w", err)
	}

	svc.log.DebugContext(ctx, "creature deleted", "id", id)

	return nil
}

// ImageURL returns the stored image URL of a creature, building one when
// none was stored.
func (svc *CreatureService) ImageURL(ctx context.Context, id int64) (string, error) {
	c, err := svc.GetCreature(ctx, id)
	if err != nil {
		return "", err
	}

	if c.Image != "" {
		return c.Image, nil
	}

	return svc.gen.ImageURL(c.Name, c.TypeName, c.Heads, c.ID), nil
}

// FetchImage downloads the image at url through the image proxy.
func (svc *CreatureService) FetchImage(ctx context.Context, url string, width int) (domain.Image, error) {
	img, err := svc.images.Fetch(ctx, url, width)
	if err != nil {
		return domain.Image{}, fmt.Errorf("fetch image: %w", err)
	}

	return img, nil
}

// RegenerateImage rebuilds and stores the image URL of a creature.
func (svc *CreatureService) RegenerateImage(ctx context.Context, id int64) (*domain.Creature, error) {
	c, err := svc.GetCreature(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := svc.creatures.UpdateImage(ctx, id, svc.gen.ImageURL(c.Name, c.TypeName, c.Heads, c.ID))
	if err != nil {
		return nil, fmt.Errorf("update image: %w", err)
	}

	svc.log.DebugContext(ctx, "creature image regenerated", "id", id)

	return updated, nil
}

// insert writes a new creature of type t. A t without id is created along
// with the creature.
func (svc *CreatureService) insert(
	ctx context.Context,
	name, description string,
	t *domain.CreatureType,
	heads *int,
) (*domain.Creature, error) {
	health, defense, attack := svc.gen.Scores(name, t.Name)

	c := domain.NewCreature{
		Name:         name,
		Description:  description,
		TypeID:       t.ID,
		TypeName:     t.Name,
		HealthScore:  health,
		DefenseScore: defense,
		AttackScore:  attack,
		Heads:        heads,
		CreatedBy:    svc.identity.ActingUserID(ctx),
	}

	created, err := svc.creatures.CreateCreature(ctx, c, func(id int64) string {
		return svc.gen.ImageURL(name, t.Name, heads, id)
	})
	if err != nil {
		return nil, fmt.Errorf("create creature: %w", err)
	}

	return created, nil
}

// resolveType looks a type up by id or exact name. A type that does not exist
// is domain.ErrUnknownType.
func (svc *CreatureService) resolveType(ctx context.Context, ref domain.TypeRef) (*domain.CreatureType, error) {
	if ref.ID != 0 {
		t, err := svc.types.GetType(ctx, ref.ID)
		if errors.Is(err, domain.ErrTypeNotFound) {
			return nil, fmt.Errorf("%w: id %d", domain.ErrUnknownType, ref.ID)
		} else if err != nil {
			return nil, fmt.Errorf("get type: %w", err)
		}

		return t, nil
	}

	t, ok, err := svc.types.GetTypeByName(ctx, ref.Name)
	if err != nil {
		return nil, fmt.Errorf("get type by name: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownType, ref.Name)
	}

	return t, nil
}

func validateHeads(heads *int) error {
	if heads != nil && *heads < 1 {
		return domain.Invalid("heads must be a positive integer")
	}

	return nil
}
