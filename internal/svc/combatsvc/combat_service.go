// Package combatsvc resolves fights between two creatures and records them.
package combatsvc

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	"github.com/mkrupp/bestiary/internal/repo/combat"
)

// CreatureGetter looks creatures up by id.
type CreatureGetter interface {
	GetCreature(ctx context.Context, id int64) (*domain.Creature, error)
}

// Resolve compares the total scores of a and b. The result is the id of the
// strictly stronger creature, or domain.CombatDraw.
func Resolve(a, b *domain.Creature) string {
	scoreA, scoreB := a.TotalScore(), b.TotalScore()

	switch {
	case scoreA > scoreB:
		return strconv.FormatInt(a.ID, 10)
	case scoreB > scoreA:
		return strconv.FormatInt(b.ID, 10)
	default:
		return domain.CombatDraw
	}
}

// CombatService runs and lists combats.
type CombatService struct {
	creatures CreatureGetter
	combats   combat.Repository
	log       logging.Logger
}

// NewCombatService creates a CombatService.
func NewCombatService(creatures CreatureGetter, combats combat.Repository) *CombatService {
	return &CombatService{
		creatures: creatures,
		combats:   combats,
		log:       logging.GetLogger("svc.combatsvc.combat_service"),
	}
}

// Fight resolves the combat described by req and persists it.
func (svc *CombatService) Fight(ctx context.Context, req domain.CreaturePairRequest) (result *domain.Combat, err error) {
	log := svc.log.With(logging.Group("combat", "creature_1", req.Creature1, "creature_2", req.Creature2))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "combat failed", "error", err)
		} else {
			log.DebugContext(ctx, "combat resolved", "id", result.ID, "result", result.Result)
		}
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, err := svc.creatures.GetCreature(ctx, req.Creature1)
	if err != nil {
		return nil, fmt.Errorf("get creature_1: %w", err)
	}

	b, err := svc.creatures.GetCreature(ctx, req.Creature2)
	if err != nil {
		return nil, fmt.Errorf("get creature_2: %w", err)
	}

	result, err = svc.combats.CreateCombat(ctx, Resolve(a, b), a.ID, b.ID)
	if err != nil {
		return nil, fmt.Errorf("create combat: %w", err)
	}

	return result, nil
}

// ListCombats returns all combats, newest first.
func (svc *CombatService) ListCombats(ctx context.Context) ([]domain.Combat, error) {
	combats, err := svc.combats.ListCombats(ctx)
	if err != nil {
		return nil, fmt.Errorf("list combats: %w", err)
	}

	return combats, nil
}

// GetCombat returns one combat or domain.ErrCombatNotFound.
func (svc *CombatService) GetCombat(ctx context.Context, id int64) (*domain.Combat, error) {
	c, err := svc.combats.GetCombat(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get combat: %w", err)
	}

	return c, nil
}
