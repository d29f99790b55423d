// Package hybridsvc fuses two creatures into a new hybrid creature.
package hybridsvc

import (
	"context"
	"fmt"
	"strings"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	"github.com/mkrupp/bestiary/internal/repo/hybrid"
	"github.com/mkrupp/bestiary/internal/svc/authsvc"
)

// CreatureGetter looks creatures up by id.
type CreatureGetter interface {
	GetCreature(ctx context.Context, id int64) (*domain.Creature, error)
}

// Generator produces the name, description and image of a hybrid.
type Generator interface {
	NameFromPrompt(ctx context.Context, prompt string) string
	HybridDescription(ctx context.Context, name, typeName string, a, b *domain.Creature) string
	ImageURL(name, typeName string, heads *int, seed int64) string
}

// HybridService runs fusions and lists their results.
type HybridService struct {
	creatures CreatureGetter
	hybrids   hybrid.Repository
	gen       Generator
	identity  authsvc.Identity
	log       logging.Logger
}

// NewHybridService creates a HybridService. Hybrids and the shared hybrid type
// are attributed to identity.ActingUserID.
func NewHybridService(
	creatures CreatureGetter,
	hybrids hybrid.Repository,
	gen Generator,
	identity authsvc.Identity,
) *HybridService {
	return &HybridService{
		creatures: creatures,
		hybrids:   hybrids,
		gen:       gen,
		identity:  identity,
		log:       logging.GetLogger("svc.hybridsvc.hybrid_service"),
	}
}

// Fuse creates a hybrid of the two creatures named by req. The hybrid type
// when missing, the creature row, its image URL and the parentage are written
// in one transaction.
func (svc *HybridService) Fuse(ctx context.Context, req domain.FusionRequest) (created *domain.Hybrid, err error) {
	log := svc.log.With(logging.Group("fusion", "creature_1", req.Creature1, "creature_2", req.Creature2))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "fusion failed", "error", err)
		} else {
			log.DebugContext(ctx, "fusion done", "id", created.ID, "name", created.Name)
		}
	}()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if req.Heads != nil && *req.Heads < 1 {
		return nil, domain.Invalid("heads must be a positive integer")
	}

	a, err := svc.creatures.GetCreature(ctx, req.Creature1)
	if err != nil {
		return nil, fmt.Errorf("get creature_1: %w", err)
	}

	b, err := svc.creatures.GetCreature(ctx, req.Creature2)
	if err != nil {
		return nil, fmt.Errorf("get creature_2: %w", err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = svc.gen.NameFromPrompt(ctx, FusionPrompt(a, b))
	}

	heads := req.Heads
	if heads == nil {
		h := max(a.HeadsOr(1), b.HeadsOr(1))
		heads = &h
	}

	log = log.With(logging.Group("fusion", "name", name, "heads", *heads))

	c := domain.NewCreature{
		Name:         name,
		Description:  svc.gen.HybridDescription(ctx, name, domain.HybridTypeName, a, b),
		TypeName:     domain.HybridTypeName,
		HealthScore:  mean(a.HealthScore, b.HealthScore),
		DefenseScore: mean(a.DefenseScore, b.DefenseScore),
		AttackScore:  mean(a.AttackScore, b.AttackScore),
		Heads:        heads,
		CreatedBy:    svc.identity.ActingUserID(ctx),
		IsHybrid:     true,
	}

	image := func(id int64) string {
		return svc.gen.ImageURL(name, domain.HybridTypeName, heads, id)
	}

	created, err = svc.hybrids.CreateHybrid(ctx, c, image, a.ID, b.ID)
	if err != nil {
		return nil, fmt.Errorf("create hybrid: %w", err)
	}

	return created, nil
}

// ListHybrids returns all hybrids, newest first.
func (svc *HybridService) ListHybrids(ctx context.Context) ([]domain.Hybrid, error) {
	hybrids, err := svc.hybrids.ListHybrids(ctx)
	if err != nil {
		return nil, fmt.Errorf("list hybrids: %w", err)
	}

	return hybrids, nil
}

// GetHybrid returns the hybrid with the given creature id, or domain.ErrHybridNotFound.
func (svc *HybridService) GetHybrid(ctx context.Context, id int64) (*domain.Hybrid, error) {
	h, err := svc.hybrids.GetHybrid(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get hybrid: %w", err)
	}

	return h, nil
}

// FusionPrompt describes the two parents for the name generator.
func FusionPrompt(a, b *domain.Creature) string {
	return fmt.Sprintf(`Fusion of two mythological creatures: %s (%s) described as "%s" and %s (%s) described as "%s".`,
		a.Name, a.TypeName, a.Description,
		b.Name, b.TypeName, b.Description,
	)
}

// mean is the arithmetic mean of two stats, rounded half up.
func mean(x, y int) int {
	return (x + y + 1) / 2
}
