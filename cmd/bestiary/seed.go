package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	"github.com/mkrupp/bestiary/internal/repo/combat"
	"github.com/mkrupp/bestiary/internal/repo/creature"
	"github.com/mkrupp/bestiary/internal/repo/sqlitedb"
	"github.com/mkrupp/bestiary/internal/repo/user"
	"github.com/mkrupp/bestiary/internal/svc/combatsvc"
	"github.com/mkrupp/bestiary/internal/svc/gensvc"
)

const (
	demoUsername = "alice"
	demoEmail    = "alice@example.com"
	demoPassword = "Secret123!"
	demoType     = "Dragon"
)

type demoCreature struct {
	name                    string
	description             string
	health, defense, attack int
}

//nolint:gochecknoglobals
var demoCreatures = []demoCreature{
	{name: "Griffon du Nord", description: "Demo creature (griffon).", health: 80, defense: 60, attack: 70},
	{name: "Basilic", description: "Demo creature (basilisk).", health: 65, defense: 40, attack: 85},
}

func newSeedCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and the demo data",
		Long: `seed creates the database schema and, when missing, a demo user
(alice@example.com / Secret123!), the Dragon type, two creatures and one
combat between them. Running it again changes nothing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			db, err := sqlitedb.Open(ctx, cfg.DB)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close() //nolint:errcheck

			gen := &gensvc.GenService{ //nolint:exhaustruct
				Config:    cfg.Gen,
				Templates: gensvc.DefaultTemplates(),
			}

			seeded, err := seed(ctx, db, gen, cfg.Auth.BcryptCost)
			if err != nil {
				return err
			}

			for _, s := range seeded {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "seeded", s)
			}

			return nil
		},
	}
}

type imageURLer interface {
	ImageURL(name, typeName string, heads *int, seed int64) string
}

// seed inserts the demo rows that do not exist yet and returns what it created.
func seed(ctx context.Context, db *sqlitedb.DB, gen imageURLer, bcryptCost int) (seeded []string, err error) {
	log := logging.GetLogger("cmd.bestiary.seed")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "seed failed", "error", err)
		} else {
			log.InfoContext(ctx, "seed done", "seeded", seeded)
		}
	}()

	users := user.NewSQLiteUserRepository(db)

	owner, ok, err := users.GetUserByEmail(ctx, demoEmail)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !ok {
		if bcryptCost == 0 {
			bcryptCost = bcrypt.DefaultCost
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}

		if owner, err = users.CreateUser(ctx, demoUsername, demoEmail, hash); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}

		seeded = append(seeded, "user: "+demoUsername)
	}

	creatures := creature.NewSQLiteRepository(db)

	dragon, ok, err := creatures.GetTypeByName(ctx, demoType)
	if err != nil {
		return nil, fmt.Errorf("get type: %w", err)
	}

	if !ok {
		if dragon, err = creatures.CreateType(ctx, demoType, owner.ID); err != nil {
			return nil, fmt.Errorf("create type: %w", err)
		}

		seeded = append(seeded, "type: "+demoType)
	}

	existing, err := creatures.ListCreatures(ctx)
	if err != nil {
		return nil, fmt.Errorf("list creatures: %w", err)
	}

	pair := make([]*domain.Creature, 0, len(demoCreatures))

	for _, demo := range demoCreatures {
		c, created, err := ensureCreature(ctx, creatures, existing, demo, dragon, owner.ID, gen)
		if err != nil {
			return nil, err
		}

		if created {
			seeded = append(seeded, "creature: "+demo.name)
		}

		pair = append(pair, c)
	}

	combats := combat.NewSQLiteCombatRepository(db)

	fought, err := hasCombat(ctx, combats, pair[0].ID, pair[1].ID)
	if err != nil {
		return nil, err
	}

	if !fought {
		if _, err := combats.CreateCombat(ctx, combatsvc.Resolve(pair[0], pair[1]), pair[0].ID, pair[1].ID); err != nil {
			return nil, fmt.Errorf("create combat: %w", err)
		}

		seeded = append(seeded, fmt.Sprintf("combat: %s vs %s", pair[0].Name, pair[1].Name))
	}

	return seeded, nil
}

func ensureCreature(
	ctx context.Context,
	creatures *creature.SQLiteRepository,
	existing []domain.CreatureSummary,
	demo demoCreature,
	t *domain.CreatureType,
	ownerID int64,
	gen imageURLer,
) (*domain.Creature, bool, error) {
	if i := slices.IndexFunc(existing, func(s domain.CreatureSummary) bool { return s.Name == demo.name }); i >= 0 {
		c, err := creatures.GetCreature(ctx, existing[i].ID)
		if err != nil {
			return nil, false, fmt.Errorf("get creature: %w", err)
		}

		return c, false, nil
	}

	heads := 1

	c, err := creatures.CreateCreature(ctx, domain.NewCreature{ //nolint:exhaustruct
		Name:         demo.name,
		Description:  demo.description,
		TypeID:       t.ID,
		HealthScore:  demo.health,
		DefenseScore: demo.defense,
		AttackScore:  demo.attack,
		Heads:        &heads,
		CreatedBy:    ownerID,
	}, func(id int64) string {
		return gen.ImageURL(demo.name, t.Name, &heads, id)
	})
	if err != nil {
		return nil, false, fmt.Errorf("create creature: %w", err)
	}

	return c, true, nil
}

func hasCombat(ctx context.Context, combats *combat.SQLiteCombatRepository, a, b int64) (bool, error) {
	all, err := combats.ListCombats(ctx)
	if err != nil {
		return false, fmt.Errorf("list combats: %w", err)
	}

	return slices.ContainsFunc(all, func(c domain.Combat) bool {
		return (c.Creature1 == a && c.Creature2 == b) || (c.Creature1 == b && c.Creature2 == a)
	}), nil
}
