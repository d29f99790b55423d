// Package hybrid stores fused creatures and their parentage.
package hybrid

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	"github.com/mkrupp/bestiary/internal/repo/creature"
	"github.com/mkrupp/bestiary/internal/repo/sqlitedb"
)

// Repository persists hybrids.
type Repository interface {
	// CreateHybrid inserts the hybrid creature, stores image(id) as its image
	// URL and records the parentage, all in one transaction.
	CreateHybrid(
		ctx context.Context,
		c domain.NewCreature,
		image domain.ImageURLFunc,
		parent1, parent2 int64,
	) (*domain.Hybrid, error)

	// ListHybrids returns all hybrids, newest first.
	ListHybrids(ctx context.Context) ([]domain.Hybrid, error)

	// GetHybrid returns the hybrid whose creature id is creatureID, or ErrHybridNotFound.
	GetHybrid(ctx context.Context, creatureID int64) (*domain.Hybrid, error)
}

// SQLiteHybridRepository implements Repository on the shared SQLite database.
type SQLiteHybridRepository struct {
	db  *sqlitedb.DB
	log logging.Logger
}

var _ Repository = (*SQLiteHybridRepository)(nil)

// NewSQLiteHybridRepository creates a hybrid repository on db.
func NewSQLiteHybridRepository(db *sqlitedb.DB) *SQLiteHybridRepository {
	return &SQLiteHybridRepository{
		db:  db,
		log: logging.GetLogger("repo.hybrid.sqlite_hybrid_repository"),
	}
}

const selectHybrid = `
	SELECT c.id, c.name, c.description, c.type_id, COALESCE(t.name, ''), COALESCE(c.image, ''),
	       c.health_score, c.defense_score, c.attack_score, c.heads,
	       c.created_at, c.created_by, c.is_hybrid,
	       h.id, h.parent_1, h.parent_2
	FROM hybrids h
	JOIN creatures c ON c.id = h.creature_id
	LEFT JOIN types t ON t.id = c.type_id`

// CreateHybrid implements Repository.CreateHybrid.
func (r *SQLiteHybridRepository) CreateHybrid(
	ctx context.Context,
	c domain.NewCreature,
	image domain.ImageURLFunc,
	parent1, parent2 int64,
) (created *domain.Hybrid, err error) {
	c.IsHybrid = true

	err = r.db.Tx(ctx, func(q sqlitedb.Querier) error {
		now := r.db.Now()

		id, err := creature.Insert(ctx, q, now, c, image)
		if err != nil {
			return err
		}

		if _, err := q.ExecContext(ctx,
			"INSERT INTO hybrids (creature_id, parent_1, parent_2, created_at) VALUES (?, ?, ?, ?)",
			id, parent1, parent2, now,
		); err != nil {
			if sqlitedb.IsForeignKeyViolation(err) {
				return errors.Join(domain.ErrCreatureNotFound, err)
			}

			return fmt.Errorf("insert hybrid link: %w", err)
		}

		created, err = find(ctx, q, id)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create hybrid: %w", err)
	}

	r.log.DebugContext(ctx, "hybrid inserted", logging.Group("hybrid",
		"id", created.ID,
		"name", created.Name,
		"parent_1", parent1,
		"parent_2", parent2,
	))

	return created, nil
}

// ListHybrids implements Repository.ListHybrids.
func (r *SQLiteHybridRepository) ListHybrids(ctx context.Context) ([]domain.Hybrid, error) {
	rows, err := r.db.Reader().QueryContext(ctx, selectHybrid+" ORDER BY h.created_at DESC, h.id DESC")
	if err != nil {
		return nil, fmt.Errorf("query hybrids: %w", err)
	}
	defer rows.Close()

	hybrids := []domain.Hybrid{}

	for rows.Next() {
		h, err := scanHybrid(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hybrid: %w", err)
		}

		hybrids = append(hybrids, *h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hybrids: %w", err)
	}

	return hybrids, nil
}

// GetHybrid implements Repository.GetHybrid.
func (r *SQLiteHybridRepository) GetHybrid(ctx context.Context, creatureID int64) (*domain.Hybrid, error) {
	return find(ctx, r.db.Reader(), creatureID)
}

func find(ctx context.Context, q sqlitedb.Querier, creatureID int64) (*domain.Hybrid, error) {
	h, err := scanHybrid(q.QueryRowContext(ctx, selectHybrid+" WHERE h.creature_id = ?", creatureID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Join(domain.ErrHybridNotFound, err)
		}

		return nil, fmt.Errorf("query hybrid: %w", err)
	}

	return h, nil
}

func scanHybrid(row interface{ Scan(dest ...any) error }) (*domain.Hybrid, error) {
	var h domain.Hybrid

	c, err := creature.ScanCreature(row, &h.LinkID, &h.Parent1, &h.Parent2)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	h.Creature = *c

	return &h, nil
}
