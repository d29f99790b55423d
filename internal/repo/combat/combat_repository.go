// Package combat stores resolved combats.
package combat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/repo/sqlitedb"
)

// Repository persists combats. Records are immutable once written.
type Repository interface {
	CreateCombat(ctx context.Context, result string, creature1, creature2 int64) (*domain.Combat, error)
	ListCombats(ctx context.Context) ([]domain.Combat, error)
	GetCombat(ctx context.Context, id int64) (*domain.Combat, error)
}

// SQLiteCombatRepository implements Repository on the shared SQLite database.
type SQLiteCombatRepository struct {
	db *sqlitedb.DB
}

var _ Repository = (*SQLiteCombatRepository)(nil)

// NewSQLiteCombatRepository creates a combat repository on db.
func NewSQLiteCombatRepository(db *sqlitedb.DB) *SQLiteCombatRepository {
	return &SQLiteCombatRepository{db: db}
}

// CreateCombat implements Repository.CreateCombat.
func (r *SQLiteCombatRepository) CreateCombat(
	ctx context.Context,
	result string,
	creature1, creature2 int64,
) (*domain.Combat, error) {
	combat := domain.Combat{
		Result:    result,
		Creature1: creature1,
		Creature2: creature2,
		CreatedAt: r.db.Now(),
	}

	err := r.db.Write(ctx, func(q sqlitedb.Querier) error {
		res, err := q.ExecContext(ctx,
			"INSERT INTO combats (result, creature_1, creature_2, created_at) VALUES (?, ?, ?, ?)",
			combat.Result, combat.Creature1, combat.Creature2, combat.CreatedAt,
		)
		if err != nil {
			if sqlitedb.IsForeignKeyViolation(err) {
				return errors.Join(domain.ErrCreatureNotFound, err)
			}

			return err //nolint:wrapcheck
		}

		combat.ID, err = res.LastInsertId()

		return err //nolint:wrapcheck
	})
	if err != nil {
		return nil, fmt.Errorf("insert combat: %w", err)
	}

	return &combat, nil
}

// ListCombats implements Repository.ListCombats.
func (r *SQLiteCombatRepository) ListCombats(ctx context.Context) ([]domain.Combat, error) {
	rows, err := r.db.Reader().QueryContext(ctx,
		"SELECT id, result, creature_1, creature_2, created_at FROM combats ORDER BY created_at DESC, id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("query combats: %w", err)
	}
	defer rows.Close()

	combats := []domain.Combat{}

	for rows.Next() {
		var c domain.Combat
		if err := rows.Scan(&c.ID, &c.Result, &c.Creature1, &c.Creature2, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan combat: %w", err)
		}

		combats = append(combats, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate combats: %w", err)
	}

	return combats, nil
}

// GetCombat implements Repository.GetCombat.
func (r *SQLiteCombatRepository) GetCombat(ctx context.Context, id int64) (*domain.Combat, error) {
	var c domain.Combat

	err := r.db.Reader().QueryRowContext(ctx,
		"SELECT id, result, creature_1, creature_2, created_at FROM combats WHERE id = ?", id,
	).Scan(&c.ID, &c.Result, &c.Creature1, &c.Creature2, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Join(domain.ErrCombatNotFound, err)
		}

		return nil, fmt.Errorf("query combat: %w", err)
	}

	return &c, nil
}
