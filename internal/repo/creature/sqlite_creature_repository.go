package creature

import (
	"context"
	"errors"
	"fmt"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	"github.com/mkrupp/bestiary/internal/repo/sqlitedb"
)

// SQLiteRepository implements Repository and TypeRepository on the shared
// SQLite database.
type SQLiteRepository struct {
	db  *sqlitedb.DB
	log logging.Logger
}

var (
	_ Repository     = (*SQLiteRepository)(nil)
	_ TypeRepository = (*SQLiteRepository)(nil)
)

// NewSQLiteRepository creates a creature repository on db.
func NewSQLiteRepository(db *sqlitedb.DB) *SQLiteRepository {
	return &SQLiteRepository{
		db:  db,
		log: logging.GetLogger("repo.creature.sqlite_repository"),
	}
}

const orderNewestFirst = " ORDER BY c.created_at DESC, c.id DESC"

// ListCreatures implements Repository.ListCreatures.
func (r *SQLiteRepository) ListCreatures(ctx context.Context) ([]domain.CreatureSummary, error) {
	return r.listSummaries(ctx, `
		SELECT c.id, c.name, c.created_at, c.type_id, COALESCE(t.name, '')
		FROM creatures c
		LEFT JOIN types t ON t.id = c.type_id`+orderNewestFirst)
}

// ListCreaturesByType implements Repository.ListCreaturesByType.
func (r *SQLiteRepository) ListCreaturesByType(ctx context.Context, typeID int64) ([]domain.CreatureSummary, error) {
	return r.listSummaries(ctx, `
		SELECT c.id, c.name, c.created_at, c.type_id, COALESCE(t.name, '')
		FROM creatures c
		LEFT JOIN types t ON t.id = c.type_id
		WHERE c.type_id = ?`+orderNewestFirst, typeID)
}

func (r *SQLiteRepository) listSummaries(ctx context.Context, query string, args ...any) ([]domain.CreatureSummary, error) {
	rows, err := r.db.Reader().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query creatures: %w", err)
	}
	defer rows.Close()

	items := []domain.CreatureSummary{}

	for rows.Next() {
		var s domain.CreatureSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.TypeID, &s.TypeName); err != nil {
			return nil, fmt.Errorf("scan creature: %w", err)
		}

		items = append(items, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate creatures: %w", err)
	}

	return items, nil
}

// GetCreature implements Repository.GetCreature.
func (r *SQLiteRepository) GetCreature(ctx context.Context, id int64) (*domain.Creature, error) {
	return Find(ctx, r.db.Reader(), id)
}

// CreateCreature implements Repository.CreateCreature.
func (r *SQLiteRepository) CreateCreature(
	ctx context.Context,
	c domain.NewCreature,
	image domain.ImageURLFunc,
) (created *domain.Creature, err error) {
	err = r.db.Tx(ctx, func(q sqlitedb.Querier) error {
		id, err := Insert(ctx, q, r.db.Now(), c, image)
		if err != nil {
			return err
		}

		created, err = Find(ctx, q, id)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create creature: %w", err)
	}

	r.log.DebugContext(ctx, "creature inserted", logging.Group("creature", "id", created.ID, "name", created.Name))

	return created, nil
}

// UpdateCreature implements Repository.UpdateCreature.
func (r *SQLiteRepository) UpdateCreature(
	ctx context.Context,
	id int64,
	u domain.CreatureUpdate,
) (updated *domain.Creature, err error) {
	err = r.db.Tx(ctx, func(q sqlitedb.Querier) error {
		if _, err := Find(ctx, q, id); err != nil {
			return err
		}

		if err := checkRefs(ctx, q, u.TypeID, 0); err != nil {
			return err
		}

		taken, err := exists(ctx, q, "SELECT 1 FROM creatures WHERE name = ? AND id != ?", u.Name, id)
		if err != nil {
			return err
		} else if taken {
			return domain.ErrCreatureNameTaken
		}

		if _, err := q.ExecContext(ctx, `
			UPDATE creatures
			SET name = ?, type_id = ?, description = ?, heads = ?,
			    health_score = ?, defense_score = ?, attack_score = ?
			WHERE id = ?`,
			u.Name, u.TypeID, u.Description, sqlitedb.NullInt(u.Heads),
			u.HealthScore, u.DefenseScore, u.AttackScore, id,
		); err != nil {
			return mapWriteError(err)
		}

		updated, err = Find(ctx, q, id)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update creature: %w", err)
	}

	return updated, nil
}

// UpdateImage implements Repository.UpdateImage.
func (r *SQLiteRepository) UpdateImage(ctx context.Context, id int64, url string) (updated *domain.Creature, err error) {
	err = r.db.Tx(ctx, func(q sqlitedb.Querier) error {
		res, err := q.ExecContext(ctx, "UPDATE creatures SET image = ? WHERE id = ?", url, id)
		if err != nil {
			return fmt.Errorf("update image: %w", err)
		}

		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return domain.ErrCreatureNotFound
		}

		updated, err = Find(ctx, q, id)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update creature image: %w", err)
	}

	return updated, nil
}

// DeleteCreature implements Repository.DeleteCreature.
func (r *SQLiteRepository) DeleteCreature(ctx context.Context, id int64) error {
	err := r.db.Write(ctx, func(q sqlitedb.Querier) error {
		res, err := q.ExecContext(ctx, "DELETE FROM creatures WHERE id = ?", id)
		if err != nil {
			if sqlitedb.IsForeignKeyViolation(err) {
				return errors.Join(domain.ErrCreatureInUse, err)
			}

			return err //nolint:wrapcheck
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err //nolint:wrapcheck
		} else if n == 0 {
			return domain.ErrCreatureNotFound
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("delete creature: %w", err)
	}

	r.log.DebugContext(ctx, "creature deleted", logging.Group("creature", "id", id))

	return nil
}
