package creature

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/repo/sqlitedb"
)

const selectCreature = `
	SELECT c.id, c.name, c.description, c.type_id, COALESCE(t.name, ''), COALESCE(c.image, ''),
	       c.health_score, c.defense_score, c.attack_score, c.heads,
	       c.created_at, c.created_by, c.is_hybrid
	FROM creatures c
	LEFT JOIN types t ON t.id = c.type_id`

// ScanCreature reads a row produced by a query starting with the creature
// columns of Find.
func ScanCreature(row interface{ Scan(dest ...any) error }, extra ...any) (*domain.Creature, error) {
	var (
		c     domain.Creature
		heads sql.NullInt64
	)

	dest := []any{
		&c.ID, &c.Name, &c.Description, &c.TypeID, &c.TypeName, &c.Image,
		&c.HealthScore, &c.DefenseScore, &c.AttackScore, &heads,
		&c.CreatedAt, &c.CreatedBy, &c.IsHybrid,
	}

	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err //nolint:wrapcheck
	}

	c.Heads = sqlitedb.IntPtr(heads)

	return &c, nil
}

// Find loads a creature through q. Returns ErrCreatureNotFound when absent.
func Find(ctx context.Context, q sqlitedb.Querier, id int64) (*domain.Creature, error) {
	c, err := ScanCreature(q.QueryRowContext(ctx, selectCreature+" WHERE c.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Join(domain.ErrCreatureNotFound, err)
		}

		return nil, fmt.Errorf("query creature: %w", err)
	}

	return c, nil
}

func exists(ctx context.Context, q sqlitedb.Querier, query string, args ...any) (bool, error) {
	var one int

	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("query exists: %w", err)
	}

	return true, nil
}

// checkRefs verifies the type and creator references of a row about to be written.
func checkRefs(ctx context.Context, q sqlitedb.Querier, typeID, createdBy int64) error {
	ok, err := exists(ctx, q, "SELECT 1 FROM types WHERE id = ?", typeID)
	if err != nil {
		return err
	} else if !ok {
		return domain.ErrUnknownType
	}

	if createdBy == 0 {
		return nil
	}

	ok, err = exists(ctx, q, "SELECT 1 FROM users WHERE id = ?", createdBy)
	if err != nil {
		return err
	} else if !ok {
		return domain.ErrUnknownCreator
	}

	return nil
}

// Insert writes c and its image URL through q and returns the new id. A type
// given by name only is found or created first. It is meant to run inside a
// transaction.
func Insert(
	ctx context.Context,
	q sqlitedb.Querier,
	createdAt string,
	c domain.NewCreature,
	image domain.ImageURLFunc,
) (int64, error) {
	if c.TypeID == 0 && c.TypeName != "" {
		t, err := ensureType(ctx, q, c.TypeName, c.CreatedBy)
		if err != nil {
			return 0, err
		}

		c.TypeID = t.ID
	}

	if err := checkRefs(ctx, q, c.TypeID, c.CreatedBy); err != nil {
		return 0, err
	}

	taken, err := exists(ctx, q, "SELECT 1 FROM creatures WHERE name = ?", c.Name)
	if err != nil {
		return 0, err
	} else if taken {
		return 0, domain.ErrCreatureNameTaken
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO creatures
			(name, description, type_id, image, health_score, defense_score, attack_score,
			 heads, created_at, created_by, is_hybrid)
		VALUES (?, ?, ?, NULL, ?, ?, ?, ?, ?, ?, ?)`,
		c.Name, c.Description, c.TypeID, c.HealthScore, c.DefenseScore, c.AttackScore,
		sqlitedb.NullInt(c.Heads), createdAt, c.CreatedBy, c.IsHybrid,
	)
	if err != nil {
		return 0, mapWriteError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	if image != nil {
		if _, err := q.ExecContext(ctx, "UPDATE creatures SET image = ? WHERE id = ?", image(id), id); err != nil {
			return 0, fmt.Errorf("update image: %w", err)
		}
	}

	return id, nil
}

func mapWriteError(err error) error {
	switch {
	case sqlitedb.IsUniqueViolation(err):
		return errors.Join(domain.ErrCreatureNameTaken, err)
	case sqlitedb.IsForeignKeyViolation(err):
		return errors.Join(domain.ErrUnknownType, err)
	default:
		return fmt.Errorf("write creature: %w", err)
	}
}
