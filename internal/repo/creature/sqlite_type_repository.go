package creature

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/repo/sqlitedb"
)

// ListTypes implements TypeRepository.ListTypes.
func (r *SQLiteRepository) ListTypes(ctx context.Context) ([]domain.CreatureType, error) {
	rows, err := r.db.Reader().QueryContext(ctx, "SELECT id, name, created_by FROM types ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query types: %w", err)
	}
	defer rows.Close()

	types := []domain.CreatureType{}

	for rows.Next() {
		var t domain.CreatureType
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan type: %w", err)
		}

		types = append(types, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate types: %w", err)
	}

	return types, nil
}

// GetType implements TypeRepository.GetType.
func (r *SQLiteRepository) GetType(ctx context.Context, id int64) (*domain.CreatureType, error) {
	t, ok, err := findType(ctx, r.db.Reader(), "id = ?", id)
	if err != nil {
		return nil, err
	} else if !ok {
		return nil, domain.ErrTypeNotFound
	}

	return t, nil
}

// GetTypeByName implements TypeRepository.GetTypeByName.
func (r *SQLiteRepository) GetTypeByName(ctx context.Context, name string) (*domain.CreatureType, bool, error) {
	return findType(ctx, r.db.Reader(), "name = ?", name)
}

// CreateType implements TypeRepository.CreateType.
func (r *SQLiteRepository) CreateType(ctx context.Context, name string, createdBy int64) (created *domain.CreatureType, err error) {
	err = r.db.Tx(ctx, func(q sqlitedb.Querier) error {
		created, err = insertType(ctx, q, name, createdBy)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create type: %w", err)
	}

	return created, nil
}

// ensureType returns the type called name, inserting it through q when missing.
func ensureType(ctx context.Context, q sqlitedb.Querier, name string, createdBy int64) (*domain.CreatureType, error) {
	t, ok, err := findType(ctx, q, "name = ?", name)
	if err != nil {
		return nil, err
	} else if ok {
		return t, nil
	}

	t, err = insertType(ctx, q, name, createdBy)
	if err != nil {
		return nil, fmt.Errorf("ensure type %q: %w", name, err)
	}

	return t, nil
}

func findType(ctx context.Context, q sqlitedb.Querier, where string, arg any) (*domain.CreatureType, bool, error) {
	var t domain.CreatureType

	err := q.QueryRowContext(ctx, "SELECT id, name, created_by FROM types WHERE "+where, arg).
		Scan(&t.ID, &t.Name, &t.CreatedBy)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query type: %w", err)
	}

	return &t, true, nil
}

func insertType(ctx context.Context, q sqlitedb.Querier, name string, createdBy int64) (*domain.CreatureType, error) {
	ok, err := exists(ctx, q, "SELECT 1 FROM users WHERE id = ?", createdBy)
	if err != nil {
		return nil, err
	} else if !ok {
		return nil, domain.ErrUnknownCreator
	}

	res, err := q.ExecContext(ctx, "INSERT INTO types (name, created_by) VALUES (?, ?)", name, createdBy)
	if err != nil {
		if sqlitedb.IsUniqueViolation(err) {
			return nil, errors.Join(domain.ErrTypeNameTaken, err)
		}

		return nil, fmt.Errorf("insert type: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &domain.CreatureType{ID: id, Name: name, CreatedBy: createdBy}, nil
}
