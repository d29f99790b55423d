package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkrupp/bestiary/internal/domain"
	"github.com/mkrupp/bestiary/internal/infra/logging"
	"github.com/mkrupp/bestiary/internal/repo/sqlitedb"
)

// SQLiteUserRepository implements Repository on the shared SQLite database.
type SQLiteUserRepository struct {
	db  *sqlitedb.DB
	log logging.Logger
}

var _ Repository = (*SQLiteUserRepository)(nil)

// NewSQLiteUserRepository creates a user repository on db.
func NewSQLiteUserRepository(db *sqlitedb.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{
		db:  db,
		log: logging.GetLogger("repo.user.sqlite_user_repository"),
	}
}

const selectUser = "SELECT id, username, email, password_hash, created_at FROM users"

// CreateUser implements Repository.CreateUser using SQLite.
func (r *SQLiteUserRepository) CreateUser(
	ctx context.Context,
	username, email string,
	passwordHash []byte,
) (*domain.User, error) {
	user := domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    r.db.Now(),
	}

	err := r.db.Write(ctx, func(q sqlitedb.Querier) error {
		res, err := q.ExecContext(ctx,
			"INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
			user.Username, user.Email, user.PasswordHash, user.CreatedAt,
		)
		if err != nil {
			return err //nolint:wrapcheck
		}

		user.ID, err = res.LastInsertId()

		return err //nolint:wrapcheck
	})
	if err != nil {
		if sqlitedb.IsUniqueViolation(err) {
			err = errors.Join(domain.ErrUserAlreadyExists, err)
		}

		return nil, fmt.Errorf("insert user: %w", err)
	}

	r.log.DebugContext(ctx, "user inserted", logging.Group("user", "id", user.ID, "username", user.Username))

	return &user, nil
}

// GetUserByUsername implements Repository.GetUserByUsername using SQLite.
func (r *SQLiteUserRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	return r.getUser(ctx, selectUser+" WHERE username = ?", username)
}

// GetUserByEmail implements Repository.GetUserByEmail using SQLite.
func (r *SQLiteUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, bool, error) {
	return r.getUser(ctx, selectUser+" WHERE email = ?", email)
}

// GetUserByID implements Repository.GetUserByID using SQLite.
func (r *SQLiteUserRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, bool, error) {
	return r.getUser(ctx, selectUser+" WHERE id = ?", id)
}

func (r *SQLiteUserRepository) getUser(ctx context.Context, query string, arg any) (*domain.User, bool, error) {
	var user domain.User

	err := r.db.Reader().QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("query user: %w", err)
	}

	return &user, true, nil
}
