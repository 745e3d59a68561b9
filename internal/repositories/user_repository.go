package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"trip-service/internal/apperrors"
	"trip-service/internal/models"
)

// UserRepository abstracts user persistence.
type UserRepository interface {
	CreateUser(ctx context.Context, email, name, passwordHash string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByName(ctx context.Context, name string) (models.User, error)
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	ListUsersNotInGroup(ctx context.Context, groupID int64) ([]models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// CreateUser inserts a user. Unique violations on email or name map to
// conflict errors.
func (r *UserRepo) CreateUser(ctx context.Context, email, name, passwordHash string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		INSERT INTO users (email, name, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, email, name, password_hash, avatar_url, created_at, updated_at`,
		email, name, passwordHash)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			if pqErr.Constraint == "users_name_key" {
				return models.User{}, apperrors.NameTaken(name)
			}
			return models.User{}, apperrors.EmailTaken(email)
		}
		return models.User{}, err
	}
	return user, nil
}

// GetUserByEmail fetches a user by email.
func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		SELECT id, email, name, password_hash, avatar_url, created_at, updated_at
		FROM users WHERE email=$1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperrors.UserNotFound(email)
	}
	return user, err
}

// GetUserByName fetches a user by display name.
func (r *UserRepo) GetUserByName(ctx context.Context, name string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		SELECT id, email, name, password_hash, avatar_url, created_at, updated_at
		FROM users WHERE name=$1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperrors.UserNotFound(name)
	}
	return user, err
}

// GetUserByID fetches a user by id.
func (r *UserRepo) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `
		SELECT id, email, name, password_hash, avatar_url, created_at, updated_at
		FROM users WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, apperrors.UserNotFound("unknown id")
	}
	return user, err
}

// ListUsersNotInGroup returns users who are not yet members of the group,
// for member-picker UIs.
func (r *UserRepo) ListUsersNotInGroup(ctx context.Context, groupID int64) ([]models.User, error) {
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, `
		SELECT u.id, u.email, u.name, u.password_hash, u.avatar_url, u.created_at, u.updated_at
		FROM users u
		WHERE NOT EXISTS (
			SELECT 1 FROM group_members gm WHERE gm.group_id=$1 AND gm.user_id=u.id
		)
		ORDER BY u.name`, groupID)
	return users, err
}
