package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"chat-core/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

const searchLimit = 20

// UserRepository reads the user directory.
type UserRepository interface {
	Get(ctx context.Context, userID int) (models.User, error)
	Search(ctx context.Context, requesterID int, term string) ([]models.User, error)
	Contacts(ctx context.Context, requesterID int) ([]models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Get fetches a user by id.
func (r *UserRepo) Get(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT id, username, email, avatar, last_seen FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// Search matches username or email, excluding the requester.
func (r *UserRepo) Search(ctx context.Context, requesterID int, term string) ([]models.User, error) {
	users := []models.User{}
	if term == "" {
		err := r.db.SelectContext(ctx, &users, `SELECT id, username, email, avatar, last_seen FROM users
            WHERE id <> $1
            ORDER BY username LIMIT $2`, requesterID, searchLimit)
		return users, err
	}

	pattern := "%" + escapeLike(term) + "%"
	err := r.db.SelectContext(ctx, &users, `SELECT id, username, email, avatar, last_seen FROM users
        WHERE id <> $1 AND (username ILIKE $2 OR email ILIKE $2)
        ORDER BY username LIMIT $3`, requesterID, pattern, searchLimit)
	return users, err
}

// Contacts lists every other user ordered by username.
func (r *UserRepo) Contacts(ctx context.Context, requesterID int) ([]models.User, error) {
	users := []models.User{}
	err := r.db.SelectContext(ctx, &users, `SELECT id, username, email, avatar, last_seen FROM users
        WHERE id <> $1
        ORDER BY username`, requesterID)
	return users, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}
