package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ReactionRepository is the reaction ledger.
type ReactionRepository interface {
	Add(ctx context.Context, messageID int, userID int, reaction string) error
	Remove(ctx context.Context, reactionID int, userID int) (int, error)
}

// ReactionRepo is a sqlx implementation of ReactionRepository.
type ReactionRepo struct {
	db *sqlx.DB
}

// NewReactionRepo constructs a ReactionRepo.
func NewReactionRepo(db *sqlx.DB) *ReactionRepo {
	return &ReactionRepo{db: db}
}

// Add records a reaction; a duplicate (message, user, reaction) is ignored.
func (r *ReactionRepo) Add(ctx context.Context, messageID int, userID int, reaction string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO message_reactions (message_id, user_id, reaction) VALUES ($1, $2, $3)
        ON CONFLICT (message_id, user_id, reaction) DO NOTHING`, messageID, userID, reaction)
	return err
}

// Remove clears the reaction value in place and returns the affected message id,
// or 0 when the caller owns no such reaction. The row itself is kept.
func (r *ReactionRepo) Remove(ctx context.Context, reactionID int, userID int) (int, error) {
	var messageID int
	err := r.db.GetContext(ctx, &messageID, `UPDATE message_reactions SET reaction = NULL
        WHERE id=$1 AND user_id=$2 AND reaction IS NOT NULL
        RETURNING message_id`, reactionID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return messageID, err
}
