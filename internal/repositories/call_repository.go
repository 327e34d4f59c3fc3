package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"chat-core/internal/models"
)

var ErrCallNotFound = errors.New("call not found")

// CallRepository records call intents.
type CallRepository interface {
	Create(ctx context.Context, call models.Call) (models.Call, error)
	Get(ctx context.Context, callID string) (models.Call, error)
	End(ctx context.Context, callID string) (models.Call, error)
}

// CallRepo is a sqlx implementation of CallRepository.
type CallRepo struct {
	db *sqlx.DB
}

// NewCallRepo constructs a CallRepo.
func NewCallRepo(db *sqlx.DB) *CallRepo {
	return &CallRepo{db: db}
}

// Create stores a pending call.
func (r *CallRepo) Create(ctx context.Context, call models.Call) (models.Call, error) {
	var stored models.Call
	err := r.db.GetContext(ctx, &stored, `INSERT INTO calls (id, caller_id, receiver_id, call_type, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, caller_id, receiver_id, call_type, status, created_at, ended_at`,
		call.ID, call.CallerID, call.ReceiverID, call.CallType, models.CallInitiated)
	return stored, err
}

// Get fetches a call by id.
func (r *CallRepo) Get(ctx context.Context, callID string) (models.Call, error) {
	var call models.Call
	err := r.db.GetContext(ctx, &call, `SELECT id, caller_id, receiver_id, call_type, status, created_at, ended_at FROM calls WHERE id=$1`, callID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Call{}, ErrCallNotFound
	}
	return call, err
}

// End marks the call ended. The first end time wins.
func (r *CallRepo) End(ctx context.Context, callID string) (models.Call, error) {
	var call models.Call
	err := r.db.GetContext(ctx, &call, `UPDATE calls SET status=$2, ended_at=COALESCE(ended_at, NOW())
        WHERE id=$1
        RETURNING id, caller_id, receiver_id, call_type, status, created_at, ended_at`, callID, models.CallEnded)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Call{}, ErrCallNotFound
	}
	return call, err
}
