package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chat-core/internal/models"
)

const foreignKeyViolation = "23503"

// MediaRepository is the media attachment registry.
type MediaRepository interface {
	Upsert(ctx context.Context, media models.MediaAttachment) (models.MediaAttachment, error)
}

// MediaRepo is a sqlx implementation of MediaRepository.
type MediaRepo struct {
	db *sqlx.DB
}

// NewMediaRepo constructs a MediaRepo.
func NewMediaRepo(db *sqlx.DB) *MediaRepo {
	return &MediaRepo{db: db}
}

// Upsert stores the message's attachment, overwriting every field of an existing one.
func (r *MediaRepo) Upsert(ctx context.Context, media models.MediaAttachment) (models.MediaAttachment, error) {
	var stored models.MediaAttachment
	err := r.db.GetContext(ctx, &stored, `INSERT INTO media_attachments (message_id, media_type, url, duration, thumbnail_url)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (message_id) DO UPDATE SET
            media_type = EXCLUDED.media_type,
            url = EXCLUDED.url,
            duration = EXCLUDED.duration,
            thumbnail_url = EXCLUDED.thumbnail_url,
            updated_at = NOW()
        RETURNING message_id, media_type, url, duration, thumbnail_url`,
		media.MessageID, media.Type, media.URL, media.Duration, media.ThumbnailURL)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
		return models.MediaAttachment{}, ErrMessageNotFound
	}
	if err != nil {
		return models.MediaAttachment{}, fmt.Errorf("upsert media: %w", err)
	}
	return stored, nil
}
