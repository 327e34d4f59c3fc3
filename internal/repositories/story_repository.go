package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chat-core/internal/models"
)

var ErrStoryNotFound = errors.New("story not found")

// StoryRepository stores 24h story items and their viewers.
type StoryRepository interface {
	Create(ctx context.Context, item models.StoryItem, mentions []int) (models.StoryItem, []int, error)
	Get(ctx context.Context, storyID int) (models.StoryItem, error)
	Feed(ctx context.Context, viewerID int) ([]models.StoryItem, error)
	ForUser(ctx context.Context, authorID int, viewerID int) ([]models.StoryItem, error)
	Mentions(ctx context.Context, userID int) ([]models.StoryItem, error)
	Viewers(ctx context.Context, storyID int) ([]models.StoryViewer, error)
	MarkViewed(ctx context.Context, storyID int, viewerID int) (bool, error)
	React(ctx context.Context, storyID int, userID int, emoji string) error
	Delete(ctx context.Context, storyID int, ownerID int) error
}

// StoryRepo is a sqlx implementation of StoryRepository.
// Visibility is decided against the repo clock: an item is visible while expires_at > now.
type StoryRepo struct {
	db  *sqlx.DB
	ttl time.Duration
	now func() time.Time
}

// NewStoryRepo constructs a StoryRepo. ttl is the visibility window of new items.
func NewStoryRepo(db *sqlx.DB, ttl time.Duration) *StoryRepo {
	return &StoryRepo{db: db, ttl: ttl, now: time.Now}
}

const storyColumns = `s.id, s.user_id, s.media_url, s.media_type, s.caption, s.background_color, s.font_style,
    s.duration, s.views_count, s.created_at, s.expires_at,
    COALESCE(u.username, '') AS username, COALESCE(u.avatar, '') AS avatar`

// Create stores a story item and its mentions. It returns the ids that were actually mentioned.
func (r *StoryRepo) Create(ctx context.Context, item models.StoryItem, mentions []int) (stored models.StoryItem, mentioned []int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.StoryItem{}, nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	createdAt := r.now().UTC()
	err = tx.GetContext(ctx, &stored, `INSERT INTO stories
        (user_id, media_url, media_type, caption, background_color, font_style, duration, created_at, expires_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, user_id, media_url, media_type, caption, background_color, font_style,
            duration, views_count, created_at, expires_at`,
		item.UserID, item.MediaURL, item.MediaType, item.Caption, item.BackgroundColor, item.FontStyle,
		item.Duration, createdAt, createdAt.Add(r.ttl))
	if err != nil {
		return models.StoryItem{}, nil, err
	}

	mentioned = []int{}
	if len(mentions) > 0 {
		ids := make([]int64, 0, len(mentions))
		for _, id := range mentions {
			ids = append(ids, int64(id))
		}
		err = tx.SelectContext(ctx, &mentioned, `INSERT INTO story_mentions (story_id, user_id)
            SELECT $1, u.id FROM users u WHERE u.id = ANY($2) AND u.id <> $3
            ON CONFLICT (story_id, user_id) DO NOTHING
            RETURNING user_id`, stored.ID, pq.Array(ids), item.UserID)
		if err != nil {
			return models.StoryItem{}, nil, err
		}
	}
	return stored, mentioned, tx.Commit()
}

// Get fetches a story item that is still visible.
func (r *StoryRepo) Get(ctx context.Context, storyID int) (models.StoryItem, error) {
	var item models.StoryItem
	err := r.db.GetContext(ctx, &item, `SELECT `+storyColumns+`
        FROM stories s LEFT JOIN users u ON u.id = s.user_id
        WHERE s.id=$1 AND s.expires_at > $2`, storyID, r.now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return models.StoryItem{}, ErrStoryNotFound
	}
	return item, err
}

// Feed returns every visible item, oldest first, flagged for the viewer.
func (r *StoryRepo) Feed(ctx context.Context, viewerID int) ([]models.StoryItem, error) {
	items := []models.StoryItem{}
	err := r.db.SelectContext(ctx, &items, `SELECT `+storyColumns+`,
        EXISTS (SELECT 1 FROM story_views v WHERE v.story_id = s.id AND v.viewer_id = $1) AS is_viewed
        FROM stories s LEFT JOIN users u ON u.id = s.user_id
        WHERE s.expires_at > $2
        ORDER BY s.created_at ASC, s.id ASC`, viewerID, r.now().UTC())
	return items, err
}

// ForUser returns one author's visible items, oldest first.
func (r *StoryRepo) ForUser(ctx context.Context, authorID int, viewerID int) ([]models.StoryItem, error) {
	items := []models.StoryItem{}
	err := r.db.SelectContext(ctx, &items, `SELECT `+storyColumns+`,
        EXISTS (SELECT 1 FROM story_views v WHERE v.story_id = s.id AND v.viewer_id = $2) AS is_viewed
        FROM stories s LEFT JOIN users u ON u.id = s.user_id
        WHERE s.user_id = $1 AND s.expires_at > $3
        ORDER BY s.created_at ASC, s.id ASC`, authorID, viewerID, r.now().UTC())
	return items, err
}

// Mentions returns visible items that mention the user, newest first.
func (r *StoryRepo) Mentions(ctx context.Context, userID int) ([]models.StoryItem, error) {
	items := []models.StoryItem{}
	err := r.db.SelectContext(ctx, &items, `SELECT `+storyColumns+`,
        EXISTS (SELECT 1 FROM story_views v WHERE v.story_id = s.id AND v.viewer_id = $1) AS is_viewed
        FROM story_mentions sm
        JOIN stories s ON s.id = sm.story_id
        LEFT JOIN users u ON u.id = s.user_id
        WHERE sm.user_id = $1 AND s.expires_at > $2
        ORDER BY s.created_at DESC, s.id DESC`, userID, r.now().UTC())
	return items, err
}

// Viewers lists who opened the item, latest first, with their reaction if any.
func (r *StoryRepo) Viewers(ctx context.Context, storyID int) ([]models.StoryViewer, error) {
	viewers := []models.StoryViewer{}
	err := r.db.SelectContext(ctx, &viewers, `SELECT v.viewer_id AS user_id,
        COALESCE(u.username, '') AS username, COALESCE(u.avatar, '') AS avatar,
        v.viewed_at, sr.emoji AS reaction
        FROM story_views v
        LEFT JOIN users u ON u.id = v.viewer_id
        LEFT JOIN story_reactions sr ON sr.story_id = v.story_id AND sr.user_id = v.viewer_id
        WHERE v.story_id = $1
        ORDER BY v.viewed_at DESC`, storyID)
	return viewers, err
}

// MarkViewed records the first view of an item. It reports whether this call counted.
func (r *StoryRepo) MarkViewed(ctx context.Context, storyID int, viewerID int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `WITH ins AS (
            INSERT INTO story_views (story_id, viewer_id) VALUES ($1, $2)
            ON CONFLICT (story_id, viewer_id) DO NOTHING
            RETURNING story_id
        )
        UPDATE stories SET views_count = views_count + 1 WHERE id IN (SELECT story_id FROM ins)`, storyID, viewerID)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// React stores the user's latest reaction to an item.
func (r *StoryRepo) React(ctx context.Context, storyID int, userID int, emoji string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO story_reactions (story_id, user_id, emoji) VALUES ($1, $2, $3)
        ON CONFLICT (story_id, user_id) DO UPDATE SET emoji = EXCLUDED.emoji, created_at = NOW()`, storyID, userID, emoji)
	return err
}

// Delete expires an owner's item immediately. Rows are kept for housekeeping.
func (r *StoryRepo) Delete(ctx context.Context, storyID int, ownerID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE stories SET expires_at = $3
        WHERE id=$1 AND user_id=$2 AND expires_at > $3`, storyID, ownerID, r.now().UTC())
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrStoryNotFound
	}
	return nil
}
