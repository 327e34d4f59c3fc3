package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"chat-core/internal/models"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrNotSender       = errors.New("message belongs to another user")
)

// MessageRepository defines the message store.
type MessageRepository interface {
	Create(ctx context.Context, chatID int, senderID int, text string) (models.Message, error)
	ListForChat(ctx context.Context, chatID int) ([]models.MessageView, error)
	Get(ctx context.Context, messageID int) (models.Message, error)
	Edit(ctx context.Context, messageID int, senderID int, text string) (models.Message, error)
	SoftDelete(ctx context.Context, messageID int, removedBy int) (chatID int, removed bool, err error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create appends a message and bumps the sender's last_seen in the same transaction.
func (r *MessageRepo) Create(ctx context.Context, chatID int, senderID int, text string) (msg models.Message, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = tx.QueryRowxContext(ctx, `INSERT INTO messages (chat_id, sender_id, text) VALUES ($1, $2, $3)
        RETURNING id, chat_id, sender_id, text, is_edited, edited_at, created_at`, chatID, senderID, text).
		Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.Text, &msg.IsEdited, &msg.EditedAt, &msg.CreatedAt)
	if err != nil {
		return models.Message{}, err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE users SET last_seen = NOW() WHERE id=$1`, senderID); err != nil {
		return models.Message{}, err
	}
	return msg, tx.Commit()
}

const historyQuery = `SELECT m.id, m.chat_id, m.sender_id, m.text, m.is_edited, m.edited_at, m.created_at,
    COALESCE(u.username, '') AS username,
    COALESCE(u.avatar, '') AS avatar,
    ma.media_type AS media_type,
    ma.url AS media_url,
    ma.duration AS media_duration,
    ma.thumbnail_url AS media_thumbnail_url
FROM messages m
LEFT JOIN users u ON u.id = m.sender_id
LEFT JOIN media_attachments ma ON ma.message_id = m.id
WHERE m.chat_id = $1
AND NOT EXISTS (SELECT 1 FROM removed_messages rm WHERE rm.message_id = m.id)
ORDER BY m.created_at ASC, m.id ASC`

const reactionsQuery = `SELECT mr.id, mr.message_id, mr.reaction, mr.user_id, COALESCE(u.username, '') AS username
FROM message_reactions mr
LEFT JOIN users u ON u.id = mr.user_id
WHERE mr.message_id = ANY($1) AND mr.reaction IS NOT NULL
ORDER BY mr.id ASC`

// ListForChat returns visible messages in creation order with reactions and media.
func (r *MessageRepo) ListForChat(ctx context.Context, chatID int) ([]models.MessageView, error) {
	msgs := []models.MessageView{}
	if err := r.db.SelectContext(ctx, &msgs, historyQuery, chatID); err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return msgs, nil
	}

	ids := make([]int64, 0, len(msgs))
	byID := make(map[int]int, len(msgs))
	for i := range msgs {
		msgs[i].AttachScannedMedia()
		msgs[i].Reactions = []models.Reaction{}
		ids = append(ids, int64(msgs[i].ID))
		byID[msgs[i].ID] = i
	}

	var reactions []models.Reaction
	if err := r.db.SelectContext(ctx, &reactions, reactionsQuery, pq.Array(ids)); err != nil {
		return nil, err
	}
	for _, reaction := range reactions {
		if i, ok := byID[reaction.MessageID]; ok {
			msgs[i].Reactions = append(msgs[i].Reactions, reaction)
		}
	}
	return msgs, nil
}

// Get retrieves a visible message.
func (r *MessageRepo) Get(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT id, chat_id, sender_id, text, is_edited, edited_at, created_at FROM messages m
        WHERE id=$1 AND NOT EXISTS (SELECT 1 FROM removed_messages rm WHERE rm.message_id = m.id)`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// Edit rewrites the text of a visible message owned by senderID.
func (r *MessageRepo) Edit(ctx context.Context, messageID int, senderID int, text string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `UPDATE messages m SET text=$3, is_edited=TRUE, edited_at=NOW()
        WHERE id=$1 AND sender_id=$2
        AND NOT EXISTS (SELECT 1 FROM removed_messages rm WHERE rm.message_id = m.id)
        RETURNING id, chat_id, sender_id, text, is_edited, edited_at, created_at`, messageID, senderID, text)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// SoftDelete tombstones a message sent by removedBy and returns its chat id.
// removed is false when the message was already tombstoned.
func (r *MessageRepo) SoftDelete(ctx context.Context, messageID int, removedBy int) (int, bool, error) {
	var owner struct {
		ChatID   int `db:"chat_id"`
		SenderID int `db:"sender_id"`
	}
	err := r.db.GetContext(ctx, &owner, `SELECT chat_id, sender_id FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, ErrMessageNotFound
	}
	if err != nil {
		return 0, false, err
	}
	if owner.SenderID != removedBy {
		return 0, false, ErrNotSender
	}

	res, err := r.db.ExecContext(ctx, `INSERT INTO removed_messages (message_id, removed_by) VALUES ($1, $2)
        ON CONFLICT (message_id) DO NOTHING`, messageID, removedBy)
	if err != nil {
		return 0, false, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	return owner.ChatID, inserted > 0, nil
}
