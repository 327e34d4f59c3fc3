package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"chat-core/internal/models"
)

var ErrSelfChat = errors.New("cannot create chat with self")

// ChatRepository abstracts chat membership and the per-user directory.
type ChatRepository interface {
	CreateDirect(ctx context.Context, userID int, otherUserID int) (int, error)
	IsMember(ctx context.Context, chatID int, userID int) (bool, error)
	MemberIDs(ctx context.Context, chatID int) ([]int, error)
	ListForUser(ctx context.Context, userID int) ([]models.ChatSummary, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db           *sqlx.DB
	onlineWindow time.Duration
	now          func() time.Time
}

// NewChatRepo constructs a ChatRepo. onlineWindow bounds the presence heuristic.
func NewChatRepo(db *sqlx.DB, onlineWindow time.Duration) *ChatRepo {
	return &ChatRepo{db: db, onlineWindow: onlineWindow, now: time.Now}
}

// CreateDirect returns the direct chat for the unordered pair, creating it once.
// The direct_chats primary key serializes concurrent callers: the loser's insert
// waits for the winner to commit and then reads the winner's chat id.
func (r *ChatRepo) CreateDirect(ctx context.Context, userID int, otherUserID int) (chatID int, err error) {
	if userID == otherUserID {
		return 0, ErrSelfChat
	}
	low, high := userID, otherUserID
	if low > high {
		low, high = high, low
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `INSERT INTO direct_chats (user_low, user_high) VALUES ($1, $2)
        ON CONFLICT (user_low, user_high) DO NOTHING`, low, high)
	if err != nil {
		return 0, err
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if inserted == 0 {
		if err = tx.GetContext(ctx, &chatID, `SELECT chat_id FROM direct_chats WHERE user_low=$1 AND user_high=$2`, low, high); err != nil {
			return 0, fmt.Errorf("read direct chat: %w", err)
		}
		return chatID, tx.Commit()
	}

	if err = tx.GetContext(ctx, &chatID, `INSERT INTO chats (is_group) VALUES (FALSE) RETURNING id`); err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, `INSERT INTO chat_members (chat_id, user_id) VALUES ($1, $2), ($1, $3)`, chatID, low, high); err != nil {
		return 0, err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE direct_chats SET chat_id=$3 WHERE user_low=$1 AND user_high=$2`, low, high, chatID); err != nil {
		return 0, err
	}
	return chatID, tx.Commit()
}

// IsMember checks whether a user belongs to the chat.
func (r *ChatRepo) IsMember(ctx context.Context, chatID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chat_members WHERE chat_id=$1 AND user_id=$2)`, chatID, userID)
	return exists, err
}

// MemberIDs lists the members of a chat.
func (r *ChatRepo) MemberIDs(ctx context.Context, chatID int) ([]int, error) {
	ids := []int{}
	err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM chat_members WHERE chat_id=$1 ORDER BY user_id`, chatID)
	return ids, err
}

const directoryQuery = `SELECT c.id, c.name, c.avatar, c.is_group,
    lm.text AS last_message,
    lm.created_at AS last_message_time,
    (SELECT COUNT(*) FROM messages m
        WHERE m.chat_id = c.id
        AND m.sender_id <> $1
        AND m.created_at > COALESCE(me.last_seen, 'epoch'::timestamptz)
        AND NOT EXISTS (SELECT 1 FROM removed_messages rm WHERE rm.message_id = m.id)) AS unread_count,
    o.id AS other_user_id,
    o.username AS other_username,
    o.avatar AS other_avatar,
    o.last_seen AS other_last_seen
FROM chats c
JOIN chat_members cm ON cm.chat_id = c.id AND cm.user_id = $1
LEFT JOIN users me ON me.id = $1
LEFT JOIN LATERAL (
    SELECT m.text, m.created_at FROM messages m
    WHERE m.chat_id = c.id
    AND NOT EXISTS (SELECT 1 FROM removed_messages rm WHERE rm.message_id = m.id)
    ORDER BY m.created_at DESC, m.id DESC
    LIMIT 1
) lm ON TRUE
LEFT JOIN LATERAL (
    SELECT u.id, u.username, u.avatar, u.last_seen FROM chat_members om
    JOIN users u ON u.id = om.user_id
    WHERE om.chat_id = c.id AND om.user_id <> $1 AND NOT c.is_group
    ORDER BY u.id
    LIMIT 1
) o ON TRUE
ORDER BY last_message_time DESC NULLS LAST, c.id DESC`

// ListForUser returns the requester's chats, newest activity first.
func (r *ChatRepo) ListForUser(ctx context.Context, userID int) ([]models.ChatSummary, error) {
	chats := []models.ChatSummary{}
	if err := r.db.SelectContext(ctx, &chats, directoryQuery, userID); err != nil {
		return nil, err
	}
	now := r.now()
	for i := range chats {
		chats[i].ResolveCounterpart(now, r.onlineWindow)
	}
	return chats, nil
}
