package models

import "time"

const MaxMessageLength = 1000

// Message is a chat message. Removal is recorded in removed_messages, never on the row.
type Message struct {
	ID        int        `db:"id" json:"id"`
	ChatID    int        `db:"chat_id" json:"chat_id"`
	SenderID  int        `db:"sender_id" json:"sender_id"`
	Text      string     `db:"text" json:"text"`
	IsEdited  bool       `db:"is_edited" json:"is_edited"`
	EditedAt  *time.Time `db:"edited_at" json:"edited_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// MessageView is a message as returned by the history endpoint.
type MessageView struct {
	Message
	Username  string           `db:"username" json:"username"`
	Avatar    string           `db:"avatar" json:"avatar"`
	Reactions []Reaction       `db:"-" json:"reactions"`
	Media     *MediaAttachment `db:"-" json:"media"`

	MediaType         *string `db:"media_type" json:"-"`
	MediaURL          *string `db:"media_url" json:"-"`
	MediaDuration     *int    `db:"media_duration" json:"-"`
	MediaThumbnailURL *string `db:"media_thumbnail_url" json:"-"`
}

// AttachScannedMedia builds Media from the joined media columns, if any.
func (v *MessageView) AttachScannedMedia() {
	if v.MediaType == nil || v.MediaURL == nil {
		return
	}
	v.Media = &MediaAttachment{
		MessageID:    v.ID,
		Type:         *v.MediaType,
		URL:          *v.MediaURL,
		Duration:     v.MediaDuration,
		ThumbnailURL: v.MediaThumbnailURL,
	}
}

// Reaction is a live entry of the reaction ledger.
type Reaction struct {
	ID        int    `db:"id" json:"id"`
	MessageID int    `db:"message_id" json:"-"`
	Reaction  string `db:"reaction" json:"reaction"`
	UserID    int    `db:"user_id" json:"user_id"`
	Username  string `db:"username" json:"username"`
}

const (
	MediaImage = "image"
	MediaVideo = "video"
	MediaAudio = "audio"
)

// MediaAttachment is the single media descriptor a message may carry.
type MediaAttachment struct {
	MessageID    int     `db:"message_id" json:"message_id"`
	Type         string  `db:"media_type" json:"type"`
	URL          string  `db:"url" json:"url"`
	Duration     *int    `db:"duration" json:"duration,omitempty"`
	ThumbnailURL *string `db:"thumbnail_url" json:"thumbnail,omitempty"`
}

// ValidMediaType reports whether t can be attached to a message.
func ValidMediaType(t string) bool {
	switch t {
	case MediaImage, MediaVideo, MediaAudio:
		return true
	}
	return false
}

// ChatEvent is pushed to websocket subscribers of a chat.
type ChatEvent struct {
	Type      string   `json:"type"`
	Message   *Message `json:"message,omitempty"`
	MessageID int      `json:"message_id,omitempty"`
	UserID    int      `json:"user_id,omitempty"`
	Reaction  string   `json:"reaction,omitempty"`
	IsTyping  *bool    `json:"is_typing,omitempty"`
}
