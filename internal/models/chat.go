package models

import "time"

// ChatSummary is one row of a user's chat directory.
type ChatSummary struct {
	ID              int        `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Avatar          string     `db:"avatar" json:"avatar"`
	IsGroup         bool       `db:"is_group" json:"is_group"`
	LastMessage     *string    `db:"last_message" json:"last_message"`
	LastMessageTime *time.Time `db:"last_message_time" json:"last_message_time"`
	UnreadCount     int        `db:"unread_count" json:"unread_count"`
	OtherUserID     *int       `db:"other_user_id" json:"other_user_id,omitempty"`
	Online          *bool      `db:"-" json:"online,omitempty"`

	OtherUsername *string    `db:"other_username" json:"-"`
	OtherAvatar   *string    `db:"other_avatar" json:"-"`
	OtherLastSeen *time.Time `db:"other_last_seen" json:"-"`
}

// ResolveCounterpart replaces a direct chat's display identity with the other member's.
func (s *ChatSummary) ResolveCounterpart(now time.Time, window time.Duration) {
	if s.IsGroup || s.OtherUserID == nil {
		return
	}
	if s.OtherUsername != nil {
		s.Name = *s.OtherUsername
	}
	if s.OtherAvatar != nil {
		s.Avatar = *s.OtherAvatar
	}
	online := IsOnline(s.OtherLastSeen, now, window)
	s.Online = &online
}
