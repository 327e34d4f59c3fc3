package models

import "time"

// User is a directory entry. LastSeen drives the online heuristic.
type User struct {
	ID       int        `db:"id" json:"id"`
	Username string     `db:"username" json:"username"`
	Email    string     `db:"email" json:"email"`
	Avatar   string     `db:"avatar" json:"avatar"`
	LastSeen *time.Time `db:"last_seen" json:"last_seen"`
}

// Contact is a user annotated with derived presence.
type Contact struct {
	User
	Online bool `json:"online"`
}

// IsOnline reports whether lastSeen falls within window of now.
func IsOnline(lastSeen *time.Time, now time.Time, window time.Duration) bool {
	if lastSeen == nil {
		return false
	}
	return now.Sub(*lastSeen) < window
}
