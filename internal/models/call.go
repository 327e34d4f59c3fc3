package models

import "time"

const (
	CallAudio = "audio"
	CallVideo = "video"

	CallInitiated = "initiated"
	CallEnded     = "ended"
)

// Call records a call intent between two users. Signaling happens elsewhere.
type Call struct {
	ID         string     `db:"id" json:"id"`
	CallerID   int        `db:"caller_id" json:"caller_id"`
	ReceiverID int        `db:"receiver_id" json:"receiver_id"`
	CallType   string     `db:"call_type" json:"call_type"`
	Status     string     `db:"status" json:"status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	EndedAt    *time.Time `db:"ended_at" json:"ended_at,omitempty"`
}
