package domain

import "time"

// BlockedUser is directional; a pair counts as blocked if either row exists.
type BlockedUser struct {
	ID        string    `json:"id" db:"id"`
	BlockerID string    `json:"blocker_id" db:"blocker_id"`
	BlockedID string    `json:"blocked_id" db:"blocked_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type BlockStatus struct {
	Blocked   bool    `json:"blocked"`
	BlockedBy *string `json:"blocked_by,omitempty"`
}
