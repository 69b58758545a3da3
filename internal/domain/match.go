package domain

import "time"

type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusMatched  MatchStatus = "matched"
	MatchStatusRejected MatchStatus = "rejected"
)

// Match is stored with the swiper that completed the pair as User1.
type Match struct {
	ID          string      `json:"id" db:"id"`
	User1ID     string      `json:"user1_id" db:"user1_id"`
	User2ID     string      `json:"user2_id" db:"user2_id"`
	Status      MatchStatus `json:"status" db:"status"`
	User1Action SwipeAction `json:"user1_action" db:"user1_action"`
	User2Action SwipeAction `json:"user2_action" db:"user2_action"`
	MatchedAt   *time.Time  `json:"matched_at,omitempty" db:"matched_at"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

func (m *Match) HasUser(userID string) bool {
	return m.User1ID == userID || m.User2ID == userID
}

func (m *Match) GetOtherUserID(userID string) (string, bool) {
	if m.User1ID == userID {
		return m.User2ID, true
	}
	if m.User2ID == userID {
		return m.User1ID, true
	}
	return "", false
}

// ActivityAt is the time a match was made, falling back to creation.
func (m *Match) ActivityAt() time.Time {
	if m.MatchedAt != nil {
		return *m.MatchedAt
	}
	return m.CreatedAt
}

// PairKey normalizes an unordered pair of user ids.
func PairKey(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}
