package domain

import "time"

type SwipeAction string

const (
	SwipeLike      SwipeAction = "like"
	SwipePass      SwipeAction = "pass"
	SwipeSuperlike SwipeAction = "superlike"
)

func (a SwipeAction) Valid() bool {
	switch a {
	case SwipeLike, SwipePass, SwipeSuperlike:
		return true
	}
	return false
}

// IsPositive reports whether the action counts toward a mutual match.
func (a SwipeAction) IsPositive() bool {
	return a == SwipeLike || a == SwipeSuperlike
}

type Swipe struct {
	ID        string      `json:"id" db:"id"`
	SwiperID  string      `json:"swiper_id" db:"swiper_id"`
	SwipedID  string      `json:"swiped_id" db:"swiped_id"`
	Action    SwipeAction `json:"action" db:"action"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}
