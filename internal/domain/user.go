package domain

import "time"

type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
	UserStatusRejected UserStatus = "rejected"
)

// CanTransitionTo reports whether the one-way review transition is allowed.
func (s UserStatus) CanTransitionTo(next UserStatus) bool {
	return s == UserStatusPending && (next == UserStatusApproved || next == UserStatusRejected)
}

type User struct {
	ID            string     `json:"id" db:"id"`
	ClerkID       string     `json:"-" db:"clerk_id"`
	Name          string     `json:"name" db:"name"`
	Birthday      *time.Time `json:"birthday,omitempty" db:"birthday"`
	Gender        *string    `json:"gender,omitempty" db:"gender"`
	Bio           *string    `json:"bio,omitempty" db:"bio"`
	Location      *string    `json:"location,omitempty" db:"location"`
	LifestyleTags []string   `json:"lifestyle_tags" db:"lifestyle_tags"`
	Interests     []string   `json:"interests" db:"interests"`
	Photos        []string   `json:"photos" db:"photos"`
	Status        UserStatus `json:"status" db:"status"`
	PushToken     *string    `json:"-" db:"push_token"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// FirstPhoto returns the profile picture, if any.
func (u *User) FirstPhoto() *string {
	if len(u.Photos) == 0 {
		return nil
	}
	p := u.Photos[0]
	return &p
}

// UserPatch lists the profile fields a user may change about themselves.
// Nil fields are left untouched.
type UserPatch struct {
	Name          *string    `json:"name" binding:"omitempty,min=1,max=100"`
	Birthday      *time.Time `json:"birthday"`
	Gender        *string    `json:"gender" binding:"omitempty,max=32"`
	Bio           *string    `json:"bio" binding:"omitempty,max=500"`
	Location      *string    `json:"location" binding:"omitempty,max=120"`
	LifestyleTags *[]string  `json:"lifestyle_tags" binding:"omitempty,max=20"`
	Interests     *[]string  `json:"interests" binding:"omitempty,max=20"`
	Photos        *[]string  `json:"photos" binding:"omitempty,max=9"`
}

// Apply merges the non-nil fields of p into u.
func (p *UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Birthday != nil {
		u.Birthday = p.Birthday
	}
	if p.Gender != nil {
		u.Gender = p.Gender
	}
	if p.Bio != nil {
		u.Bio = p.Bio
	}
	if p.Location != nil {
		u.Location = p.Location
	}
	if p.LifestyleTags != nil {
		u.LifestyleTags = *p.LifestyleTags
	}
	if p.Interests != nil {
		u.Interests = *p.Interests
	}
	if p.Photos != nil {
		u.Photos = *p.Photos
	}
}

// UserSummary is the public view of another participant.
type UserSummary struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Photo *string `json:"photo,omitempty"`
}

func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Photo: u.FirstPhoto()}
}
