package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

type HelpCategory string

const (
	CategoryRepairs    HelpCategory = "repairs"
	CategoryElectrical HelpCategory = "electrical"
	CategoryBuild      HelpCategory = "build"
	CategoryPlumbing   HelpCategory = "plumbing"
	CategoryOther      HelpCategory = "other"
)

// HelpCategories is the closed set of request categories.
var HelpCategories = []HelpCategory{
	CategoryRepairs,
	CategoryElectrical,
	CategoryBuild,
	CategoryPlumbing,
	CategoryOther,
}

func (c HelpCategory) Valid() bool {
	for _, known := range HelpCategories {
		if c == known {
			return true
		}
	}
	return false
}

type HelpRequestStatus string

const (
	RequestOpen       HelpRequestStatus = "open"
	RequestInProgress HelpRequestStatus = "in_progress"
	RequestCompleted  HelpRequestStatus = "completed"
	RequestCancelled  HelpRequestStatus = "cancelled"
)

// IsTerminal reports whether no further transition is defined.
func (s HelpRequestStatus) IsTerminal() bool {
	return s == RequestCompleted || s == RequestCancelled
}

type HelpRequest struct {
	ID              string            `json:"id" db:"id"`
	AuthorID        string            `json:"author_id" db:"author_id"`
	Title           string            `json:"title" db:"title"`
	Description     string            `json:"description" db:"description"`
	Category        HelpCategory      `json:"category" db:"category"`
	Location        *string           `json:"location,omitempty" db:"location"`
	Photos          []string          `json:"photos" db:"photos"`
	IsUrgent        bool              `json:"is_urgent" db:"is_urgent"`
	Status          HelpRequestStatus `json:"status" db:"status"`
	AcceptedOfferID *string           `json:"accepted_offer_id,omitempty" db:"accepted_offer_id"`
	AcceptedAt      *time.Time        `json:"accepted_at,omitempty" db:"accepted_at"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

// HelpRequestPatch lists the fields an author may edit while a request is open.
type HelpRequestPatch struct {
	Title       *string       `json:"title" binding:"omitempty,min=3,max=120"`
	Description *string       `json:"description" binding:"omitempty,max=2000"`
	Category    *HelpCategory `json:"category" binding:"omitempty,help_category"`
	Location    *string       `json:"location" binding:"omitempty,max=120"`
	Photos      *[]string     `json:"photos" binding:"omitempty,max=6"`
	IsUrgent    *bool         `json:"is_urgent"`
}

// Apply validates and merges the non-nil fields of p into r.
func (p *HelpRequestPatch) Apply(r *HelpRequest) error {
	if p.Category != nil && !p.Category.Valid() {
		return ErrInvalidCategory
	}
	if p.Title != nil {
		title, err := NormalizeTitle(*p.Title)
		if err != nil {
			return err
		}
		r.Title = title
	}
	if p.Description != nil {
		if utf8.RuneCountInString(*p.Description) > MaxDescriptionLength {
			return InvalidInput("description must be at most %d characters", MaxDescriptionLength)
		}
		r.Description = strings.TrimSpace(*p.Description)
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Location != nil {
		r.Location = p.Location
	}
	if p.Photos != nil {
		r.Photos = *p.Photos
	}
	if p.IsUrgent != nil {
		r.IsUrgent = *p.IsUrgent
	}
	return nil
}

const (
	MinTitleLength       = 3
	MaxTitleLength       = 120
	MaxDescriptionLength = 2000
)

func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	n := utf8.RuneCountInString(title)
	if n < MinTitleLength || n > MaxTitleLength {
		return "", InvalidInput("title must be between %d and %d characters", MinTitleLength, MaxTitleLength)
	}
	return title, nil
}

type HelpOfferStatus string

const (
	OfferPending   HelpOfferStatus = "pending"
	OfferAccepted  HelpOfferStatus = "accepted"
	OfferRejected  HelpOfferStatus = "rejected"
	OfferWithdrawn HelpOfferStatus = "withdrawn"
)

type HelpOffer struct {
	ID        string          `json:"id" db:"id"`
	RequestID string          `json:"request_id" db:"request_id"`
	OffererID string          `json:"offerer_id" db:"offerer_id"`
	Price     int64           `json:"price" db:"price"`
	Message   string          `json:"message" db:"message"`
	Status    HelpOfferStatus `json:"status" db:"status"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the offer still blocks its author from re-offering.
func (o *HelpOffer) IsActive() bool {
	return o.Status != OfferWithdrawn
}

type HelpConversation struct {
	ID            string     `json:"id" db:"id"`
	RequestID     string     `json:"request_id" db:"request_id"`
	OfferID       string     `json:"offer_id" db:"offer_id"`
	RequesterID   string     `json:"requester_id" db:"requester_id"`
	OffererID     string     `json:"offerer_id" db:"offerer_id"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty" db:"last_message_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

func (c *HelpConversation) HasUser(userID string) bool {
	return c.RequesterID == userID || c.OffererID == userID
}

func (c *HelpConversation) GetOtherUserID(userID string) (string, bool) {
	switch userID {
	case c.RequesterID:
		return c.OffererID, true
	case c.OffererID:
		return c.RequesterID, true
	}
	return "", false
}

// ActivityAt is the last message time, falling back to creation.
func (c *HelpConversation) ActivityAt() time.Time {
	if c.LastMessageAt != nil {
		return *c.LastMessageAt
	}
	return c.CreatedAt
}

type HelpMessage struct {
	ID             string      `json:"id" db:"id"`
	ConversationID string      `json:"conversation_id" db:"conversation_id"`
	SenderID       string      `json:"sender_id" db:"sender_id"`
	Content        string      `json:"content" db:"content"`
	MessageType    MessageType `json:"message_type" db:"message_type"`
	ReadAt         *time.Time  `json:"read_at,omitempty" db:"read_at"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}
