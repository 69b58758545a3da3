package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
)

const (
	MaxMessageLength = 2000
	PreviewLength    = 50
)

func (t MessageType) Valid() bool {
	return t == MessageText || t == MessageImage
}

type Message struct {
	ID          string      `json:"id" db:"id"`
	MatchID     string      `json:"match_id" db:"match_id"`
	SenderID    string      `json:"sender_id" db:"sender_id"`
	Content     string      `json:"content" db:"content"`
	MessageType MessageType `json:"message_type" db:"message_type"`
	ReadAt      *time.Time  `json:"read_at,omitempty" db:"read_at"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

type TypingStatus struct {
	MatchID   string    `json:"match_id" db:"match_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	IsTyping  bool      `json:"is_typing" db:"is_typing"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NormalizeMessage trims content, defaults the type and enforces limits.
func NormalizeMessage(content string, messageType MessageType) (string, MessageType, error) {
	if messageType == "" {
		messageType = MessageText
	}
	if !messageType.Valid() {
		return "", "", ErrInvalidMessageType
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(content) > MaxMessageLength {
		return "", "", ErrMessageTooLong
	}
	return content, messageType, nil
}

// Preview builds the notification text for a message.
func Preview(content string, messageType MessageType) string {
	if messageType == MessageImage {
		return "📷 Photo"
	}
	if utf8.RuneCountInString(content) <= PreviewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:PreviewLength]) + "..."
}
