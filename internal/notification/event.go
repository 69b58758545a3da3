package notification

import (
	"context"
	"time"
)

type EventType string

const (
	EventMatch                EventType = "match"
	EventMessage              EventType = "message"
	EventHelpOffer            EventType = "help_offer"
	EventHelpOfferAccepted    EventType = "help_offer_accepted"
	EventHelpOfferRejected    EventType = "help_offer_rejected"
	EventHelpRequestCancelled EventType = "help_request_cancelled"
	EventHelpRequestCompleted EventType = "help_request_completed"
	EventHelpMessage          EventType = "help_message"
)

// Event is the outbound notification contract shared by push and realtime delivery.
type Event struct {
	Type        EventType `json:"type"`
	RecipientID string    `json:"recipientId"`

	MatchID       string `json:"matchId,omitempty"`
	OtherUserID   string `json:"otherUserId,omitempty"`
	OtherUserName string `json:"otherUserName,omitempty"`

	SenderName string `json:"senderName,omitempty"`
	Preview    string `json:"preview,omitempty"`

	RequestID    string `json:"requestId,omitempty"`
	OfferID      string `json:"offerId,omitempty"`
	OffererName  string `json:"offererName,omitempty"`
	RequestTitle string `json:"requestTitle,omitempty"`

	ConversationID string `json:"conversationId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Alert renders the push notification title and body.
func (e *Event) Alert() (title, body string) {
	switch e.Type {
	case EventMatch:
		return "It's a match!", "You and " + e.OtherUserName + " liked each other"
	case EventMessage:
		return e.SenderName, e.Preview
	case EventHelpOffer:
		return "New offer", e.OffererName + " offered to help with \"" + e.RequestTitle + "\""
	case EventHelpOfferAccepted:
		return "Offer accepted", "Your offer for \"" + e.RequestTitle + "\" was accepted"
	case EventHelpOfferRejected:
		return "Offer declined", "Your offer for \"" + e.RequestTitle + "\" was not selected"
	case EventHelpRequestCancelled:
		return "Request cancelled", "\"" + e.RequestTitle + "\" was cancelled by its author"
	case EventHelpRequestCompleted:
		return "Request completed", "\"" + e.RequestTitle + "\" was marked as completed"
	case EventHelpMessage:
		return e.SenderName, e.Preview
	}
	return "detour", ""
}

// Publisher hands committed events to the delivery pipeline.
// Implementations must not block and never fail the caller.
type Publisher interface {
	Publish(ctx context.Context, events ...*Event)
}

// Queue is a Publisher whose events can be consumed by the dispatcher.
type Queue interface {
	Publisher
	// Receive blocks until an event is available or ctx is done.
	Receive(ctx context.Context) (*Event, error)
	Close() error
}
