package notification

import "context"

// Broadcaster pushes a payload to every live connection of a user.
type Broadcaster interface {
	SendToUser(userID string, eventType string, payload interface{})
}

// RealtimeSink forwards events to connected WebSocket clients.
type RealtimeSink struct {
	hub Broadcaster
}

func NewRealtimeSink(hub Broadcaster) *RealtimeSink {
	return &RealtimeSink{hub: hub}
}

func (s *RealtimeSink) Name() string {
	return "realtime"
}

func (s *RealtimeSink) Deliver(_ context.Context, e *Event) error {
	s.hub.SendToUser(e.RecipientID, string(e.Type), e)
	return nil
}
