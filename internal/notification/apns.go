package notification

import (
	"context"
	"fmt"

	"github.com/detour-app/detour-backend/internal/config"
	"github.com/detour-app/detour-backend/internal/repository"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

type pusher interface {
	PushWithContext(ctx apns2.Context, n *apns2.Notification) (*apns2.Response, error)
}

// APNsSink sends events as iOS push notifications to the recipient's device token.
type APNsSink struct {
	client pusher
	topic  string
	users  repository.UserRepository
}

// NewAPNsSink builds a token-authenticated APNs client from a .p8 key.
func NewAPNsSink(cfg *config.APNsConfig, users repository.UserRepository) (*APNsSink, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
	}
	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}
	return &APNsSink{client: client, topic: cfg.Topic, users: users}, nil
}

func (s *APNsSink) Name() string {
	return "apns"
}

func (s *APNsSink) Deliver(ctx context.Context, e *Event) error {
	user, err := s.users.GetByID(ctx, e.RecipientID)
	if err != nil {
		return fmt.Errorf("failed to load recipient: %w", err)
	}
	if user.PushToken == nil || *user.PushToken == "" {
		return nil
	}

	title, body := e.Alert()
	p := payload.NewPayload().
		AlertTitle(title).
		AlertBody(body).
		Sound("default").
		Custom("event", e)

	res, err := s.client.PushWithContext(ctx, &apns2.Notification{
		DeviceToken: *user.PushToken,
		Topic:       s.topic,
		Payload:     p,
	})
	if err != nil {
		return fmt.Errorf("apns push failed: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("apns rejected push: %d %s", res.StatusCode, res.Reason)
	}
	return nil
}
