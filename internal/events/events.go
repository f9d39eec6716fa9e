// Package events publishes account lifecycle events to the message queue
// and consumes them for auditing.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ecostore/apiserver/internal/mq"
	"github.com/ecostore/apiserver/types"
	"github.com/google/uuid"
)

// Event types.
const (
	TypeUserRegistered = "user.registered"
	TypeUserLoggedIn   = "user.logged_in"
)

const contentTypeJSON = "application/json"

// Event is the JSON body of every message on the events channel.
type Event struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	UserID     string     `json:"userId"`
	Email      string     `json:"email"`
	Role       types.Role `json:"role"`
	OccurredAt time.Time  `json:"occurredAt"`
}

// NewUserEvent builds an event of the given type for user.
func NewUserEvent(eventType string, user types.User) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher sends events to a single channel. A nil *Publisher drops events.
type Publisher struct {
	queue   *mq.MQ
	channel string
}

func NewPublisher(queue *mq.MQ, channel string) *Publisher {
	if queue == nil {
		return nil
	}
	return &Publisher{queue: queue, channel: channel}
}

// Publish encodes e and sends it, returning the broker's message ID.
func (p *Publisher) Publish(ctx context.Context, e Event) (string, error) {
	if p == nil {
		return "", nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}
	id, err := p.queue.Publish(ctx, p.channel, data, attributes(e))
	if err != nil {
		return "", fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return id, nil
}

// attributes keys events by user so a subscriber sees one account's events
// in the order they happened.
func attributes(e Event) map[string]string {
	attrs := map[string]string{
		mq.AttrType:        e.Type,
		mq.AttrContentType: contentTypeJSON,
	}
	if e.UserID != "" {
		attrs[mq.AttrOrderingKey] = e.UserID
	}
	return attrs
}

// Decode parses a message body into an Event.
func Decode(msg mq.Message) (Event, error) {
	var e Event
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		return Event{}, fmt.Errorf("decode event %s: %w", msg.ID, err)
	}
	if e.Type == "" {
		e.Type = msg.Attributes[mq.AttrType]
	}
	if e.Type == "" {
		return Event{}, errors.New("event type is missing")
	}
	return e, nil
}
