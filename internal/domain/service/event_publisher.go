package service

import (
	"context"
	"time"
)

// AuthEventType names an authentication lifecycle event.
type AuthEventType string

const (
	AuthEventRegistered   AuthEventType = "registered"
	AuthEventLoginSuccess AuthEventType = "login_succeeded"
	AuthEventLoginFailure AuthEventType = "login_failed"
	AuthEventLogout       AuthEventType = "logout"
)

// AuthEvent is an audit record emitted by the session adapter.
// It never carries password material or session identifiers.
type AuthEvent struct {
	RequestID  string        `json:"request_id,omitempty"` // For distributed tracing
	EventID    string        `json:"event_id"`
	Type       AuthEventType `json:"type"`
	UserID     string        `json:"user_id,omitempty"` // Empty for failed logins
	OccurredAt time.Time     `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishAuthEvent publishes an authentication event for downstream consumers
	PublishAuthEvent(ctx context.Context, event *AuthEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
