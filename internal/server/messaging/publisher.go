// Package messaging publishes integration events emitted by the
// registration flow. Delivery is fire-and-forget from the caller's
// perspective: publish failures are logged, never returned to the user.
package messaging

import "context"

// UserRegistered is emitted once per successful registration. Downstream
// consumers use ConfirmationSecret to send the confirmation email.
type UserRegistered struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	EmailConfirmed     bool   `json:"email_confirmed"`
	ConfirmationSecret string `json:"confirmation_secret"`
}

// Publisher delivers events to an external broker.
type Publisher interface {
	Publish(ctx context.Context, event UserRegistered) error
	Close() error
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event UserRegistered) error { return nil }

func (NopPublisher) Close() error { return nil }
