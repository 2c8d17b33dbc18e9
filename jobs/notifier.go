package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridian-bm/meridian-bm/internal/orders"
	"github.com/meridian-bm/meridian-bm/internal/users"
)

// EmailDirectory resolves a user id to an email address.
type EmailDirectory interface {
	Email(ctx context.Context, userID int64) (string, error)
}

// Notifier turns lifecycle events into queued email tasks. Every method is
// best-effort: enqueue failures are logged, never propagated.
type Notifier struct {
	client    *Client
	directory EmailDirectory
	logger    *slog.Logger
}

// NewNotifier constructs a Notifier.
func NewNotifier(client *Client, directory EmailDirectory, logger *slog.Logger) *Notifier {
	return &Notifier{client: client, directory: directory, logger: logger}
}

// OrderCreated enqueues the order confirmation email.
func (n *Notifier) OrderCreated(ctx context.Context, order orders.Order) error {
	to, err := n.directory.Email(ctx, order.CustomerID)
	if err != nil {
		n.logger.Warn("resolve customer email", slog.Any("error", err))
		return nil
	}
	n.enqueue(ctx, SendEmailPayload{
		To:      to,
		Subject: fmt.Sprintf("Order #%d received", order.ID),
		Body:    fmt.Sprintf("Your order #%d for %.2f was created with status %s.", order.ID, order.Total, order.Status),
	})
	return nil
}

// OrderStatusChanged enqueues the status update email.
func (n *Notifier) OrderStatusChanged(ctx context.Context, order orders.Order, from orders.Status) error {
	to, err := n.directory.Email(ctx, order.CustomerID)
	if err != nil {
		n.logger.Warn("resolve customer email", slog.Any("error", err))
		return nil
	}
	n.enqueue(ctx, SendEmailPayload{
		To:      to,
		Subject: fmt.Sprintf("Order #%d is now %s", order.ID, order.Status),
		Body:    fmt.Sprintf("Order #%d moved from %s to %s.", order.ID, from, order.Status),
	})
	return nil
}

// UserCreated enqueues the welcome email.
func (n *Notifier) UserCreated(ctx context.Context, user users.User) error {
	n.enqueue(ctx, SendEmailPayload{
		To:      user.Email,
		Subject: "Welcome to Meridian",
		Body:    fmt.Sprintf("Hi %s, your %s account is ready.", user.Name, user.Role),
	})
	return nil
}

func (n *Notifier) enqueue(ctx context.Context, payload SendEmailPayload) {
	if _, err := n.client.EnqueueSendEmail(ctx, payload); err != nil {
		n.logger.Warn("enqueue email", slog.Any("error", err), slog.String("to", payload.To))
	}
}
