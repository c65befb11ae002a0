package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nhle/fleetbell/internal/model"
	"github.com/nhle/fleetbell/internal/observability/metrics"
)

// Notifications exposes the notification endpoints of the backend.
type Notifications struct {
	client            *Client
	unreadPath        string
	resetPasswordPath string
}

// NewNotifications binds the configured endpoint paths to client.
func NewNotifications(client *Client, cfg model.BackendConfig) *Notifications {
	return &Notifications{
		client:            client,
		unreadPath:        cfg.UnreadPath,
		resetPasswordPath: cfg.ResetPasswordPath,
	}
}

// FetchUnread returns the backend's unread backlog, newest first as the
// backend orders it.
func (n *Notifications) FetchUnread(ctx context.Context) ([]model.Notification, error) {
	var items []model.Notification
	err := n.client.Get(ctx, n.unreadPath, &items)
	metrics.BacklogFetches.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return nil, fmt.Errorf("fetching unread notifications: %w", err)
	}
	if items == nil {
		items = []model.Notification{}
	}

	n.client.logger.Debug("Fetched unread notifications", zap.Int("count", len(items)))
	return items, nil
}

// ResetPasswordRequest is the body of the password reset action.
type ResetPasswordRequest struct {
	EmailAddress string `json:"emailAddress"`
	Username     string `json:"username"`
}

// ResetPassword asks the backend to reset the password of the user a
// password reset notification concerns.
func (n *Notifications) ResetPassword(ctx context.Context, emailAddress, username string) error {
	req := ResetPasswordRequest{EmailAddress: emailAddress, Username: username}
	if err := n.client.Post(ctx, n.resetPasswordPath, req, nil); err != nil {
		return fmt.Errorf("resetting password for %s: %w", username, err)
	}

	n.client.logger.Info("Password reset requested",
		zap.String("username", username),
		zap.String("email", emailAddress),
	)
	return nil
}
