package notify

import (
	"context"
	"fmt"

	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/store"
)

// Center is a single user's view of their notifications: listing, read
// tracking, and the live insert feed.
type Center struct {
	store  store.Store
	userID string
}

// NewCenter creates a notification center scoped to the given recipient.
func NewCenter(s store.Store, userID string) *Center {
	return &Center{store: s, userID: userID}
}

// List returns the user's notifications, newest first.
func (c *Center) List(ctx context.Context) ([]model.Notification, error) {
	notifications, err := c.store.ListNotifications(ctx, c.userID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount returns how many of the user's notifications are unread.
func (c *Center) UnreadCount(ctx context.Context) (int, error) {
	notifications, err := c.List(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, n := range notifications {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

// MarkAsRead marks a single notification as read.
func (c *Center) MarkAsRead(ctx context.Context, id string) error {
	if err := c.store.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	return nil
}

// MarkAllAsRead marks every unread notification as read. Idempotent.
func (c *Center) MarkAllAsRead(ctx context.Context) error {
	if err := c.store.MarkAllNotificationsRead(ctx, c.userID); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}

// Subscribe returns a live subscription to notifications inserted for
// this user. Delivered events carry the stored Notification unchanged.
func (c *Center) Subscribe() *store.Subscription {
	return c.store.SubscribeInserts(store.TableNotifications, "user_id", c.userID)
}
