package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/repository"
)

// NotificationService exposes a user's notification inbox.
//
// Notifications are CREATED elsewhere — by SnippetService (publish, like)
// and UserService (follow) — this service only reads and acknowledges them,
// always scoped to the requesting user.
type NotificationService struct {
	notifications repository.NotificationRepository
	logger        *slog.Logger
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(notifications repository.NotificationRepository, logger *slog.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, logger: logger}
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Notification, error) {
	items, err := s.notifications.ListNotifications(ctx, userID, opts)
	if err != nil {
		return nil, fmt.Errorf("service/notification: listing for %s: %w", userID, err)
	}
	return items, nil
}

// MarkRead marks one notification as read. The store enforces ownership:
// a notification ID belonging to someone else comes back as not found.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.notifications.MarkNotificationRead(ctx, id, userID); err != nil {
		return fmt.Errorf("service/notification: marking %s read: %w", id, err)
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.notifications.MarkAllNotificationsRead(ctx, userID); err != nil {
		return fmt.Errorf("service/notification: marking all read for %s: %w", userID, err)
	}
	return nil
}

// UnreadCount returns the number of unread notifications, for the badge.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("service/notification: counting unread for %s: %w", userID, err)
	}
	return count, nil
}
