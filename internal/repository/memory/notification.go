package memory

import (
	"context"
	"time"

	"github.com/rs/xid"

	"github.com/nafis/snipnest/internal/apperror"
	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/repository"
)

func (s *Store) CreateNotification(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n.ID = xid.New().String()
	n.CreatedAt = time.Now()

	stored := *n
	s.notifications[n.ID] = &stored
	return nil
}

func (s *Store) ListNotifications(_ context.Context, userID string, opts repository.ListOptions) ([]model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	notifications := make([]model.Notification, 0)
	for _, n := range s.notifications {
		if n.UserID == userID {
			notifications = append(notifications, *n)
		}
	}
	sortNewestFirst(notifications,
		func(n model.Notification) time.Time { return n.CreatedAt },
		func(n model.Notification) string { return n.ID })

	return page(notifications, opts.Limit, opts.Offset), nil
}

// MarkNotificationRead requires the id AND the recipient to match, exactly
// like the sqlite WHERE clause — a wrong recipient reads as NotFound.
func (s *Store) MarkNotificationRead(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return apperror.NotFound("notification", id)
	}
	n.IsRead = true
	return nil
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (s *Store) CountUnread(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, notification := range s.notifications {
		if notification.UserID == userID && !notification.IsRead {
			n++
		}
	}
	return n, nil
}
