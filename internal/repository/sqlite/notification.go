package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/nafis/snipnest/internal/apperror"
	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/repository"
)

// compile-time check that *DB implements repository.NotificationRepository
var _ repository.NotificationRepository = (*DB)(nil)

// CreateNotification inserts a notification for one recipient.
// The optional snippet/from-user references are stored as NULL when empty so
// the foreign keys stay satisfied.
func (db *DB) CreateNotification(ctx context.Context, n *model.Notification) error {
	n.ID = xid.New().String()
	n.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, type, title, message,
			snippet_id, from_user_id, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message,
		nullable(n.SnippetID), nullable(n.FromUserID), n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating notification for %s: %w", n.UserID, err)
	}

	return nil
}

// ListNotifications returns userID's notifications, newest first.
func (db *DB) ListNotifications(ctx context.Context, userID string, opts repository.ListOptions) ([]model.Notification, error) {
	limit, offset := clampPage(opts)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, type, title, message, snippet_id, from_user_id, is_read, created_at
		 FROM notifications
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing notifications for %s: %w", userID, err)
	}
	defer rows.Close()

	notifications := make([]model.Notification, 0, limit)
	for rows.Next() {
		var n model.Notification
		var snippetID, fromUserID sql.NullString
		if err := rows.Scan(
			&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&snippetID, &fromUserID, &n.IsRead, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning notification row: %w", err)
		}
		n.SnippetID = snippetID.String
		n.FromUserID = fromUserID.String
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating notifications: %w", err)
	}

	return notifications, nil
}

// MarkNotificationRead flags one notification as read.
// The WHERE clause carries BOTH the id and the recipient — a user can never
// mark someone else's notification, and trying reads as NotFound (we don't
// reveal that the id exists at all).
func (db *DB) MarkNotificationRead(ctx context.Context, id, userID string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking notification %s read: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("notification", id)
	}

	return nil
}

// MarkAllNotificationsRead flags every unread notification of userID as read.
// Zero rows affected is fine here — "nothing to mark" is a success.
func (db *DB) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking all notifications read for %s: %w", userID, err)
	}
	return nil
}

// CountUnread returns how many unread notifications userID has.
func (db *DB) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`,
		userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting unread notifications for %s: %w", userID, err)
	}
	return n, nil
}
