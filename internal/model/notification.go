package model

import "time"

// Notification types. The type is what the frontend switches on to pick an
// icon and a link target, so these strings are part of the API.
const (
	NotificationNewSnippet = "new_snippet" // someone you follow published a snippet
	NotificationLike       = "like"        // someone liked your snippet
	NotificationFollow     = "follow"      // someone followed you
)

// Notification is a message delivered to a single user.
// SnippetID and FromUserID are optional references — empty when the
// notification has no snippet or no originating user attached.
type Notification struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"` // recipient
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	SnippetID  string    `json:"snippetId,omitempty"`
	FromUserID string    `json:"fromUserId,omitempty"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}
