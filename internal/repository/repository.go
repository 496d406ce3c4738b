// Package repository defines the storage contract of the application.
//
// Every interface here is implemented twice — by the sqlite package (the
// production backend) and by the memory package (map-based, used for tests
// and for running without a database file). Both implementations must be
// observationally identical; the service layer only ever sees these
// interfaces.
package repository

import (
	"context"
	"time"

	"github.com/nafis/snipnest/internal/model"
)

// ListOptions controls pagination for list queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// SnippetFilter narrows and paginates snippet list queries.
// The zero value means "all snippets, default page".
type SnippetFilter struct {
	ListOptions
	Search     string // case-insensitive match on title and description
	AuthorID   string // only snippets by this author
	PublicOnly bool   // exclude private snippets
}

// UserRepository is the CRUD contract for user accounts.
//
// CreateUser returns apperror.ErrConflict when the username or email is
// already taken. DeleteUser cascades: the user's snippets, likes, views,
// follows, and notifications go with them.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	SetRank(ctx context.Context, id string, rank model.Rank) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, opts ListOptions) ([]model.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// SnippetRepository is the CRUD contract for snippets.
//
// ListTrending returns public snippets created at or after `since`, ordered
// by likes+views descending (ties broken newest first).
type SnippetRepository interface {
	CreateSnippet(ctx context.Context, snippet *model.Snippet) error
	GetSnippetByID(ctx context.Context, id string) (*model.Snippet, error)
	ListSnippets(ctx context.Context, filter SnippetFilter) ([]model.Snippet, error)
	ListTrending(ctx context.Context, since time.Time, opts ListOptions) ([]model.Snippet, error)
	UpdateSnippet(ctx context.Context, snippet *model.Snippet) error
	DeleteSnippet(ctx context.Context, id string) error
	CountSnippets(ctx context.Context) (int, error)
	CountSnippetsByAuthor(ctx context.Context, authorID string, publicOnly bool) (int, error)
}

// SocialRepository covers likes, views, and follows.
//
// The Add/Remove/Record methods report whether they changed anything: a
// second like by the same user returns (false, nil) and leaves the counter
// on the snippet untouched. Same for a second view with the same viewer key.
type SocialRepository interface {
	AddLike(ctx context.Context, snippetID, userID string) (bool, error)
	RemoveLike(ctx context.Context, snippetID, userID string) (bool, error)
	HasLiked(ctx context.Context, snippetID, userID string) (bool, error)
	RecordView(ctx context.Context, view *model.SnippetView) (bool, error)
	CountAllLikes(ctx context.Context) (int, error)
	CountAllViews(ctx context.Context) (int, error)

	AddFollow(ctx context.Context, followerID, followingID string) (bool, error)
	RemoveFollow(ctx context.Context, followerID, followingID string) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	ListFollowerIDs(ctx context.Context, userID string) ([]string, error)
	CountFollowers(ctx context.Context, userID string) (int, error)
	CountFollowing(ctx context.Context, userID string) (int, error)
}

// NotificationRepository stores per-user notifications.
// MarkNotificationRead returns apperror.ErrNotFound unless the notification
// exists AND belongs to userID — recipients can only touch their own.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *model.Notification) error
	ListNotifications(ctx context.Context, userID string, opts ListOptions) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

// Store bundles the full storage contract. Both backends implement it.
type Store interface {
	UserRepository
	SnippetRepository
	SocialRepository
	NotificationRepository
	Close() error
}
