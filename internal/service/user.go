package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"

	"github.com/nafis/snipnest/internal/apperror"
	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/repository"
)

const (
	MaxDisplayNameLength = 60
	MaxBioLength         = 500
	MaxLocationLength    = 100
)

// UserService covers public profiles, profile editing, and the follow graph.
type UserService struct {
	users         repository.UserRepository
	snippets      repository.SnippetRepository
	social        repository.SocialRepository
	notifications repository.NotificationRepository
	logger        *slog.Logger
}

// NewUserService creates a UserService with all required dependencies.
func NewUserService(
	users repository.UserRepository,
	snippets repository.SnippetRepository,
	social repository.SocialRepository,
	notifications repository.NotificationRepository,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:         users,
		snippets:      snippets,
		social:        social,
		notifications: notifications,
		logger:        logger,
	}
}

// Profile is a user plus the aggregate numbers their profile page shows,
// and whether the current viewer follows them.
type Profile struct {
	*model.User
	SnippetCount   int  `json:"snippetCount"`
	FollowerCount  int  `json:"followerCount"`
	FollowingCount int  `json:"followingCount"`
	IsFollowing    bool `json:"isFollowing"`
}

// Profile returns the public profile for a username. viewerID may be ""
// for anonymous visitors; it controls IsFollowing and whether the snippet
// count includes private snippets (it does for the owner).
func (s *UserService) Profile(ctx context.Context, username, viewerID string) (*Profile, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/user: fetching profile %q: %w", username, err)
	}

	publicOnly := viewerID != user.ID
	snippetCount, err := s.snippets.CountSnippetsByAuthor(ctx, user.ID, publicOnly)
	if err != nil {
		return nil, fmt.Errorf("service/user: counting snippets of %s: %w", user.ID, err)
	}

	followerCount, err := s.social.CountFollowers(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/user: counting followers of %s: %w", user.ID, err)
	}

	followingCount, err := s.social.CountFollowing(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/user: counting following of %s: %w", user.ID, err)
	}

	isFollowing := false
	if viewerID != "" && viewerID != user.ID {
		isFollowing, err = s.social.IsFollowing(ctx, viewerID, user.ID)
		if err != nil {
			return nil, fmt.Errorf("service/user: checking follow state: %w", err)
		}
	}

	return &Profile{
		User:           user,
		SnippetCount:   snippetCount,
		FollowerCount:  followerCount,
		FollowingCount: followingCount,
		IsFollowing:    isFollowing,
	}, nil
}

// ProfileInput carries the fields a user may change about themselves.
// Username and rank are deliberately absent: usernames are permanent and
// rank changes go through the admin surface.
type ProfileInput struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
	Location    string `json:"location"`
	Website     string `json:"website"`
	AvatarURL   string `json:"avatarUrl"`
}

// UpdateProfile applies a full replacement of the editable profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)

	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, apperror.ValidationFailed("email", "invalid email address")
	}
	if in.DisplayName == "" {
		return nil, apperror.ValidationFailed("displayName", "display name is required")
	}
	if len(in.DisplayName) > MaxDisplayNameLength {
		return nil, apperror.ValidationFailed("displayName",
			fmt.Sprintf("display name must be %d characters or fewer", MaxDisplayNameLength))
	}
	if len(in.Bio) > MaxBioLength {
		return nil, apperror.ValidationFailed("bio",
			fmt.Sprintf("bio must be %d characters or fewer", MaxBioLength))
	}
	if len(in.Location) > MaxLocationLength {
		return nil, apperror.ValidationFailed("location",
			fmt.Sprintf("location must be %d characters or fewer", MaxLocationLength))
	}
	if in.Website != "" {
		u, err := url.Parse(in.Website)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, apperror.ValidationFailed("website", "website must be an http(s) URL")
		}
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/user: fetching user %s: %w", userID, err)
	}

	user.Email = in.Email
	user.DisplayName = in.DisplayName
	user.Bio = in.Bio
	user.Location = in.Location
	user.Website = in.Website
	user.AvatarURL = in.AvatarURL

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, apperror.ValidationFailed("email", "email already in use")
		}
		return nil, fmt.Errorf("service/user: updating user %s: %w", userID, err)
	}

	s.logger.Info("profile updated", slog.String("userID", userID))
	return user, nil
}

// Follow makes followerID follow targetID. Idempotent — following twice is
// a no-op. Self-follows are rejected. A follow that lands notifies the
// target.
func (s *UserService) Follow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return apperror.ValidationFailed("userId", "you cannot follow yourself")
	}

	// Verify the target exists before touching the follow graph so a typo'd
	// ID comes back as 404 rather than a dangling edge.
	if _, err := s.users.GetUserByID(ctx, targetID); err != nil {
		return fmt.Errorf("service/user: fetching follow target %s: %w", targetID, err)
	}

	added, err := s.social.AddFollow(ctx, followerID, targetID)
	if err != nil {
		return fmt.Errorf("service/user: following %s: %w", targetID, err)
	}
	if !added {
		return nil
	}

	follower, err := s.users.GetUserByID(ctx, followerID)
	if err != nil {
		s.logger.Error("failed to fetch follower for notification",
			slog.String("followerID", followerID),
			slog.String("error", err.Error()),
		)
		return nil
	}

	n := &model.Notification{
		UserID:     targetID,
		Type:       model.NotificationFollow,
		Title:      follower.Username + " followed you",
		Message:    follower.Username + " is now following you",
		FromUserID: followerID,
	}
	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		s.logger.Error("failed to create follow notification",
			slog.String("targetID", targetID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("user followed",
		slog.String("followerID", followerID),
		slog.String("targetID", targetID),
	)
	return nil
}

// Unfollow removes a follow edge. Idempotent.
func (s *UserService) Unfollow(ctx context.Context, followerID, targetID string) error {
	if followerID == targetID {
		return apperror.ValidationFailed("userId", "you cannot unfollow yourself")
	}
	if _, err := s.social.RemoveFollow(ctx, followerID, targetID); err != nil {
		return fmt.Errorf("service/user: unfollowing %s: %w", targetID, err)
	}
	return nil
}

// Snippets lists a user's snippets newest first. The owner (and admins)
// see private snippets too; everyone else sees only public ones.
func (s *UserService) Snippets(ctx context.Context, username, viewerID string, opts repository.ListOptions) ([]model.Snippet, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("service/user: fetching user %q: %w", username, err)
	}

	publicOnly := true
	if viewerID == user.ID {
		publicOnly = false
	} else if viewerID != "" {
		viewer, err := s.users.GetUserByID(ctx, viewerID)
		if err == nil && viewer.IsAdmin() {
			publicOnly = false
		}
	}

	snippets, err := s.snippets.ListSnippets(ctx, repository.SnippetFilter{
		ListOptions: opts,
		AuthorID:    user.ID,
		PublicOnly:  publicOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("service/user: listing snippets of %s: %w", user.ID, err)
	}
	return snippets, nil
}
