package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nafis/snipnest/internal/apperror"
	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/repository"
)

// AdminService backs the moderation surface. Every method here sits behind
// the RequireAdmin middleware, so it does not re-check the caller's rank —
// except where an admin could lock themselves out.
type AdminService struct {
	users    repository.UserRepository
	snippets repository.SnippetRepository
	social   repository.SocialRepository
	logger   *slog.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(
	users repository.UserRepository,
	snippets repository.SnippetRepository,
	social repository.SocialRepository,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		users:    users,
		snippets: snippets,
		social:   social,
		logger:   logger,
	}
}

// ListUsers returns all accounts, newest first.
func (s *AdminService) ListUsers(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	users, err := s.users.ListUsers(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("service/admin: listing users: %w", err)
	}
	return users, nil
}

// DeleteUser removes an account and everything attached to it: snippets,
// likes, views, follows, and notifications. Counters on OTHER users'
// snippets are corrected by the store. Admins cannot delete themselves.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, userID string) error {
	if actorID == userID {
		return apperror.ValidationFailed("userId", "you cannot delete your own account")
	}

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("service/admin: deleting user %s: %w", userID, err)
	}

	s.logger.Info("user deleted by admin",
		slog.String("userID", userID),
		slog.String("actorID", actorID),
	)
	return nil
}

// SetRank changes a user's rank. An admin cannot demote themselves — that
// is how a site ends up with zero admins.
func (s *AdminService) SetRank(ctx context.Context, actorID, userID string, rank model.Rank) error {
	if rank != model.RankDefault && rank != model.RankAdmin {
		return apperror.ValidationFailed("rank", "rank must be \"default\" or \"admin\"")
	}
	if actorID == userID && rank != model.RankAdmin {
		return apperror.ValidationFailed("rank", "you cannot demote yourself")
	}

	if err := s.users.SetRank(ctx, userID, rank); err != nil {
		return fmt.Errorf("service/admin: setting rank of %s: %w", userID, err)
	}

	s.logger.Info("rank changed",
		slog.String("userID", userID),
		slog.String("rank", string(rank)),
		slog.String("actorID", actorID),
	)
	return nil
}

// ListSnippets returns ALL snippets, private ones included.
func (s *AdminService) ListSnippets(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	snippets, err := s.snippets.ListSnippets(ctx, repository.SnippetFilter{ListOptions: opts})
	if err != nil {
		return nil, fmt.Errorf("service/admin: listing snippets: %w", err)
	}
	return snippets, nil
}

// DeleteSnippet removes any snippet regardless of author.
func (s *AdminService) DeleteSnippet(ctx context.Context, actorID, snippetID string) error {
	if err := s.snippets.DeleteSnippet(ctx, snippetID); err != nil {
		return fmt.Errorf("service/admin: deleting snippet %s: %w", snippetID, err)
	}

	s.logger.Info("snippet deleted by admin",
		slog.String("snippetID", snippetID),
		slog.String("actorID", actorID),
	)
	return nil
}

// Stats are the site-wide totals the admin dashboard shows.
type Stats struct {
	Users    int `json:"users"`
	Snippets int `json:"snippets"`
	Likes    int `json:"likes"`
	Views    int `json:"views"`
}

// Stats gathers the dashboard totals. Likes and views are counted from the
// relation tables, not summed from snippet counters, so the dashboard shows
// the ground truth even if a counter ever drifts.
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	users, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/admin: counting users: %w", err)
	}
	snippets, err := s.snippets.CountSnippets(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/admin: counting snippets: %w", err)
	}
	likes, err := s.social.CountAllLikes(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/admin: counting likes: %w", err)
	}
	views, err := s.social.CountAllViews(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/admin: counting views: %w", err)
	}

	return &Stats{Users: users, Snippets: snippets, Likes: likes, Views: views}, nil
}
