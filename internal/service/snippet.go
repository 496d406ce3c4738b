package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nafis/snipnest/internal/apperror"
	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/repository"
)

const (
	MaxTitleLength       = 150
	MaxDescriptionLength = 500

	// MaxBodyLength caps each of the html/css/js bodies individually.
	// 200 KB is far beyond any real snippet but keeps request bodies bounded.
	MaxBodyLength = 200 * 1024

	// TrendingWindow is how far back the trending feed looks. Snippets older
	// than this never appear in trending regardless of their score.
	TrendingWindow = 7 * 24 * time.Hour
)

// SnippetService covers the full snippet lifecycle: create/read/update/delete,
// likes, views, and the trending feed.
//
// WHY DOES IT KNOW ABOUT NOTIFICATIONS AND FOLLOWS?
// Publishing a snippet notifies the author's followers, and a like notifies
// the snippet's author. Those side effects belong to the BUSINESS rules of
// publishing and liking, so they live here rather than in the handlers.
type SnippetService struct {
	snippets      repository.SnippetRepository
	users         repository.UserRepository
	social        repository.SocialRepository
	notifications repository.NotificationRepository
	logger        *slog.Logger
}

// NewSnippetService creates a SnippetService with all required dependencies.
func NewSnippetService(
	snippets repository.SnippetRepository,
	users repository.UserRepository,
	social repository.SocialRepository,
	notifications repository.NotificationRepository,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		snippets:      snippets,
		users:         users,
		social:        social,
		notifications: notifications,
		logger:        logger,
	}
}

// SnippetInput carries the writable fields of a snippet. Used for both
// create and update — the API treats updates as full replacements.
type SnippetInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	HTML        string `json:"html"`
	CSS         string `json:"css"`
	JS          string `json:"js"`
	IsPublic    bool   `json:"isPublic"`
}

func (in *SnippetInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if len(in.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or fewer", MaxTitleLength))
	}
	if len(in.Description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or fewer", MaxDescriptionLength))
	}
	for _, body := range []struct{ field, value string }{
		{"html", in.HTML}, {"css", in.CSS}, {"js", in.JS},
	} {
		if len(body.value) > MaxBodyLength {
			return apperror.ValidationFailed(body.field,
				fmt.Sprintf("%s must be %d bytes or fewer", body.field, MaxBodyLength))
		}
	}
	return nil
}

// SnippetDetail is a snippet plus the viewer-dependent extras the detail
// page needs: the author's public profile and whether the viewer liked it.
type SnippetDetail struct {
	*model.Snippet
	Author  *model.User `json:"author"`
	IsLiked bool        `json:"isLiked"`
}

// Create validates and stores a new snippet, then notifies the author's
// followers if it is public.
func (s *SnippetService) Create(ctx context.Context, authorID string, in SnippetInput) (*model.Snippet, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	author, err := s.users.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("service/snippet: fetching author %s: %w", authorID, err)
	}

	snippet := &model.Snippet{
		Title:       in.Title,
		Description: in.Description,
		HTML:        in.HTML,
		CSS:         in.CSS,
		JS:          in.JS,
		IsPublic:    in.IsPublic,
		AuthorID:    authorID,
	}

	if err := s.snippets.CreateSnippet(ctx, snippet); err != nil {
		return nil, fmt.Errorf("service/snippet: creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("snippetID", snippet.ID),
		slog.String("authorID", authorID),
		slog.Bool("public", snippet.IsPublic),
	)

	if snippet.IsPublic {
		s.notifyFollowers(ctx, author, snippet)
	}

	return snippet, nil
}

// notifyFollowers fans out one new-snippet notification per follower.
//
// Failures are logged and swallowed: the snippet is already saved, and a
// broken notification row must not turn a successful publish into an error.
func (s *SnippetService) notifyFollowers(ctx context.Context, author *model.User, snippet *model.Snippet) {
	followerIDs, err := s.social.ListFollowerIDs(ctx, author.ID)
	if err != nil {
		s.logger.Error("failed to list followers for notification fan-out",
			slog.String("authorID", author.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	for _, followerID := range followerIDs {
		n := &model.Notification{
			UserID:     followerID,
			Type:       model.NotificationNewSnippet,
			Title:      "New snippet from " + author.Username,
			Message:    fmt.Sprintf("%s published %q", author.Username, snippet.Title),
			SnippetID:  snippet.ID,
			FromUserID: author.ID,
		}
		if err := s.notifications.CreateNotification(ctx, n); err != nil {
			s.logger.Error("failed to create new-snippet notification",
				slog.String("followerID", followerID),
				slog.String("snippetID", snippet.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Get returns a snippet with its author and like state, recording a
// deduplicated view as a side effect.
//
// VISIBILITY: public snippets are visible to everyone; private snippets only
// to their author and admins. viewerID is "" for anonymous visitors;
// viewerIP identifies them for view dedup.
func (s *SnippetService) Get(ctx context.Context, id, viewerID, viewerIP string) (*SnippetDetail, error) {
	snippet, err := s.snippets.GetSnippetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/snippet: fetching snippet %s: %w", id, err)
	}

	if err := s.checkVisible(ctx, snippet, viewerID); err != nil {
		return nil, err
	}

	s.recordView(ctx, snippet, viewerID, viewerIP)

	author, err := s.users.GetUserByID(ctx, snippet.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("service/snippet: fetching author of %s: %w", id, err)
	}

	isLiked := false
	if viewerID != "" {
		isLiked, err = s.social.HasLiked(ctx, id, viewerID)
		if err != nil {
			return nil, fmt.Errorf("service/snippet: checking like state of %s: %w", id, err)
		}
	}

	return &SnippetDetail{Snippet: snippet, Author: author, IsLiked: isLiked}, nil
}

// checkVisible enforces the visibility rule for private snippets. The store
// lookup for the viewer's rank only happens on the rare private-snippet path.
func (s *SnippetService) checkVisible(ctx context.Context, snippet *model.Snippet, viewerID string) error {
	if snippet.IsPublic || viewerID == snippet.AuthorID {
		return nil
	}
	if viewerID != "" {
		viewer, err := s.users.GetUserByID(ctx, viewerID)
		if err == nil && viewer.IsAdmin() {
			return nil
		}
	}
	// Report private snippets as not found so their existence leaks nothing.
	return apperror.NotFound("snippet", snippet.ID)
}

// recordView counts at most one view per viewer identity per snippet.
// Logged-in users are keyed by user ID, anonymous visitors by IP, so the
// same person logging in does not double-count... beyond the one extra the
// identity switch allows. Failures are logged, never surfaced.
func (s *SnippetService) recordView(ctx context.Context, snippet *model.Snippet, viewerID, viewerIP string) {
	view := &model.SnippetView{
		SnippetID: snippet.ID,
		UserID:    viewerID,
	}
	if viewerID != "" {
		view.ViewerKey = "u:" + viewerID
	} else if viewerIP != "" {
		view.ViewerKey = "ip:" + viewerIP
	} else {
		return
	}

	counted, err := s.social.RecordView(ctx, view)
	if err != nil {
		s.logger.Error("failed to record view",
			slog.String("snippetID", snippet.ID),
			slog.String("viewerKey", view.ViewerKey),
			slog.String("error", err.Error()),
		)
		return
	}
	if counted {
		snippet.Views++ // keep the in-hand copy consistent with the store
	}
}

// List returns public snippets, newest first, optionally filtered by a
// case-insensitive title search.
func (s *SnippetService) List(ctx context.Context, search string, opts repository.ListOptions) ([]model.Snippet, error) {
	snippets, err := s.snippets.ListSnippets(ctx, repository.SnippetFilter{
		ListOptions: opts,
		Search:      strings.TrimSpace(search),
		PublicOnly:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("service/snippet: listing snippets: %w", err)
	}
	return snippets, nil
}

// Trending returns public snippets from the last seven days ordered by
// score, where score = likes + views.
func (s *SnippetService) Trending(ctx context.Context, opts repository.ListOptions) ([]model.Snippet, error) {
	since := time.Now().Add(-TrendingWindow)
	snippets, err := s.snippets.ListTrending(ctx, since, opts)
	if err != nil {
		return nil, fmt.Errorf("service/snippet: listing trending: %w", err)
	}
	return snippets, nil
}

// Update replaces a snippet's writable fields. Only the author may edit —
// not even admins, who can delete but not rewrite other people's work.
func (s *SnippetService) Update(ctx context.Context, id, editorID string, in SnippetInput) (*model.Snippet, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	snippet, err := s.snippets.GetSnippetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/snippet: fetching snippet %s: %w", id, err)
	}
	if snippet.AuthorID != editorID {
		return nil, apperror.Forbidden("only the author can edit this snippet")
	}

	snippet.Title = in.Title
	snippet.Description = in.Description
	snippet.HTML = in.HTML
	snippet.CSS = in.CSS
	snippet.JS = in.JS
	snippet.IsPublic = in.IsPublic

	if err := s.snippets.UpdateSnippet(ctx, snippet); err != nil {
		return nil, fmt.Errorf("service/snippet: updating snippet %s: %w", id, err)
	}

	s.logger.Info("snippet updated", slog.String("snippetID", id))
	return snippet, nil
}

// Delete removes a snippet. Allowed for the author and for admins.
func (s *SnippetService) Delete(ctx context.Context, id, actorID string) error {
	snippet, err := s.snippets.GetSnippetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("service/snippet: fetching snippet %s: %w", id, err)
	}

	if snippet.AuthorID != actorID {
		actor, err := s.users.GetUserByID(ctx, actorID)
		if err != nil {
			return fmt.Errorf("service/snippet: fetching actor %s: %w", actorID, err)
		}
		if !actor.IsAdmin() {
			return apperror.Forbidden("only the author or an admin can delete this snippet")
		}
	}

	if err := s.snippets.DeleteSnippet(ctx, id); err != nil {
		return fmt.Errorf("service/snippet: deleting snippet %s: %w", id, err)
	}

	s.logger.Info("snippet deleted",
		slog.String("snippetID", id),
		slog.String("actorID", actorID),
	)
	return nil
}

// Like records a like. Idempotent: liking twice is a no-op, not an error.
// A like that actually lands notifies the snippet's author (unless the
// liker IS the author). Returns the fresh like count.
func (s *SnippetService) Like(ctx context.Context, snippetID, userID string) (int, error) {
	snippet, err := s.snippets.GetSnippetByID(ctx, snippetID)
	if err != nil {
		return 0, fmt.Errorf("service/snippet: fetching snippet %s: %w", snippetID, err)
	}
	if err := s.checkVisible(ctx, snippet, userID); err != nil {
		return 0, err
	}

	added, err := s.social.AddLike(ctx, snippetID, userID)
	if err != nil {
		return 0, fmt.Errorf("service/snippet: liking snippet %s: %w", snippetID, err)
	}
	if !added {
		return snippet.Likes, nil
	}
	snippet.Likes++

	if snippet.AuthorID != userID {
		liker, err := s.users.GetUserByID(ctx, userID)
		if err != nil {
			s.logger.Error("failed to fetch liker for notification",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
			return snippet.Likes, nil
		}
		n := &model.Notification{
			UserID:     snippet.AuthorID,
			Type:       model.NotificationLike,
			Title:      liker.Username + " liked your snippet",
			Message:    fmt.Sprintf("%s liked %q", liker.Username, snippet.Title),
			SnippetID:  snippet.ID,
			FromUserID: userID,
		}
		if err := s.notifications.CreateNotification(ctx, n); err != nil {
			s.logger.Error("failed to create like notification",
				slog.String("snippetID", snippetID),
				slog.String("error", err.Error()),
			)
		}
	}

	return snippet.Likes, nil
}

// Unlike removes a like. Idempotent. Returns the fresh like count.
func (s *SnippetService) Unlike(ctx context.Context, snippetID, userID string) (int, error) {
	snippet, err := s.snippets.GetSnippetByID(ctx, snippetID)
	if err != nil {
		return 0, fmt.Errorf("service/snippet: fetching snippet %s: %w", snippetID, err)
	}

	removed, err := s.social.RemoveLike(ctx, snippetID, userID)
	if err != nil {
		return 0, fmt.Errorf("service/snippet: unliking snippet %s: %w", snippetID, err)
	}
	if removed && snippet.Likes > 0 {
		snippet.Likes--
	}
	return snippet.Likes, nil
}

// IsLiked reports whether the user has liked the snippet.
func (s *SnippetService) IsLiked(ctx context.Context, snippetID, userID string) (bool, error) {
	liked, err := s.social.HasLiked(ctx, snippetID, userID)
	if err != nil {
		return false, fmt.Errorf("service/snippet: checking like on %s: %w", snippetID, err)
	}
	return liked, nil
}
