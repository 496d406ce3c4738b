package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/nafis/snipnest/internal/apperror"
	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/repository"
)

func (s *Store) CreateSnippet(_ context.Context, snippet *model.Snippet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snippet.ID = xid.New().String()
	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now
	snippet.Views = 0
	snippet.Likes = 0

	stored := *snippet
	s.snippets[snippet.ID] = &stored
	return nil
}

func (s *Store) GetSnippetByID(_ context.Context, id string) (*model.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snippet, ok := s.snippets[id]
	if !ok {
		return nil, apperror.NotFound("snippet", id)
	}
	result := *snippet
	return &result, nil
}

// ListSnippets filters and sorts in one pass — the map-scan equivalent of
// the sqlite WHERE clause, with identical ordering.
func (s *Store) ListSnippets(_ context.Context, filter repository.SnippetFilter) ([]model.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	snippets := make([]model.Snippet, 0, len(s.snippets))
	for _, snippet := range s.snippets {
		if filter.PublicOnly && !snippet.IsPublic {
			continue
		}
		if filter.AuthorID != "" && snippet.AuthorID != filter.AuthorID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(snippet.Title), search) &&
			!strings.Contains(strings.ToLower(snippet.Description), search) {
			continue
		}
		snippets = append(snippets, *snippet)
	}

	sortNewestFirst(snippets,
		func(sn model.Snippet) time.Time { return sn.CreatedAt },
		func(sn model.Snippet) string { return sn.ID })

	return page(snippets, filter.Limit, filter.Offset), nil
}

// ListTrending mirrors the sqlite query: public snippets created at or after
// `since`, ordered by likes+views descending, newest first on ties.
func (s *Store) ListTrending(_ context.Context, since time.Time, opts repository.ListOptions) ([]model.Snippet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snippets := make([]model.Snippet, 0, len(s.snippets))
	for _, snippet := range s.snippets {
		if !snippet.IsPublic || snippet.CreatedAt.Before(since) {
			continue
		}
		snippets = append(snippets, *snippet)
	}

	sortNewestFirst(snippets,
		func(sn model.Snippet) time.Time { return sn.CreatedAt },
		func(sn model.Snippet) string { return sn.ID })
	// Stable sort on the score preserves the newest-first order within ties.
	stableByScore(snippets)

	return page(snippets, opts.Limit, opts.Offset), nil
}

func (s *Store) UpdateSnippet(_ context.Context, snippet *model.Snippet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.snippets[snippet.ID]
	if !ok {
		return apperror.NotFound("snippet", snippet.ID)
	}

	// Counters, author, and created_at are immutable through this method.
	snippet.UpdatedAt = time.Now()
	snippet.AuthorID = existing.AuthorID
	snippet.Views = existing.Views
	snippet.Likes = existing.Likes
	snippet.CreatedAt = existing.CreatedAt

	stored := *snippet
	s.snippets[snippet.ID] = &stored
	return nil
}

func (s *Store) DeleteSnippet(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snippets[id]; !ok {
		return apperror.NotFound("snippet", id)
	}
	delete(s.snippets, id)
	delete(s.likes, id)
	delete(s.views, id)
	s.dropNotificationsForSnippet(id)
	return nil
}

func (s *Store) CountSnippets(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snippets), nil
}

func (s *Store) CountSnippetsByAuthor(_ context.Context, authorID string, publicOnly bool) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, snippet := range s.snippets {
		if snippet.AuthorID != authorID {
			continue
		}
		if publicOnly && !snippet.IsPublic {
			continue
		}
		n++
	}
	return n, nil
}

func stableByScore(snippets []model.Snippet) {
	sort.SliceStable(snippets, func(i, j int) bool {
		return snippets[i].TrendingScore() > snippets[j].TrendingScore()
	})
}

// dropNotificationsForSnippet removes notifications referencing a deleted
// snippet — the manual version of the FK cascade. Callers hold the lock.
func (s *Store) dropNotificationsForSnippet(snippetID string) {
	for id, n := range s.notifications {
		if n.SnippetID == snippetID {
			delete(s.notifications, id)
		}
	}
}
