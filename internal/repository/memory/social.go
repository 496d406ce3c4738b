package memory

import (
	"context"
	"time"

	"github.com/nafis/snipnest/internal/model"
)

// AddLike records a like and bumps the counter. The nested-map membership
// check and the counter update happen under one lock, so unlike the sqlite
// backend there isn't even a theoretical read-check-then-write window here.
func (s *Store) AddLike(_ context.Context, snippetID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	likers, ok := s.likes[snippetID]
	if !ok {
		likers = make(map[string]time.Time)
		s.likes[snippetID] = likers
	}
	if _, liked := likers[userID]; liked {
		return false, nil
	}

	likers[userID] = time.Now()
	if snippet, ok := s.snippets[snippetID]; ok {
		snippet.Likes++
	}
	return true, nil
}

func (s *Store) RemoveLike(_ context.Context, snippetID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	likers := s.likes[snippetID]
	if _, liked := likers[userID]; !liked {
		return false, nil
	}

	delete(likers, userID)
	if snippet, ok := s.snippets[snippetID]; ok && snippet.Likes > 0 {
		snippet.Likes--
	}
	return true, nil
}

func (s *Store) HasLiked(_ context.Context, snippetID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, liked := s.likes[snippetID][userID]
	return liked, nil
}

// RecordView counts a view deduplicated by viewer key, same contract as the
// sqlite INSERT OR IGNORE.
func (s *Store) RecordView(_ context.Context, view *model.SnippetView) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	viewers, ok := s.views[view.SnippetID]
	if !ok {
		viewers = make(map[string]string)
		s.views[view.SnippetID] = viewers
	}
	if _, seen := viewers[view.ViewerKey]; seen {
		return false, nil
	}

	view.CreatedAt = time.Now()
	viewers[view.ViewerKey] = view.UserID
	if snippet, ok := s.snippets[view.SnippetID]; ok {
		snippet.Views++
	}
	return true, nil
}

func (s *Store) CountAllLikes(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, likers := range s.likes {
		n += len(likers)
	}
	return n, nil
}

func (s *Store) CountAllViews(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, viewers := range s.views {
		n += len(viewers)
	}
	return n, nil
}

func (s *Store) AddFollow(_ context.Context, followerID, followingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	following, ok := s.follows[followerID]
	if !ok {
		following = make(map[string]time.Time)
		s.follows[followerID] = following
	}
	if _, exists := following[followingID]; exists {
		return false, nil
	}

	following[followingID] = time.Now()
	return true, nil
}

func (s *Store) RemoveFollow(_ context.Context, followerID, followingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	following := s.follows[followerID]
	if _, exists := following[followingID]; !exists {
		return false, nil
	}
	delete(following, followingID)
	return true, nil
}

func (s *Store) IsFollowing(_ context.Context, followerID, followingID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.follows[followerID][followingID]
	return exists, nil
}

// ListFollowerIDs returns follower IDs ordered by when they followed,
// matching the sqlite ORDER BY created_at.
func (s *Store) ListFollowerIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		id string
		at time.Time
	}
	var entries []entry
	for followerID, following := range s.follows {
		if at, ok := following[userID]; ok {
			entries = append(entries, entry{followerID, at})
		}
	}
	sortNewestFirst(entries,
		func(e entry) time.Time { return e.at },
		func(e entry) string { return e.id })

	// sortNewestFirst gives newest-first; the sqlite query is oldest-first.
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[len(entries)-1-i] = e.id
	}
	return ids, nil
}

func (s *Store) CountFollowers(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, following := range s.follows {
		if _, ok := following[userID]; ok {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountFollowing(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.follows[userID]), nil
}
