package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/nafis/snipnest/internal/apperror"
	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/repository"
)

// compile-time check that *Store implements the full storage contract
var _ repository.Store = (*Store)(nil)

// CreateUser inserts a new account, enforcing the same case-insensitive
// username/email uniqueness as the sqlite unique indexes.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if equalFold(existing.Username, user.Username) || equalFold(existing.Email, user.Email) {
			return apperror.Conflict("user", "username or email already taken")
		}
		if user.GitHubID != 0 && existing.GitHubID == user.GitHubID {
			return apperror.Conflict("user", "github account already linked")
		}
	}

	user.ID = xid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Rank == "" {
		user.Rank = model.RankDefault
	}

	// Store a copy so later mutations of the caller's struct don't leak in.
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *user
	return &result, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if equalFold(user.Username, username) {
			result := *user
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if equalFold(user.Email, email) {
			result := *user
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (s *Store) GetUserByGitHubID(_ context.Context, githubID int64) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if githubID != 0 {
		for _, user := range s.users {
			if user.GitHubID == githubID {
				result := *user
				return &result, nil
			}
		}
	}
	return nil, apperror.NotFound("user", fmt.Sprintf("github:%d", githubID))
}

// UpdateUser saves profile fields; username and rank are immutable here,
// matching the sqlite UPDATE column list.
func (s *Store) UpdateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return apperror.NotFound("user", user.ID)
	}

	for id, other := range s.users {
		if id != user.ID && equalFold(other.Email, user.Email) {
			return apperror.Conflict("user", "email already taken")
		}
	}

	user.UpdatedAt = time.Now()
	user.Username = existing.Username
	user.Rank = existing.Rank
	user.CreatedAt = existing.CreatedAt

	stored := *user
	s.users[user.ID] = &stored
	return nil
}

func (s *Store) SetRank(_ context.Context, id string, rank model.Rank) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return apperror.NotFound("user", id)
	}
	user.Rank = rank
	user.UpdatedAt = time.Now()
	return nil
}

// DeleteUser removes the account and everything hanging off it — the manual
// version of the sqlite FK cascades, including the counter fixups on other
// people's snippets.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(s.users, id)

	// Likes BY the user on surviving snippets: drop the row, fix the counter.
	for snippetID, likers := range s.likes {
		if _, liked := likers[id]; liked {
			delete(likers, id)
			if snippet, ok := s.snippets[snippetID]; ok && snippet.Likes > 0 {
				snippet.Likes--
			}
		}
	}

	// Views by the user, same treatment.
	for snippetID, viewers := range s.views {
		for key, viewerID := range viewers {
			if viewerID == id {
				delete(viewers, key)
				if snippet, ok := s.snippets[snippetID]; ok && snippet.Views > 0 {
					snippet.Views--
				}
			}
		}
	}

	// Follows in both directions.
	delete(s.follows, id)
	for _, following := range s.follows {
		delete(following, id)
	}

	// The user's own snippets, plus the like/view rows under them.
	for snippetID, snippet := range s.snippets {
		if snippet.AuthorID == id {
			delete(s.snippets, snippetID)
			delete(s.likes, snippetID)
			delete(s.views, snippetID)
			s.dropNotificationsForSnippet(snippetID)
		}
	}

	// Notifications to or from the user.
	for nID, n := range s.notifications {
		if n.UserID == id || n.FromUserID == id {
			delete(s.notifications, nID)
		}
	}

	return nil
}

func (s *Store) ListUsers(_ context.Context, opts repository.ListOptions) ([]model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]model.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, *user)
	}
	sortNewestFirst(users,
		func(u model.User) time.Time { return u.CreatedAt },
		func(u model.User) string { return u.ID })

	return page(users, opts.Limit, opts.Offset), nil
}

func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}
