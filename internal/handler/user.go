package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nafis/snipnest/internal/auth"
	"github.com/nafis/snipnest/internal/service"
)

// UserHandler serves public profiles, profile editing, and follows.
//
// ROUTING NOTE: profiles are addressed by USERNAME (they appear in shareable
// URLs), while follow operations use the internal ID (they come from buttons
// that already hold the ID). The service accepts both accordingly.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleProfile returns a user's public profile with counts.
//
// HTTP: GET /api/users/{username} (optional auth — fills isFollowing)
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	profile, err := h.users.Profile(r.Context(), chi.URLParam(r, "username"), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// HandleUserSnippets lists a user's snippets. Owners see private ones too.
//
// HTTP: GET /api/users/{username}/snippets?limit=&offset= (optional auth)
func (h *UserHandler) HandleUserSnippets(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	snippets, err := h.users.Snippets(r.Context(), chi.URLParam(r, "username"), viewerID, parseListOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleUpdateProfile edits the logged-in user's own profile.
//
// HTTP: PUT /api/users/me (requires auth)
// BODY: {"email": "...", "displayName": "...", "bio": "...", "location":
//	"...", "website": "...", "avatarUrl": "..."}
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var input service.ProfileInput
	if !decodeJSON(w, r, &input) {
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleFollow makes the logged-in user follow {id}. Idempotent.
//
// HTTP: POST /api/users/{id}/follow (requires auth)
func (h *UserHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.users.Follow(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUnfollow removes a follow. Idempotent.
//
// HTTP: DELETE /api/users/{id}/follow (requires auth)
func (h *UserHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.users.Unfollow(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
