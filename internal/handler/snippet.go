package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nafis/snipnest/internal/auth"
	"github.com/nafis/snipnest/internal/service"
)

// SnippetHandler serves the snippet CRUD endpoints plus likes and trending.
//
// Each handler does the same three things: pull inputs out of the request
// (body, URL params, context), call ONE service method, and write the
// result. Anything smarter than that belongs in the service.
type SnippetHandler struct {
	snippets *service.SnippetService
	logger   *slog.Logger
}

// NewSnippetHandler creates a SnippetHandler.
func NewSnippetHandler(snippets *service.SnippetService, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{snippets: snippets, logger: logger}
}

// HandleList returns public snippets, newest first.
//
// HTTP: GET /api/snippets?search=&limit=&offset=
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.snippets.List(r.Context(), r.URL.Query().Get("search"), parseListOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleTrending returns the trending feed: public snippets from the last
// seven days ordered by likes + views.
//
// HTTP: GET /api/snippets/trending?limit=&offset=
func (h *SnippetHandler) HandleTrending(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.snippets.Trending(r.Context(), parseListOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleGet returns one snippet with author and like state, counting a view.
//
// HTTP: GET /api/snippets/{id} (optional auth — affects visibility, isLiked,
// and which identity the view is counted against)
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	detail, err := h.snippets.Get(r.Context(), chi.URLParam(r, "id"), viewerID, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// HandleCreate stores a new snippet owned by the logged-in user.
//
// HTTP: POST /api/snippets (requires auth)
// BODY: {"title": "...", "description": "...", "html": "...", "css": "...",
//	"js": "...", "isPublic": true}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var input service.SnippetInput
	if !decodeJSON(w, r, &input) {
		return
	}

	snippet, err := h.snippets.Create(r.Context(), userID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snippet)
}

// HandleUpdate replaces a snippet's content. Author only.
//
// HTTP: PUT /api/snippets/{id} (requires auth)
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var input service.SnippetInput
	if !decodeJSON(w, r, &input) {
		return
	}

	snippet, err := h.snippets.Update(r.Context(), chi.URLParam(r, "id"), userID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippet)
}

// HandleDelete removes a snippet. Author or admin.
//
// HTTP: DELETE /api/snippets/{id} (requires auth)
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.snippets.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// likeResponse is what the like/unlike endpoints return so the client can
// update its button state without a refetch.
type likeResponse struct {
	Likes   int  `json:"likes"`
	IsLiked bool `json:"isLiked"`
}

// HandleLike records a like. Safe to call twice.
//
// HTTP: POST /api/snippets/{id}/like (requires auth)
func (h *SnippetHandler) HandleLike(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	likes, err := h.snippets.Like(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, likeResponse{Likes: likes, IsLiked: true})
}

// HandleUnlike removes a like. Safe to call twice.
//
// HTTP: DELETE /api/snippets/{id}/like (requires auth)
func (h *SnippetHandler) HandleUnlike(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	likes, err := h.snippets.Unlike(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, likeResponse{Likes: likes, IsLiked: false})
}
