package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nafis/snipnest/internal/auth"
	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/service"
)

// AdminHandler serves the moderation surface. The whole subtree is mounted
// behind RequireAuth + RequireAdmin, so these handlers trust the caller's
// rank and only deal with request/response mechanics.
type AdminHandler struct {
	admin  *service.AdminService
	logger *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(admin *service.AdminService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// HandleStats returns site-wide totals for the dashboard.
//
// HTTP: GET /api/admin/stats
func (h *AdminHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleListUsers returns all accounts.
//
// HTTP: GET /api/admin/users?limit=&offset=
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context(), parseListOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleDeleteUser removes an account and everything it owns.
//
// HTTP: DELETE /api/admin/users/{id}
func (h *AdminHandler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.UserIDFromContext(r.Context())

	if err := h.admin.DeleteUser(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetRank promotes or demotes an account.
//
// HTTP: PUT /api/admin/users/{id}/rank
// BODY: {"rank": "admin"} or {"rank": "default"}
func (h *AdminHandler) HandleSetRank(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		Rank model.Rank `json:"rank"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.admin.SetRank(r.Context(), actorID, chi.URLParam(r, "id"), req.Rank); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListSnippets returns ALL snippets, private included.
//
// HTTP: GET /api/admin/snippets?limit=&offset=
func (h *AdminHandler) HandleListSnippets(w http.ResponseWriter, r *http.Request) {
	snippets, err := h.admin.ListSnippets(r.Context(), parseListOptions(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snippets)
}

// HandleDeleteSnippet removes any snippet.
//
// HTTP: DELETE /api/admin/snippets/{id}
func (h *AdminHandler) HandleDeleteSnippet(w http.ResponseWriter, r *http.Request) {
	actorID, _ := auth.UserIDFromContext(r.Context())

	if err := h.admin.DeleteSnippet(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
