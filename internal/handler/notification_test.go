package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nafis/snipnest/internal/auth"
	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/repository/memory"
	"github.com/nafis/snipnest/internal/service"
)

// Handlers read the caller's identity from the request context, never from
// the request body — this pins that down using the context helper directly,
// without minting a session token.
func TestHandleUnreadCount_UsesContextIdentity(t *testing.T) {
	store := memory.New()
	t.Cleanup(func() { store.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	alice := &model.User{Username: "alice", Email: "alice@example.com", DisplayName: "alice"}
	if err := store.CreateUser(ctx, alice); err != nil {
		t.Fatalf("creating user: %v", err)
	}
	if err := store.CreateNotification(ctx, &model.Notification{
		UserID:  alice.ID,
		Type:    model.NotificationFollow,
		Title:   "bob followed you",
		Message: "bob is now following you",
	}); err != nil {
		t.Fatalf("creating notification: %v", err)
	}

	h := NewNotificationHandler(service.NewNotificationService(store, logger), logger)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/unread-count", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), alice.ID))
	rec := httptest.NewRecorder()
	h.HandleUnreadCount(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if body["count"] != 1 {
		t.Errorf("count = %d, want 1", body["count"])
	}
}
