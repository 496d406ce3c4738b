package service

// =========================================================================
// SHARED TEST FIXTURES
// =========================================================================
//
// Services are tested against the real in-memory store rather than
// hand-written fakes: the store already implements every repository
// interface with the same contracts as sqlite, so these tests double as a
// second pass over the memory backend's behaviour.

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/nafis/snipnest/internal/auth"
	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/repository/memory"
)

// testLogger discards output so test runs stay quiet. Pass -v and swap in
// os.Stderr here when debugging a service test.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	store         *memory.Store
	auth          *AuthService
	snippets      *SnippetService
	users         *UserService
	notifications *NotificationService
	admin         *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.New()
	t.Cleanup(func() { store.Close() })

	logger := testLogger()
	tokens, err := auth.NewTokenService("test-secret-key-for-service-tests")
	if err != nil {
		t.Fatalf("creating token service: %v", err)
	}
	passwords := auth.NewPasswordServiceForTest(4) // min bcrypt cost, tests only

	return &testEnv{
		store:         store,
		auth:          NewAuthService(store, tokens, passwords, logger),
		snippets:      NewSnippetService(store, store, store, store, logger),
		users:         NewUserService(store, store, store, store, logger),
		notifications: NewNotificationService(store, logger),
		admin:         NewAdminService(store, store, store, logger),
	}
}

// register creates an account through the real service so the password hash
// and defaults are exactly what production would produce.
func (e *testEnv) register(t *testing.T, username string) *model.User {
	t.Helper()
	res, err := e.auth.Register(context.Background(), username, username+"@example.com", "password123")
	if err != nil {
		t.Fatalf("registering %s: %v", username, err)
	}
	return res.User
}

func (e *testEnv) makeAdmin(t *testing.T, userID string) {
	t.Helper()
	if err := e.store.SetRank(context.Background(), userID, model.RankAdmin); err != nil {
		t.Fatalf("promoting %s: %v", userID, err)
	}
}

func (e *testEnv) createSnippet(t *testing.T, authorID, title string, public bool) *model.Snippet {
	t.Helper()
	snippet, err := e.snippets.Create(context.Background(), authorID, SnippetInput{
		Title:    title,
		HTML:     "<h1>hi</h1>",
		IsPublic: public,
	})
	if err != nil {
		t.Fatalf("creating snippet %q: %v", title, err)
	}
	return snippet
}
