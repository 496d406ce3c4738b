package server

// =========================================================================
// END-TO-END ROUTER TESTS
// =========================================================================
//
// These drive the fully assembled router through httptest: real middleware,
// real cookie-based sessions, the real in-memory store. What they prove is
// the WIRING — that each route is mounted, guarded, and reaches the right
// handler. Behavioural detail lives in the service and repository tests.

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nafis/snipnest/internal/model"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(Config{
		Port:      0,
		DBPath:    "", // in-memory store
		JWTSecret: "integration-test-secret-key",
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { srv.store.Close() })
	return srv
}

// do sends one request through the router. body is marshalled to JSON when
// non-nil; cookies carry the session between calls.
func do(t *testing.T, srv *Server, method, path string, body interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.9:40000"
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns the session cookies.
func register(t *testing.T, srv *Server, username string) []*http.Cookie {
	t.Helper()

	rec := do(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotEmpty(t, rec.Result().Cookies(), "expected a session cookie")
	return rec.Result().Cookies()
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t)

	// /me without a session is rejected by the middleware.
	rec := do(t, srv, http.MethodGet, "/api/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	cookies := register(t, srv, "alice")

	rec = do(t, srv, http.MethodGet, "/api/auth/me", nil, cookies)
	require.Equal(t, http.StatusOK, rec.Code)
	var me model.User
	decode(t, rec, &me)
	assert.Equal(t, "alice", me.Username)
	assert.NotContains(t, rec.Body.String(), "passwordHash", "hash must never serialize")

	// Login with the email works too.
	rec = do(t, srv, http.MethodPost, "/api/auth/login", map[string]string{
		"identifier": "alice@example.com",
		"password":   "password123",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Wrong password is a 401.
	rec = do(t, srv, http.MethodPost, "/api/auth/login", map[string]string{
		"identifier": "alice",
		"password":   "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Duplicate registration is a 400, not 409.
	rec = do(t, srv, http.MethodPost, "/api/auth/register", map[string]string{
		"username": "alice",
		"email":    "other@example.com",
		"password": "password123",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnippetLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	alice := register(t, srv, "alice")
	bob := register(t, srv, "bob")

	// Anonymous creation is rejected.
	rec := do(t, srv, http.MethodPost, "/api/snippets", map[string]interface{}{
		"title": "Nope",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, srv, http.MethodPost, "/api/snippets", map[string]interface{}{
		"title":    "Glowing button",
		"html":     "<button>hi</button>",
		"css":      "button { box-shadow: 0 0 8px aqua; }",
		"isPublic": true,
	}, alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var snippet model.Snippet
	decode(t, rec, &snippet)
	require.NotEmpty(t, snippet.ID)

	// Public list includes it, for anyone.
	rec = do(t, srv, http.MethodGet, "/api/snippets", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []model.Snippet
	decode(t, rec, &listed)
	require.Len(t, listed, 1)

	// Bob views it; the view is counted once no matter how often he looks.
	for i := 0; i < 3; i++ {
		rec = do(t, srv, http.MethodGet, "/api/snippets/"+snippet.ID, nil, bob)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	var detail struct {
		model.Snippet
		IsLiked bool        `json:"isLiked"`
		Author  *model.User `json:"author"`
	}
	decode(t, rec, &detail)
	assert.Equal(t, 1, detail.Views)
	require.NotNil(t, detail.Author)
	assert.Equal(t, "alice", detail.Author.Username)

	// Bob likes it; alice gets a notification.
	rec = do(t, srv, http.MethodPost, "/api/snippets/"+snippet.ID+"/like", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/notifications/unread-count", nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var count map[string]int
	decode(t, rec, &count)
	assert.Equal(t, 1, count["count"])

	// Bob cannot edit or delete alice's snippet.
	rec = do(t, srv, http.MethodPut, "/api/snippets/"+snippet.ID, map[string]interface{}{
		"title": "Hijacked",
	}, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = do(t, srv, http.MethodDelete, "/api/snippets/"+snippet.ID, nil, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Alice can delete it.
	rec = do(t, srv, http.MethodDelete, "/api/snippets/"+snippet.ID, nil, alice)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPrivateSnippetHiddenOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	alice := register(t, srv, "alice")
	bob := register(t, srv, "bob")

	rec := do(t, srv, http.MethodPost, "/api/snippets", map[string]interface{}{
		"title":    "Secret",
		"isPublic": false,
	}, alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	var snippet model.Snippet
	decode(t, rec, &snippet)

	// Owner sees it; stranger and anonymous get 404.
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/snippets/"+snippet.ID, nil, alice).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/snippets/"+snippet.ID, nil, bob).Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/snippets/"+snippet.ID, nil, nil).Code)
}

func TestFollowAndProfileOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "alice")
	bob := register(t, srv, "bob")

	// Look up alice's ID through her profile.
	rec := do(t, srv, http.MethodGet, "/api/users/alice", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile struct {
		model.User
		FollowerCount int  `json:"followerCount"`
		IsFollowing   bool `json:"isFollowing"`
	}
	decode(t, rec, &profile)

	rec = do(t, srv, http.MethodPost, "/api/users/"+profile.ID+"/follow", nil, bob)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/users/alice", nil, bob)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &profile)
	assert.Equal(t, 1, profile.FollowerCount)
	assert.True(t, profile.IsFollowing)
}

func TestAdminSurfaceOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	root := register(t, srv, "root")
	user := register(t, srv, "user")

	// Before promotion even "root" is an ordinary user.
	assert.Equal(t, http.StatusForbidden, do(t, srv, http.MethodGet, "/api/admin/stats", nil, root).Code)
	// Anonymous callers are 401, not 403.
	assert.Equal(t, http.StatusUnauthorized, do(t, srv, http.MethodGet, "/api/admin/stats", nil, nil).Code)

	// Bootstrap promotion, as startup would do with ADMIN_USERNAME=root.
	require.NoError(t, srv.promoteBootstrapAdmin("root"))

	rec := do(t, srv, http.MethodGet, "/api/admin/stats", nil, root)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats struct {
		Users int `json:"users"`
	}
	decode(t, rec, &stats)
	assert.Equal(t, 2, stats.Users)

	// Promote, then demote through the API.
	rec = do(t, srv, http.MethodGet, "/api/admin/users", nil, root)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []model.User
	decode(t, rec, &users)
	require.Len(t, users, 2)

	var userID string
	for _, u := range users {
		if u.Username == "user" {
			userID = u.ID
		}
	}
	require.NotEmpty(t, userID)

	rec = do(t, srv, http.MethodPut, "/api/admin/users/"+userID+"/rank", map[string]string{"rank": "admin"}, root)
	assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/admin/stats", nil, user).Code)

	rec = do(t, srv, http.MethodDelete, "/api/admin/users/"+userID, nil, root)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	// The deleted user's session no longer resolves to an account.
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/auth/me", nil, user).Code)
}
