package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nafis/snipnest/internal/apperror"
	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/repository"
)

// TESTING WITH IN-MEMORY SQLITE:
// Using ":memory:" creates a fresh database that exists only during the test.
// Fast (no disk I/O), isolated (each test gets its own database), and clean
// (destroyed when the connection closes).
//
// newTestDB is a "test helper". The `t.Helper()` call tells Go's test
// framework to report failures at the CALLER's line number, which makes the
// output much clearer.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	// t.Cleanup is like defer, but scoped to the test — works in subtests too.
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts a user and fails the test on error.
func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:    username,
		Email:       username + "@example.com",
		DisplayName: username,
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %q: %v", username, err)
	}
	return user
}

// createTestSnippet inserts a public snippet owned by authorID.
func createTestSnippet(t *testing.T, db *DB, authorID, title string) *model.Snippet {
	t.Helper()
	snippet := &model.Snippet{
		Title:    title,
		HTML:     "<h1>hi</h1>",
		CSS:      "h1 { color: red }",
		JS:       "console.log('hi')",
		IsPublic: true,
		AuthorID: authorID,
	}
	if err := db.CreateSnippet(context.Background(), snippet); err != nil {
		t.Fatalf("failed to create test snippet %q: %v", title, err)
	}
	return snippet
}

// =========================================================================
// CREATE / GET TESTS
// =========================================================================

func TestCreateSnippet(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")

	snippet := &model.Snippet{
		Title:    "Bouncing Ball",
		HTML:     "<canvas></canvas>",
		IsPublic: true,
		AuthorID: author.ID,
	}

	if err := db.CreateSnippet(context.Background(), snippet); err != nil {
		t.Fatalf("CreateSnippet() error = %v", err)
	}

	// Verify the snippet was modified in-place (pointer receiver!)
	if snippet.ID == "" {
		t.Error("CreateSnippet() did not set snippet.ID")
	}
	if snippet.CreatedAt.IsZero() {
		t.Error("CreateSnippet() did not set snippet.CreatedAt")
	}

	got, err := db.GetSnippetByID(context.Background(), snippet.ID)
	if err != nil {
		t.Fatalf("GetSnippetByID() error = %v", err)
	}
	if got.Title != "Bouncing Ball" {
		t.Errorf("Title = %q, want %q", got.Title, "Bouncing Ball")
	}
	if got.AuthorID != author.ID {
		t.Errorf("AuthorID = %q, want %q", got.AuthorID, author.ID)
	}
	if got.Views != 0 || got.Likes != 0 {
		t.Errorf("new snippet counters = (%d, %d), want (0, 0)", got.Views, got.Likes)
	}
}

func TestGetSnippetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetSnippetByID(context.Background(), "does-not-exist")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetSnippetByID() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestListSnippets_PublicOnly(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")

	createTestSnippet(t, db, author.ID, "public one")
	private := &model.Snippet{Title: "secret", IsPublic: false, AuthorID: author.ID}
	if err := db.CreateSnippet(context.Background(), private); err != nil {
		t.Fatalf("CreateSnippet() error = %v", err)
	}

	got, err := db.ListSnippets(context.Background(), repository.SnippetFilter{PublicOnly: true})
	if err != nil {
		t.Fatalf("ListSnippets() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListSnippets(PublicOnly) returned %d snippets, want 1", len(got))
	}
	if got[0].Title != "public one" {
		t.Errorf("got %q, want the public snippet", got[0].Title)
	}
}

func TestListSnippets_Search(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")

	createTestSnippet(t, db, author.ID, "CSS Grid playground")
	createTestSnippet(t, db, author.ID, "Canvas starfield")

	got, err := db.ListSnippets(context.Background(), repository.SnippetFilter{Search: "grid"})
	if err != nil {
		t.Fatalf("ListSnippets() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "CSS Grid playground" {
		t.Errorf("search %q matched %d snippets, want the grid one", "grid", len(got))
	}
}

func TestListSnippets_AuthorFilter(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	createTestSnippet(t, db, alice.ID, "alice's snippet")
	createTestSnippet(t, db, bob.ID, "bob's snippet")

	got, err := db.ListSnippets(context.Background(), repository.SnippetFilter{AuthorID: bob.ID})
	if err != nil {
		t.Fatalf("ListSnippets() error = %v", err)
	}
	if len(got) != 1 || got[0].AuthorID != bob.ID {
		t.Errorf("author filter returned %d snippets, want only bob's", len(got))
	}
}

// =========================================================================
// TRENDING TESTS
// =========================================================================

func TestListTrending(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")
	fans := []*model.User{
		createTestUser(t, db, "fan1"),
		createTestUser(t, db, "fan2"),
	}

	cold := createTestSnippet(t, db, author.ID, "cold")
	hot := createTestSnippet(t, db, author.ID, "hot")

	// hot gets two likes, cold gets one view → hot must rank first
	for _, fan := range fans {
		if _, err := db.AddLike(context.Background(), hot.ID, fan.ID); err != nil {
			t.Fatalf("AddLike() error = %v", err)
		}
	}
	if _, err := db.RecordView(context.Background(), &model.SnippetView{
		SnippetID: cold.ID, ViewerKey: "ip:10.0.0.1",
	}); err != nil {
		t.Fatalf("RecordView() error = %v", err)
	}

	since := time.Now().Add(-7 * 24 * time.Hour)
	got, err := db.ListTrending(context.Background(), since, repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListTrending() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListTrending() returned %d snippets, want 2", len(got))
	}
	if got[0].ID != hot.ID {
		t.Errorf("trending[0] = %q, want the snippet with the higher likes+views", got[0].Title)
	}
}

func TestListTrending_ExcludesOldSnippets(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")
	old := createTestSnippet(t, db, author.ID, "ancient")

	// Backdate the snippet past the window. Direct SQL is fine in a
	// repository test — we're testing the query, not the model.
	if _, err := db.conn.Exec(
		`UPDATE snippets SET created_at = ? WHERE id = ?`,
		time.Now().Add(-8*24*time.Hour), old.ID,
	); err != nil {
		t.Fatalf("backdating snippet: %v", err)
	}

	since := time.Now().Add(-7 * 24 * time.Hour)
	got, err := db.ListTrending(context.Background(), since, repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListTrending() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListTrending() returned %d snippets, want 0 (outside 7-day window)", len(got))
	}
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestUpdateSnippet(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")
	snippet := createTestSnippet(t, db, author.ID, "before")

	snippet.Title = "after"
	snippet.IsPublic = false
	if err := db.UpdateSnippet(context.Background(), snippet); err != nil {
		t.Fatalf("UpdateSnippet() error = %v", err)
	}

	got, err := db.GetSnippetByID(context.Background(), snippet.ID)
	if err != nil {
		t.Fatalf("GetSnippetByID() error = %v", err)
	}
	if got.Title != "after" || got.IsPublic {
		t.Errorf("update not persisted: title=%q isPublic=%v", got.Title, got.IsPublic)
	}
}

func TestUpdateSnippet_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateSnippet(context.Background(), &model.Snippet{ID: "ghost", Title: "x"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateSnippet() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteSnippet(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")
	snippet := createTestSnippet(t, db, author.ID, "doomed")

	if err := db.DeleteSnippet(context.Background(), snippet.ID); err != nil {
		t.Fatalf("DeleteSnippet() error = %v", err)
	}

	_, err := db.GetSnippetByID(context.Background(), snippet.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("deleted snippet still retrievable, err = %v", err)
	}

	if err := db.DeleteSnippet(context.Background(), snippet.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}
