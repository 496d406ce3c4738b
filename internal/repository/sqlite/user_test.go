package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/nafis/snipnest/internal/apperror"
	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/repository"
)

func TestCreateUser_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice")

	dup := &model.User{Username: "ALICE", Email: "other@example.com"}
	err := db.CreateUser(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser(duplicate username) error = %v, want ErrConflict", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice") // alice@example.com

	dup := &model.User{Username: "other", Email: "Alice@Example.com"}
	err := db.CreateUser(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser(duplicate email) error = %v, want ErrConflict", err)
	}
}

func TestGetUserLookups(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")

	byID, err := db.GetUserByID(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if byID.Username != "alice" {
		t.Errorf("GetUserByID().Username = %q, want alice", byID.Username)
	}

	// Username lookup is case-insensitive (COLLATE NOCASE).
	byName, err := db.GetUserByUsername(context.Background(), "Alice")
	if err != nil {
		t.Fatalf("GetUserByUsername() error = %v", err)
	}
	if byName.ID != alice.ID {
		t.Errorf("GetUserByUsername() returned wrong user")
	}

	byEmail, err := db.GetUserByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if byEmail.ID != alice.ID {
		t.Errorf("GetUserByEmail() returned wrong user")
	}

	if _, err := db.GetUserByID(context.Background(), "ghost"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByGitHubID(t *testing.T) {
	db := newTestDB(t)
	user := &model.User{Username: "gh", Email: "gh@example.com", GitHubID: 4242}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	got, err := db.GetUserByGitHubID(context.Background(), 4242)
	if err != nil {
		t.Fatalf("GetUserByGitHubID() error = %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("GetUserByGitHubID() returned wrong user")
	}

	// githubID 0 means "no link" and must never match, even though every
	// password-only account stores 0.
	createTestUser(t, db, "nolink")
	if _, err := db.GetUserByGitHubID(context.Background(), 0); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByGitHubID(0) error = %v, want ErrNotFound", err)
	}
}

func TestSetRank(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")

	if err := db.SetRank(context.Background(), alice.ID, model.RankAdmin); err != nil {
		t.Fatalf("SetRank() error = %v", err)
	}

	got, _ := db.GetUserByID(context.Background(), alice.ID)
	if !got.IsAdmin() {
		t.Errorf("Rank = %q after SetRank, want admin", got.Rank)
	}

	if err := db.SetRank(context.Background(), "ghost", model.RankAdmin); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("SetRank(ghost) error = %v, want ErrNotFound", err)
	}
}

// TestDeleteUser_Cascades is the big one: deleting a user must take their
// snippets, likes, views, follows, and notifications with them — and leave
// the counters on OTHER people's snippets correct.
func TestDeleteUser_Cascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	aliceSnippet := createTestSnippet(t, db, alice.ID, "alice's work")
	bobSnippet := createTestSnippet(t, db, bob.ID, "bob's work")

	// Alice likes and views bob's snippet, follows bob, and bob follows her.
	if _, err := db.AddLike(ctx, bobSnippet.ID, alice.ID); err != nil {
		t.Fatalf("AddLike() error = %v", err)
	}
	if _, err := db.RecordView(ctx, &model.SnippetView{
		SnippetID: bobSnippet.ID, ViewerKey: "u:" + alice.ID, UserID: alice.ID,
	}); err != nil {
		t.Fatalf("RecordView() error = %v", err)
	}
	if _, err := db.AddFollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("AddFollow() error = %v", err)
	}
	if _, err := db.AddFollow(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("AddFollow() error = %v", err)
	}
	if err := db.CreateNotification(ctx, &model.Notification{
		UserID: alice.ID, Type: model.NotificationFollow, Message: "bob followed you",
	}); err != nil {
		t.Fatalf("CreateNotification() error = %v", err)
	}

	if err := db.DeleteUser(ctx, alice.ID); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}

	// Her account and snippet are gone.
	if _, err := db.GetUserByID(ctx, alice.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("deleted user still retrievable, err = %v", err)
	}
	if _, err := db.GetSnippetByID(ctx, aliceSnippet.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("deleted user's snippet still retrievable, err = %v", err)
	}

	// Bob's snippet survives with corrected counters.
	got, err := db.GetSnippetByID(ctx, bobSnippet.ID)
	if err != nil {
		t.Fatalf("GetSnippetByID(bob) error = %v", err)
	}
	if got.Likes != 0 {
		t.Errorf("bob's snippet Likes = %d after alice deleted, want 0", got.Likes)
	}
	if got.Views != 0 {
		t.Errorf("bob's snippet Views = %d after alice deleted, want 0", got.Views)
	}

	// Follow rows in both directions are gone.
	if n, _ := db.CountFollowers(ctx, bob.ID); n != 0 {
		t.Errorf("CountFollowers(bob) = %d after alice deleted, want 0", n)
	}
	if n, _ := db.CountFollowing(ctx, bob.ID); n != 0 {
		t.Errorf("CountFollowing(bob) = %d after alice deleted, want 0", n)
	}
}

func TestListUsers_Pagination(t *testing.T) {
	db := newTestDB(t)
	for _, name := range []string{"u1", "u2", "u3"} {
		createTestUser(t, db, name)
	}

	page, err := db.ListUsers(context.Background(), repository.ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(page) != 2 {
		t.Errorf("ListUsers(limit=2) returned %d users, want 2", len(page))
	}

	if n, _ := db.CountUsers(context.Background()); n != 3 {
		t.Errorf("CountUsers() = %d, want 3", n)
	}
}
