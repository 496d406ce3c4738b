package sqlite

import (
	"context"
	"testing"

	"github.com/nafis/snipnest/internal/model"
)

// =========================================================================
// LIKE TESTS
// =========================================================================

func TestAddLike_Idempotent(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")
	fan := createTestUser(t, db, "bob")
	snippet := createTestSnippet(t, db, author.ID, "likeable")

	changed, err := db.AddLike(context.Background(), snippet.ID, fan.ID)
	if err != nil {
		t.Fatalf("AddLike() error = %v", err)
	}
	if !changed {
		t.Error("first AddLike() = false, want true")
	}

	// Second like by the same user must be a no-op.
	changed, err = db.AddLike(context.Background(), snippet.ID, fan.ID)
	if err != nil {
		t.Fatalf("second AddLike() error = %v", err)
	}
	if changed {
		t.Error("second AddLike() = true, want false (no-op)")
	}

	got, err := db.GetSnippetByID(context.Background(), snippet.ID)
	if err != nil {
		t.Fatalf("GetSnippetByID() error = %v", err)
	}
	if got.Likes != 1 {
		t.Errorf("Likes = %d after double like, want 1", got.Likes)
	}
}

func TestRemoveLike(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")
	fan := createTestUser(t, db, "bob")
	snippet := createTestSnippet(t, db, author.ID, "likeable")

	if _, err := db.AddLike(context.Background(), snippet.ID, fan.ID); err != nil {
		t.Fatalf("AddLike() error = %v", err)
	}

	changed, err := db.RemoveLike(context.Background(), snippet.ID, fan.ID)
	if err != nil {
		t.Fatalf("RemoveLike() error = %v", err)
	}
	if !changed {
		t.Error("RemoveLike() = false, want true")
	}

	// Removing again is a no-op and must not drive the counter negative.
	changed, err = db.RemoveLike(context.Background(), snippet.ID, fan.ID)
	if err != nil {
		t.Fatalf("second RemoveLike() error = %v", err)
	}
	if changed {
		t.Error("second RemoveLike() = true, want false")
	}

	got, _ := db.GetSnippetByID(context.Background(), snippet.ID)
	if got.Likes != 0 {
		t.Errorf("Likes = %d after unlike, want 0", got.Likes)
	}

	liked, err := db.HasLiked(context.Background(), snippet.ID, fan.ID)
	if err != nil {
		t.Fatalf("HasLiked() error = %v", err)
	}
	if liked {
		t.Error("HasLiked() = true after unlike, want false")
	}
}

// =========================================================================
// VIEW TESTS
// =========================================================================

func TestRecordView_DedupByIP(t *testing.T) {
	db := newTestDB(t)
	author := createTestUser(t, db, "alice")
	snippet := createTestSnippet(t, db, author.ID, "viewed")

	view := &model.SnippetView{SnippetID: snippet.ID, ViewerKey: "ip:203.0.113.7"}
	counted, err := db.RecordView(context.Background(), view)
	if err != nil {
		t.Fatalf("RecordView() error = %v", err)
	}
	if !counted {
		t.Error("first RecordView() = false, want true")
	}

	// Same IP again — must not count.
	counted, err = db.RecordView(context.Background(), &model.SnippetView{
		SnippetID: snippet.ID, ViewerKey: "ip:203.0.113.7",
	})
	if err != nil {
		t.Fatalf("second RecordView() error = %v", err)
	}
	if counted {
		t.Error("second RecordView() from same IP = true, want false")
	}

	// A different identity still counts.
	counted, err = db.RecordView(context.Background(), &model.SnippetView{
		SnippetID: snippet.ID, ViewerKey: "u:" + author.ID, UserID: author.ID,
	})
	if err != nil {
		t.Fatalf("third RecordView() error = %v", err)
	}
	if !counted {
		t.Error("RecordView() from a new identity = false, want true")
	}

	got, _ := db.GetSnippetByID(context.Background(), snippet.ID)
	if got.Views != 2 {
		t.Errorf("Views = %d, want 2 (one per identity)", got.Views)
	}
}

// =========================================================================
// FOLLOW TESTS
// =========================================================================

func TestFollowLifecycle(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	changed, err := db.AddFollow(context.Background(), bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("AddFollow() error = %v", err)
	}
	if !changed {
		t.Error("first AddFollow() = false, want true")
	}

	// Duplicate follow is a no-op.
	changed, err = db.AddFollow(context.Background(), bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("second AddFollow() error = %v", err)
	}
	if changed {
		t.Error("second AddFollow() = true, want false")
	}

	following, err := db.IsFollowing(context.Background(), bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("IsFollowing() error = %v", err)
	}
	if !following {
		t.Error("IsFollowing() = false after follow, want true")
	}

	followers, err := db.ListFollowerIDs(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListFollowerIDs() error = %v", err)
	}
	if len(followers) != 1 || followers[0] != bob.ID {
		t.Errorf("ListFollowerIDs() = %v, want [%s]", followers, bob.ID)
	}

	if n, _ := db.CountFollowers(context.Background(), alice.ID); n != 1 {
		t.Errorf("CountFollowers(alice) = %d, want 1", n)
	}
	if n, _ := db.CountFollowing(context.Background(), bob.ID); n != 1 {
		t.Errorf("CountFollowing(bob) = %d, want 1", n)
	}

	changed, err = db.RemoveFollow(context.Background(), bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("RemoveFollow() error = %v", err)
	}
	if !changed {
		t.Error("RemoveFollow() = false, want true")
	}

	following, _ = db.IsFollowing(context.Background(), bob.ID, alice.ID)
	if following {
		t.Error("IsFollowing() = true after unfollow, want false")
	}
}
