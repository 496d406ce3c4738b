package service

import (
	"context"
	"errors"
	"testing"

	"github.com/nafis/snipnest/internal/apperror"
	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/repository"
)

func TestAdminStats(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	ctx := context.Background()

	snippet := env.createSnippet(t, alice.ID, "Counted", true)
	if _, err := env.snippets.Like(ctx, snippet.ID, bob.ID); err != nil {
		t.Fatalf("Like failed: %v", err)
	}
	if _, err := env.snippets.Get(ctx, snippet.ID, bob.ID, ""); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	stats, err := env.admin.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Users != 2 || stats.Snippets != 1 || stats.Likes != 1 || stats.Views != 1 {
		t.Errorf("stats = %+v, want users=2 snippets=1 likes=1 views=1", stats)
	}
}

func TestAdminDeleteUser_NotSelf(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin")
	env.makeAdmin(t, admin.ID)
	victim := env.register(t, "victim")
	ctx := context.Background()

	if err := env.admin.DeleteUser(ctx, admin.ID, admin.ID); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("self-delete: expected ErrValidation, got %v", err)
	}

	if err := env.admin.DeleteUser(ctx, admin.ID, victim.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	if _, err := env.auth.GetUserByID(ctx, victim.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("deleted user still resolvable: %v", err)
	}
}

func TestAdminSetRank(t *testing.T) {
	env := newTestEnv(t)
	admin := env.register(t, "admin")
	env.makeAdmin(t, admin.ID)
	user := env.register(t, "user")
	ctx := context.Background()

	if err := env.admin.SetRank(ctx, admin.ID, user.ID, model.Rank("superuser")); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("bogus rank: expected ErrValidation, got %v", err)
	}
	if err := env.admin.SetRank(ctx, admin.ID, admin.ID, model.RankDefault); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("self-demotion: expected ErrValidation, got %v", err)
	}

	if err := env.admin.SetRank(ctx, admin.ID, user.ID, model.RankAdmin); err != nil {
		t.Fatalf("SetRank failed: %v", err)
	}
	if ok, _ := env.auth.IsAdmin(ctx, user.ID); !ok {
		t.Error("promoted user not reported as admin")
	}
}

func TestAdminListSnippets_IncludesPrivate(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	ctx := context.Background()

	env.createSnippet(t, alice.ID, "Public", true)
	env.createSnippet(t, alice.ID, "Private", false)

	all, err := env.admin.ListSnippets(ctx, repository.ListOptions{})
	if err != nil {
		t.Fatalf("ListSnippets failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("admin sees %d snippets, want 2", len(all))
	}
}
