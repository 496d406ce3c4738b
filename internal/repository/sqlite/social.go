package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/repository"
)

// compile-time check that *DB implements repository.SocialRepository
var _ repository.SocialRepository = (*DB)(nil)

// AddLike records that userID liked snippetID and bumps the counter.
// Returns (false, nil) when the like already existed — the second like by
// the same user is a no-op and the counter does not move.
//
// INSERT OR IGNORE + RowsAffected IS THE TOGGLE:
// The composite primary key (snippet_id, user_id) makes the duplicate insert
// a silent no-op, and RowsAffected tells us which case we hit. The counter
// update only runs when a row actually landed, so the counter can never
// drift ahead of the like rows.
func (db *DB) AddLike(ctx context.Context, snippetID, userID string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO snippet_likes (snippet_id, user_id, created_at)
		 VALUES (?, ?, ?)`,
		snippetID, userID, time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: adding like (%s, %s): %w", snippetID, userID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil // already liked
	}

	if _, err := db.conn.ExecContext(ctx,
		`UPDATE snippets SET likes = likes + 1 WHERE id = ?`, snippetID,
	); err != nil {
		return false, fmt.Errorf("sqlite: incrementing likes for %s: %w", snippetID, err)
	}

	return true, nil
}

// RemoveLike deletes the like row and decrements the counter.
// Returns (false, nil) when there was nothing to remove.
func (db *DB) RemoveLike(ctx context.Context, snippetID, userID string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippet_likes WHERE snippet_id = ? AND user_id = ?`,
		snippetID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: removing like (%s, %s): %w", snippetID, userID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil
	}

	if _, err := db.conn.ExecContext(ctx,
		`UPDATE snippets SET likes = likes - 1 WHERE id = ? AND likes > 0`, snippetID,
	); err != nil {
		return false, fmt.Errorf("sqlite: decrementing likes for %s: %w", snippetID, err)
	}

	return true, nil
}

// HasLiked reports whether userID currently likes snippetID.
func (db *DB) HasLiked(ctx context.Context, snippetID, userID string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snippet_likes WHERE snippet_id = ? AND user_id = ?`,
		snippetID, userID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking like (%s, %s): %w", snippetID, userID, err)
	}
	return n > 0, nil
}

// RecordView counts one view of a snippet, deduplicated by view.ViewerKey.
// Same INSERT OR IGNORE pattern as AddLike: a repeat view from the same
// identity returns (false, nil) and the counter stays put.
func (db *DB) RecordView(ctx context.Context, view *model.SnippetView) (bool, error) {
	view.CreatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO snippet_views (snippet_id, viewer_key, user_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		view.SnippetID, view.ViewerKey, nullable(view.UserID), view.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: recording view (%s, %s): %w", view.SnippetID, view.ViewerKey, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return false, nil // this identity already viewed the snippet
	}

	if _, err := db.conn.ExecContext(ctx,
		`UPDATE snippets SET views = views + 1 WHERE id = ?`, view.SnippetID,
	); err != nil {
		return false, fmt.Errorf("sqlite: incrementing views for %s: %w", view.SnippetID, err)
	}

	return true, nil
}

// CountAllLikes returns the total number of like rows. Admin stats.
func (db *DB) CountAllLikes(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM snippet_likes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting likes: %w", err)
	}
	return n, nil
}

// CountAllViews returns the total number of counted views. Admin stats.
func (db *DB) CountAllViews(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM snippet_views`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting views: %w", err)
	}
	return n, nil
}

// AddFollow records that followerID follows followingID.
// Returns (false, nil) when the relationship already existed. The CHECK
// constraint rejects self-follows, but the service layer catches those
// before they ever reach here.
func (db *DB) AddFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO follows (follower_id, following_id, created_at)
		 VALUES (?, ?, ?)`,
		followerID, followingID, time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: adding follow (%s → %s): %w", followerID, followingID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// RemoveFollow deletes the follow relationship.
// Returns (false, nil) when it didn't exist.
func (db *DB) RemoveFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND following_id = ?`,
		followerID, followingID,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: removing follow (%s → %s): %w", followerID, followingID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// IsFollowing reports whether followerID follows followingID.
func (db *DB) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE follower_id = ? AND following_id = ?`,
		followerID, followingID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking follow (%s → %s): %w", followerID, followingID, err)
	}
	return n > 0, nil
}

// ListFollowerIDs returns the IDs of everyone following userID.
// Used for notification fan-out when the user publishes a snippet; follower
// counts are small enough that a plain id list is fine.
func (db *DB) ListFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT follower_id FROM follows WHERE following_id = ? ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing followers of %s: %w", userID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning follower id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating followers: %w", err)
	}

	return ids, nil
}

// CountFollowers returns how many users follow userID.
func (db *DB) CountFollowers(ctx context.Context, userID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE following_id = ?`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting followers of %s: %w", userID, err)
	}
	return n, nil
}

// CountFollowing returns how many users userID follows.
func (db *DB) CountFollowing(ctx context.Context, userID string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE follower_id = ?`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting following of %s: %w", userID, err)
	}
	return n, nil
}
