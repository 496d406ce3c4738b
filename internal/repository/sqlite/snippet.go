package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/nafis/snipnest/internal/apperror"
	"github.com/nafis/snipnest/internal/model"
	"github.com/nafis/snipnest/internal/repository"
)

// compile-time check that *DB implements repository.SnippetRepository
var _ repository.SnippetRepository = (*DB)(nil)

const snippetColumns = `id, title, description, html, css, js, is_public,
	author_id, views, likes, created_at, updated_at`

func scanSnippet(scan func(dest ...any) error) (*model.Snippet, error) {
	var s model.Snippet
	err := scan(
		&s.ID, &s.Title, &s.Description, &s.HTML, &s.CSS, &s.JS, &s.IsPublic,
		&s.AuthorID, &s.Views, &s.Likes, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSnippet inserts a new snippet.
//
// POINTER RECEIVER (*model.Snippet):
// We take a pointer so we can MODIFY the original struct — after
// CreateSnippet returns, the caller's snippet has the generated ID and
// timestamps. xid IDs are 20 chars, URL-safe, and sortable by creation time.
func (db *DB) CreateSnippet(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()

	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	// PARAMETERIZED QUERIES (the ? placeholders):
	// NEVER build SQL strings with fmt.Sprintf or string concatenation —
	// that creates SQL injection vulnerabilities. The driver escapes the
	// values bound to each ?.
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippets (id, title, description, html, css, js, is_public,
			author_id, views, likes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		snippet.ID, snippet.Title, snippet.Description,
		snippet.HTML, snippet.CSS, snippet.JS, snippet.IsPublic,
		snippet.AuthorID, snippet.CreatedAt, snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetSnippetByID retrieves a single snippet by its ID.
//
// sql.ErrNoRows is NOT really an error — it just means "no matching row
// exists". We translate it to our app's NotFound error so the handler knows
// to return 404. Visibility (private snippets) is the service layer's job;
// the repository returns whatever exists.
func (db *DB) GetSnippetByID(ctx context.Context, id string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id)

	s, err := scanSnippet(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	return s, nil
}

// ListSnippets retrieves snippets newest-first, narrowed by the filter.
//
// The WHERE clause is assembled from the filter one condition at a time.
// Only the conditions grow dynamically — every VALUE still goes through a ?
// placeholder, so this stays injection-safe.
func (db *DB) ListSnippets(ctx context.Context, filter repository.SnippetFilter) ([]model.Snippet, error) {
	limit, offset := clampPage(filter.ListOptions)

	query := `SELECT ` + snippetColumns + ` FROM snippets WHERE 1=1`
	args := []any{}

	if filter.PublicOnly {
		query += ` AND is_public = 1`
	}
	if filter.AuthorID != "" {
		query += ` AND author_id = ?`
		args = append(args, filter.AuthorID)
	}
	if filter.Search != "" {
		// LIKE with COLLATE NOCASE gives case-insensitive substring match
		// on title and description. Good enough for a snippet site; swap in
		// FTS5 if search ever becomes a feature of its own.
		pattern := "%" + filter.Search + "%"
		query += ` AND (title LIKE ? COLLATE NOCASE OR description LIKE ? COLLATE NOCASE)`
		args = append(args, pattern, pattern)
	}

	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	// CRITICAL: always close rows — they hold a pool connection.
	defer rows.Close()

	return collectSnippets(rows, limit)
}

// ListTrending returns public snippets created at or after `since`, ordered
// by likes+views descending. Ties break newest-first so brand-new snippets
// with equal scores don't get buried.
func (db *DB) ListTrending(ctx context.Context, since time.Time, opts repository.ListOptions) ([]model.Snippet, error) {
	limit, offset := clampPage(opts)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets
		 WHERE is_public = 1 AND created_at >= ?
		 ORDER BY (likes + views) DESC, created_at DESC
		 LIMIT ? OFFSET ?`,
		since, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing trending snippets: %w", err)
	}
	defer rows.Close()

	return collectSnippets(rows, limit)
}

func collectSnippets(rows *sql.Rows, capacity int) ([]model.Snippet, error) {
	snippets := make([]model.Snippet, 0, capacity)
	for rows.Next() {
		s, err := scanSnippet(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *s)
	}
	// rows.Err() catches errors that happened DURING iteration (e.g. the
	// connection dropping mid-scan), which rows.Next() alone would hide.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}
	return snippets, nil
}

// UpdateSnippet modifies an editable snippet. ID, author_id, the counters,
// and created_at are immutable here — counters move only through the social
// methods.
func (db *DB) UpdateSnippet(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, description = ?, html = ?, css = ?, js = ?,
		     is_public = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Title, snippet.Description, snippet.HTML, snippet.CSS,
		snippet.JS, snippet.IsPublic, snippet.UpdatedAt, snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	// RowsAffected() tells us whether the WHERE matched anything.
	// 0 rows changed → the snippet doesn't exist → NotFound. One query
	// instead of SELECT-then-UPDATE.
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	return nil
}

// DeleteSnippet removes a snippet. Likes, views, and notifications that
// reference it go with it via FK cascades.
func (db *DB) DeleteSnippet(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}

// CountSnippets returns the total number of snippets (public and private).
func (db *DB) CountSnippets(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM snippets`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting snippets: %w", err)
	}
	return n, nil
}

// CountSnippetsByAuthor counts one author's snippets, optionally public only
// (what a visitor sees on a profile page vs. what the owner sees).
func (db *DB) CountSnippetsByAuthor(ctx context.Context, authorID string, publicOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM snippets WHERE author_id = ?`
	if publicOnly {
		query += ` AND is_public = 1`
	}

	var n int
	if err := db.conn.QueryRowContext(ctx, query, authorID).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting snippets for author %s: %w", authorID, err)
	}
	return n, nil
}
