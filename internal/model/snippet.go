package model

import "time"

// Snippet represents a saved HTML/CSS/JS code sample.
// The `json:"..."` tags tell Go's encoding/json package how to serialize/deserialize
// this struct to/from JSON. This is called a "struct tag" — metadata attached to fields.
//
// The three code bodies are kept as separate columns rather than one blob so
// the editor can load each pane independently and search can target titles
// and descriptions without scanning code.
//
// Views and Likes are denormalized counters. The rows in snippet_views and
// snippet_likes are the source of truth; the counters exist so that list
// pages don't need a COUNT(*) subquery per row.
type Snippet struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	HTML        string    `json:"html"`
	CSS         string    `json:"css"`
	JS          string    `json:"js"`
	IsPublic    bool      `json:"isPublic"`
	AuthorID    string    `json:"authorId"`
	Views       int       `json:"views"`
	Likes       int       `json:"likes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TrendingScore is the ranking key for the trending list: the plain sum of
// view and like counts. Computed over snippets created in the trailing
// seven days.
func (s *Snippet) TrendingScore() int {
	return s.Likes + s.Views
}
