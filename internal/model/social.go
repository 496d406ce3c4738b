package model

import "time"

// SnippetLike records that a user liked a snippet.
// At most one row may exist per (SnippetID, UserID) pair — the uniqueness is
// what makes the like toggle idempotent.
type SnippetLike struct {
	SnippetID string    `json:"snippetId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SnippetView records one counted view of a snippet.
//
// ViewerKey deduplicates views: "u:<userID>" for a logged-in viewer,
// "ip:<address>" for an anonymous one. At most one row exists per
// (SnippetID, ViewerKey), so refreshing a page never inflates the counter.
// UserID is kept separately (empty for anonymous views) so that deleting a
// user also deletes the views they produced.
type SnippetView struct {
	SnippetID string    `json:"snippetId"`
	ViewerKey string    `json:"-"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Follow records that FollowerID follows FollowingID.
// FollowerID must never equal FollowingID; the pair is unique.
type Follow struct {
	FollowerID  string    `json:"followerId"`
	FollowingID string    `json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}
