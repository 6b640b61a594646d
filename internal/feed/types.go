package feed

import (
	"context"
	"time"
)

// Author is the public profile shown next to a post or comment.
type Author struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Verified  bool   `json:"verified,omitempty"`
}

// Post is one entry of the feed as seen by the current viewer.
type Post struct {
	ID                 string    `json:"id"`
	Author             Author    `json:"author"`
	Content            string    `json:"content"`
	ImageURL           string    `json:"image_url,omitempty"`
	LikeCount          int       `json:"like_count"`
	CommentCount       int       `json:"comment_count"`
	ShareCount         int       `json:"share_count"`
	CreatedAt          time.Time `json:"created_at"`
	LikedByCurrentUser bool      `json:"liked"`

	// TimeAgo is derived locally on every refresh, never sent by the store.
	TimeAgo string `json:"-"`
}

// Comment belongs to exactly one post and is never edited.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	Author    Author    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`

	TimeAgo string `json:"-"`
}

// Session identifies the signed-in viewer.
type Session struct {
	ID     string
	UserID string
}

// RemoteStore is the authoritative record store.
type RemoteStore interface {
	ListPosts(ctx context.Context) ([]Post, error)
	CreatePost(ctx context.Context, authorID, content string) (Post, error)
	// ListComments returns the comments of a post ordered by creation time, oldest first.
	ListComments(ctx context.Context, postID string) ([]Comment, error)
	CreateComment(ctx context.Context, postID, authorID, content string) (Comment, error)
	// SetLike is idempotent: setting the current state again succeeds.
	SetLike(ctx context.Context, postID, userID string, on bool) error
}

// SessionSource reports the current session, if any.
type SessionSource interface {
	CurrentSession(ctx context.Context) (Session, bool)
}

// SessionFunc adapts a function to SessionSource.
type SessionFunc func(ctx context.Context) (Session, bool)

// CurrentSession implements SessionSource.
func (f SessionFunc) CurrentSession(ctx context.Context) (Session, bool) { return f(ctx) }

// Kind classifies a user-facing report.
type Kind string

const (
	KindAuthenticationRequired Kind = "authentication_required"
	KindRemoteStoreFailure     Kind = "remote_store_failure"
)

// Notifier shows a message to the user. Reports are fire-and-forget.
type Notifier interface {
	Report(kind Kind, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(kind Kind, message string)

// Report implements Notifier.
func (f NotifierFunc) Report(kind Kind, message string) { f(kind, message) }

type nopNotifier struct{}

func (nopNotifier) Report(Kind, string) {}
