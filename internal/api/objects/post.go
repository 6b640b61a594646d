// Package objects holds the JSON shapes exchanged over the feed JSON-RPC API.
package objects

import (
	"time"

	"github.com/steemit/feedsync/internal/models"
)

// Author is the public profile shown next to posts and comments
type Author struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Verified  bool   `json:"verified"`
}

// Post is a post as seen by the calling viewer
type Post struct {
	ID           string    `json:"id"`
	Author       Author    `json:"author"`
	Content      string    `json:"content"`
	ImageURL     string    `json:"image_url,omitempty"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	ShareCount   int       `json:"share_count"`
	Liked        bool      `json:"liked"`
	CreatedAt    time.Time `json:"created_at"`
}

// Comment is a reply to a post
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	Author    Author    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeResult confirms a like change
type LikeResult struct {
	PostID string `json:"post_id"`
	Liked  bool   `json:"liked"`
}

// NewAuthor converts an account row. A missing row yields an author with only the id.
func NewAuthor(id string, account *models.Account) Author {
	if account == nil {
		return Author{ID: id, Name: id}
	}
	return Author{
		ID:        account.ID,
		Name:      account.Name,
		Title:     account.Title,
		AvatarURL: account.AvatarURL,
		Verified:  account.Verified,
	}
}

// NewPost converts a post view
func NewPost(v models.PostView) Post {
	return Post{
		ID:           v.ID,
		Author:       NewAuthor(v.AuthorID, v.Author),
		Content:      v.Content,
		ImageURL:     v.ImageURL,
		LikeCount:    v.LikeCount,
		CommentCount: v.CommentCount,
		ShareCount:   v.ShareCount,
		Liked:        v.Liked,
		CreatedAt:    v.CreatedAt.UTC(),
	}
}

// NewPosts converts a list of post views
func NewPosts(views []models.PostView) []Post {
	out := make([]Post, len(views))
	for i, v := range views {
		out[i] = NewPost(v)
	}
	return out
}

// NewComment converts a comment row
func NewComment(c models.Comment) Comment {
	return Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		Author:    NewAuthor(c.AuthorID, c.Author),
		Content:   c.Content,
		CreatedAt: c.CreatedAt.UTC(),
	}
}

// NewComments converts a list of comment rows
func NewComments(comments []models.Comment) []Comment {
	out := make([]Comment, len(comments))
	for i, c := range comments {
		out[i] = NewComment(c)
	}
	return out
}
