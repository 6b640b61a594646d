// Package remote reaches the record store over JSON-RPC.
package remote

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/steemit/feedsync/internal/api/objects"
	"github.com/steemit/feedsync/internal/feed"
	"github.com/steemit/feedsync/pkg/config"
	"github.com/steemit/feedsync/pkg/logging"
)

// Client implements feed.RemoteStore against the record store
type Client struct {
	rpc    *RPCClient
	logger *zap.Logger
}

var _ feed.RemoteStore = (*Client)(nil)

// New creates a new record store client
func New(cfg *config.StoreConfig, tokens TokenSource) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("store_url is required")
	}

	logger := logging.WithComponent("store-client")

	client := &Client{
		rpc:    NewRPCClient(cfg.URL, cfg.Timeout, tokens, logger),
		logger: logger,
	}

	logger.Info("Record store client initialized", zap.String("url", cfg.URL))

	return client, nil
}

// ListPosts fetches every post as seen by the current viewer
func (c *Client) ListPosts(ctx context.Context) ([]feed.Post, error) {
	var posts []objects.Post
	if err := c.rpc.Call(ctx, objects.MethodListPosts, struct{}{}, &posts); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	out := make([]feed.Post, len(posts))
	for i, p := range posts {
		out[i] = toPost(p)
	}
	return out, nil
}

// GetPost fetches one post. A post the store does not know yields feed.ErrPostNotFound.
func (c *Client) GetPost(ctx context.Context, postID string) (feed.Post, error) {
	var post objects.Post
	if err := c.rpc.Call(ctx, objects.MethodGetPost, objects.PostIDParams{PostID: postID}, &post); err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == codeNotFound {
			return feed.Post{}, fmt.Errorf("%w: %s", feed.ErrPostNotFound, postID)
		}
		return feed.Post{}, fmt.Errorf("failed to get post %s: %w", postID, err)
	}
	return toPost(post), nil
}

// CreatePost publishes a post
func (c *Client) CreatePost(ctx context.Context, authorID, content string) (feed.Post, error) {
	var post objects.Post
	params := objects.CreatePostParams{AuthorID: authorID, Content: content}
	if err := c.rpc.Call(ctx, objects.MethodCreatePost, params, &post); err != nil {
		return feed.Post{}, fmt.Errorf("failed to create post: %w", err)
	}
	return toPost(post), nil
}

// ListComments fetches the comments of a post, oldest first
func (c *Client) ListComments(ctx context.Context, postID string) ([]feed.Comment, error) {
	var comments []objects.Comment
	if err := c.rpc.Call(ctx, objects.MethodListComments, objects.PostIDParams{PostID: postID}, &comments); err != nil {
		return nil, fmt.Errorf("failed to list comments of %s: %w", postID, err)
	}
	out := make([]feed.Comment, len(comments))
	for i, cm := range comments {
		out[i] = toComment(cm)
	}
	return out, nil
}

// CreateComment posts a comment
func (c *Client) CreateComment(ctx context.Context, postID, authorID, content string) (feed.Comment, error) {
	var comment objects.Comment
	params := objects.CreateCommentParams{PostID: postID, AuthorID: authorID, Content: content}
	if err := c.rpc.Call(ctx, objects.MethodCreateComment, params, &comment); err != nil {
		return feed.Comment{}, fmt.Errorf("failed to create comment on %s: %w", postID, err)
	}
	return toComment(comment), nil
}

// SetLike sets the like of userID on a post
func (c *Client) SetLike(ctx context.Context, postID, userID string, on bool) error {
	params := objects.SetLikeParams{PostID: postID, UserID: userID, On: on}
	if err := c.rpc.Call(ctx, objects.MethodSetLike, params, nil); err != nil {
		return fmt.Errorf("failed to set like on %s: %w", postID, err)
	}
	return nil
}

func toAuthor(a objects.Author) feed.Author {
	return feed.Author{
		ID:        a.ID,
		Name:      a.Name,
		Title:     a.Title,
		AvatarURL: a.AvatarURL,
		Verified:  a.Verified,
	}
}

func toPost(p objects.Post) feed.Post {
	return feed.Post{
		ID:                 p.ID,
		Author:             toAuthor(p.Author),
		Content:            p.Content,
		ImageURL:           p.ImageURL,
		LikeCount:          p.LikeCount,
		CommentCount:       p.CommentCount,
		ShareCount:         p.ShareCount,
		CreatedAt:          p.CreatedAt,
		LikedByCurrentUser: p.Liked,
	}
}

func toComment(c objects.Comment) feed.Comment {
	return feed.Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		Author:    toAuthor(c.Author),
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}
