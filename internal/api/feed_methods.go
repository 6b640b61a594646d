package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steemit/feedsync/internal/api/objects"
	"github.com/steemit/feedsync/internal/cache"
	"github.com/steemit/feedsync/internal/db"
	"github.com/steemit/feedsync/internal/models"
	"github.com/steemit/feedsync/pkg/logging"
)

const maxContentLength = 10000

// FeedAPI provides the feed.* methods of the record store
type FeedAPI struct {
	accounts *db.AccountRepository
	posts    *db.PostRepository
	comments *db.CommentRepository
	likes    *db.LikeRepository
	cache    *cache.Cache
	logger   *zap.Logger
}

// NewFeedAPI creates the feed API. redisCache may be nil.
func NewFeedAPI(repo *db.Repository, redisCache *cache.Cache) *FeedAPI {
	return &FeedAPI{
		accounts: db.NewAccountRepository(repo),
		posts:    db.NewPostRepository(repo),
		comments: db.NewCommentRepository(repo),
		likes:    db.NewLikeRepository(repo),
		cache:    redisCache,
		logger:   logging.WithComponent("feed-api"),
	}
}

func decodeParams(params json.RawMessage, dst interface{}) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return invalidParams("invalid parameters format: %v", err)
	}
	return nil
}

func cleanContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", invalidParams("content must not be empty")
	}
	if len(content) > maxContentLength {
		return "", invalidParams("content exceeds %d bytes", maxContentLength)
	}
	return content, nil
}

// ensureAccount creates the caller's account row on first write
func (a *FeedAPI) ensureAccount(c *gin.Context, accountID string) error {
	name := c.GetString(ctxUserName)
	if name == "" {
		name = accountID
	}
	if err := a.accounts.Ensure(c.Request.Context(), &models.Account{ID: accountID, Name: name}); err != nil {
		return fmt.Errorf("failed to ensure account: %w", err)
	}
	return nil
}

func (a *FeedAPI) requirePost(ctx context.Context, postID string) (*models.Post, error) {
	if postID == "" {
		return nil, invalidParams("missing required parameter: post_id")
	}
	post, err := a.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if post == nil {
		return nil, notFound("post %s not found", postID)
	}
	return post, nil
}

// ListPosts handles feed.list_posts
func (a *FeedAPI) ListPosts(c *gin.Context, params json.RawMessage) (interface{}, error) {
	views, err := a.posts.ListViews(c.Request.Context(), viewerID(c))
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return objects.NewPosts(views), nil
}

// GetPost handles feed.get_post
func (a *FeedAPI) GetPost(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p objects.PostIDParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if p.PostID == "" {
		return nil, invalidParams("missing required parameter: post_id")
	}

	view, err := a.posts.GetView(c.Request.Context(), p.PostID, viewerID(c))
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}
	if view == nil {
		return nil, notFound("post %s not found", p.PostID)
	}
	return objects.NewPost(*view), nil
}

// CreatePost handles feed.create_post
func (a *FeedAPI) CreatePost(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p objects.CreatePostParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := requireViewer(c, p.AuthorID); err != nil {
		return nil, err
	}
	content, err := cleanContent(p.Content)
	if err != nil {
		return nil, err
	}

	ctx := c.Request.Context()
	if err := a.ensureAccount(c, p.AuthorID); err != nil {
		return nil, err
	}

	post := &models.Post{AuthorID: p.AuthorID, Content: content, ImageURL: strings.TrimSpace(p.ImageURL)}
	if err := a.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	a.logger.Info("Post created", zap.String("post_id", post.ID), zap.String("author_id", p.AuthorID))

	view, err := a.reloadPost(ctx, post.ID, p.AuthorID)
	if err != nil {
		return nil, err
	}
	return objects.NewPost(*view), nil
}

// reloadPost reads back a post this request has just stored
func (a *FeedAPI) reloadPost(ctx context.Context, postID, viewerID string) (*models.PostView, error) {
	view, err := a.posts.GetView(ctx, postID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload post %s: %w", postID, err)
	}
	if view == nil {
		return nil, fmt.Errorf("post %s missing right after create", postID)
	}
	return view, nil
}

// ListComments handles feed.list_comments. Threads are cached in Redis until a new comment arrives.
func (a *FeedAPI) ListComments(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p objects.PostIDParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	ctx := c.Request.Context()
	if _, err := a.requirePost(ctx, p.PostID); err != nil {
		return nil, err
	}

	// a thread is cached under the post's current version; new comments bump it
	version, err := a.cache.CommentsVersion(ctx, p.PostID)
	cacheable := err == nil
	if err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		a.logger.Warn("Comment cache version read failed", zap.String("post_id", p.PostID), zap.Error(err))
	}
	key := cache.CommentsKey(p.PostID, version)

	if cacheable {
		var cached []objects.Comment
		switch err := a.cache.GetJSON(ctx, key, &cached); {
		case err == nil:
			return cached, nil
		case errors.Is(err, cache.ErrMiss):
		default:
			a.logger.Warn("Comment cache read failed", zap.String("post_id", p.PostID), zap.Error(err))
		}
	}

	rows, err := a.comments.ListByPost(ctx, p.PostID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	out := objects.NewComments(rows)

	if cacheable {
		if err := a.cache.SetJSON(ctx, key, out, 0); err != nil {
			a.logger.Warn("Comment cache write failed", zap.String("post_id", p.PostID), zap.Error(err))
		}
	}
	return out, nil
}

// CreateComment handles feed.create_comment
func (a *FeedAPI) CreateComment(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p objects.CreateCommentParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := requireViewer(c, p.AuthorID); err != nil {
		return nil, err
	}
	content, err := cleanContent(p.Content)
	if err != nil {
		return nil, err
	}

	ctx := c.Request.Context()
	if _, err := a.requirePost(ctx, p.PostID); err != nil {
		return nil, err
	}
	if err := a.ensureAccount(c, p.AuthorID); err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: p.PostID, AuthorID: p.AuthorID, Content: content}
	if err := a.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	if _, err := a.cache.BumpCommentsVersion(ctx, p.PostID); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		a.logger.Warn("Comment cache invalidation failed", zap.String("post_id", p.PostID), zap.Error(err))
	}

	comment.Author, err = a.accounts.GetByID(ctx, p.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load author: %w", err)
	}
	a.logger.Info("Comment created", zap.String("comment_id", comment.ID), zap.String("post_id", p.PostID))
	return objects.NewComment(*comment), nil
}

// SetLike handles feed.set_like. Repeating the current state succeeds without change.
func (a *FeedAPI) SetLike(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p objects.SetLikeParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := requireViewer(c, p.UserID); err != nil {
		return nil, err
	}

	ctx := c.Request.Context()
	if _, err := a.requirePost(ctx, p.PostID); err != nil {
		return nil, err
	}
	if err := a.likes.Set(ctx, p.PostID, p.UserID, p.On); err != nil {
		return nil, fmt.Errorf("failed to set like: %w", err)
	}
	return objects.LikeResult{PostID: p.PostID, Liked: p.On}, nil
}
