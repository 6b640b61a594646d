package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/steemit/feedsync/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AccountRepository provides account-related database operations
type AccountRepository struct {
	*Repository
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(repo *Repository) *AccountRepository {
	return &AccountRepository{Repository: repo}
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// Ensure creates the account if it does not exist yet. Existing rows are left untouched.
func (r *AccountRepository) Ensure(ctx context.Context, account *models.Account) error {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(account).Error
}

// PostRepository provides post-related database operations
type PostRepository struct {
	*Repository
}

// NewPostRepository creates a new post repository
func NewPostRepository(repo *Repository) *PostRepository {
	return &PostRepository{Repository: repo}
}

// GetByID retrieves a post by ID
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("Author").First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// Create assigns an ID and timestamp and stores the post
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	if post.ID == "" {
		post.ID = NewID(post.CreatedAt)
	}
	return r.db.WithContext(ctx).Omit("Author").Create(post).Error
}

// ListViews returns every post, newest first, with counts and the viewer's like flag.
// An empty viewerID yields Liked=false everywhere.
func (r *PostRepository) ListViews(ctx context.Context, viewerID string) ([]models.PostView, error) {
	var posts []models.Post
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Order("created_at DESC").
		Order("id DESC").
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return r.views(ctx, posts, viewerID)
}

// GetView retrieves one post with counts for the viewer
func (r *PostRepository) GetView(ctx context.Context, id, viewerID string) (*models.PostView, error) {
	post, err := r.GetByID(ctx, id)
	if err != nil || post == nil {
		return nil, err
	}
	views, err := r.views(ctx, []models.Post{*post}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

type postCount struct {
	PostID string
	N      int
}

func (r *PostRepository) views(ctx context.Context, posts []models.Post, viewerID string) ([]models.PostView, error) {
	views := make([]models.PostView, len(posts))
	if len(posts) == 0 {
		return views, nil
	}

	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	var likeCounts, commentCounts []postCount
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&likeCounts).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&commentCounts).Error; err != nil {
		return nil, err
	}

	liked := map[string]bool{}
	if viewerID != "" {
		var likedIDs []string
		if err := r.db.WithContext(ctx).Model(&models.Like{}).
			Where("account_id = ? AND post_id IN ?", viewerID, ids).
			Pluck("post_id", &likedIDs).Error; err != nil {
			return nil, err
		}
		for _, id := range likedIDs {
			liked[id] = true
		}
	}

	likes := countMap(likeCounts)
	comments := countMap(commentCounts)
	for i, p := range posts {
		views[i] = models.PostView{
			Post:         p,
			LikeCount:    likes[p.ID],
			CommentCount: comments[p.ID],
			Liked:        liked[p.ID],
		}
	}
	return views, nil
}

func countMap(rows []postCount) map[string]int {
	m := make(map[string]int, len(rows))
	for _, row := range rows {
		m[row.PostID] = row.N
	}
	return m
}

// CommentRepository provides comment-related database operations
type CommentRepository struct {
	*Repository
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(repo *Repository) *CommentRepository {
	return &CommentRepository{Repository: repo}
}

// ListByPost returns the comments of a post, oldest first
func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// Create assigns an ID and timestamp and stores the comment
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	if comment.ID == "" {
		comment.ID = NewID(comment.CreatedAt)
	}
	return r.db.WithContext(ctx).Omit("Author").Create(comment).Error
}

// LikeRepository provides like-related database operations
type LikeRepository struct {
	*Repository
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(repo *Repository) *LikeRepository {
	return &LikeRepository{Repository: repo}
}

// Set adds or removes the like of an account on a post. Setting the current state again is a no-op.
func (r *LikeRepository) Set(ctx context.Context, postID, accountID string, on bool) error {
	if on {
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Like{PostID: postID, AccountID: accountID, CreatedAt: time.Now().UTC()}).Error
	}
	return r.db.WithContext(ctx).
		Where("post_id = ? AND account_id = ?", postID, accountID).
		Delete(&models.Like{}).Error
}

// Exists reports whether the account likes the post
func (r *LikeRepository) Exists(ctx context.Context, postID, accountID string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ? AND account_id = ?", postID, accountID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
