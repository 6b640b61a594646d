package objects

// Method names of the feed API
const (
	MethodListPosts     = "feed.list_posts"
	MethodGetPost       = "feed.get_post"
	MethodCreatePost    = "feed.create_post"
	MethodListComments  = "feed.list_comments"
	MethodCreateComment = "feed.create_comment"
	MethodSetLike       = "feed.set_like"
)

// PostIDParams selects one post
type PostIDParams struct {
	PostID string `json:"post_id"`
}

// CreatePostParams are the params of feed.create_post
type CreatePostParams struct {
	AuthorID string `json:"author_id"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
}

// CreateCommentParams are the params of feed.create_comment
type CreateCommentParams struct {
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
	Content  string `json:"content"`
}

// SetLikeParams are the params of feed.set_like
type SetLikeParams struct {
	PostID string `json:"post_id"`
	UserID string `json:"user_id"`
	On     bool   `json:"on"`
}
