package models

import "time"

// Post is a top-level feed entry. ID is a ULID, so id order is creation order.
type Post struct {
	ID         string    `gorm:"primaryKey;type:char(26);column:id"`
	AuthorID   string    `gorm:"type:varchar(64);not null;index;column:author_id"`
	Content    string    `gorm:"type:text;not null;column:content"`
	ImageURL   string    `gorm:"type:varchar(1024);column:image_url"`
	ShareCount int       `gorm:"not null;default:0;column:share_count"`
	CreatedAt  time.Time `gorm:"not null;index;column:created_at"`

	// Relationships
	Author *Account `gorm:"foreignKey:AuthorID;references:ID"`
}

// TableName specifies the table name for Post
func (Post) TableName() string {
	return "posts"
}

// PostView is a post with engagement counts as seen by one viewer
type PostView struct {
	Post
	LikeCount    int
	CommentCount int
	Liked        bool
}
