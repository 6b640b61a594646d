package models

import "time"

// Like is a (post, account) pair; the composite key allows one like per account per post
type Like struct {
	PostID    string    `gorm:"primaryKey;type:char(26);column:post_id"`
	AccountID string    `gorm:"primaryKey;type:varchar(64);column:account_id"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Like
func (Like) TableName() string {
	return "likes"
}

// Comment is an append-only reply to a post
type Comment struct {
	ID        string    `gorm:"primaryKey;type:char(26);column:id"`
	PostID    string    `gorm:"type:char(26);not null;index;column:post_id"`
	AuthorID  string    `gorm:"type:varchar(64);not null;column:author_id"`
	Content   string    `gorm:"type:text;not null;column:content"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`

	// Relationships
	Author *Account `gorm:"foreignKey:AuthorID;references:ID"`
}

// TableName specifies the table name for Comment
func (Comment) TableName() string {
	return "comments"
}
