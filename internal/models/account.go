package models

import "time"

// Account is a user who can post, like and comment
type Account struct {
	ID        string    `gorm:"primaryKey;type:varchar(64);column:id"`
	Name      string    `gorm:"type:varchar(64);not null;column:name"`
	Title     string    `gorm:"type:varchar(255);column:title"`
	AvatarURL string    `gorm:"type:varchar(1024);column:avatar_url"`
	Verified  bool      `gorm:"not null;default:false;column:verified"`
	CreatedAt time.Time `gorm:"not null;column:created_at"`
}

// TableName specifies the table name for Account
func (Account) TableName() string {
	return "accounts"
}
