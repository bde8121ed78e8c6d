package models

import "time"

// Post is a text entry published by its author, optionally tagged with a group
// and illustrated with an image.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_posts_created" json:"created_at"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	GroupID   *uint     `gorm:"index" json:"group_id,omitempty"`
	Group     *Group    `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
	// Image is a storage-relative reference such as "posts/<uuid>.png".
	Image string `gorm:"size:255" json:"image,omitempty"`
}

// PostFilter narrows a post listing. Nil fields are ignored.
type PostFilter struct {
	GroupID    *uint
	AuthorID   *uint
	FollowedBy *uint
}
