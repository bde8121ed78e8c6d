package models

// Group is a topical collection of posts. Groups are managed by administrators;
// posts reference them but never own them.
type Group struct {
	ID          uint   `gorm:"primaryKey" json:"id" yaml:"-"`
	Slug        string `gorm:"size:200;uniqueIndex;not null" json:"slug" yaml:"slug"`
	Title       string `gorm:"size:200;not null" json:"title" yaml:"title"`
	Description string `gorm:"type:text" json:"description" yaml:"description"`
}
