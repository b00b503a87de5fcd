package models

// PostMeta is one named value attached to a post.
// Rows are created on first write and never removed by this application.
type PostMeta struct {
	ID     uint64 `gorm:"primaryKey"`
	PostID uint64 `gorm:"uniqueIndex:idx_post_meta_key;not null"`
	Key    string `gorm:"column:meta_key;uniqueIndex:idx_post_meta_key;size:191;not null"`
	Value  string `gorm:"type:text"`
}

// TableName specifies the database table name for the PostMeta model.
func (PostMeta) TableName() string {
	return "post_meta"
}
