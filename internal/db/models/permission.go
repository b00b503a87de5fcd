package models

import "time"

// Permission is a named access right, assigned to roles.
type Permission struct {
	ID uint `gorm:"primaryKey"`
	// Name is the unique identifier in resource.action format, e.g. "post.page.edit".
	Name string `gorm:"unique;size:100;not null"`
	// Resource is the resource the permission applies to, e.g. "post.page" or "admin".
	Resource string `gorm:"size:100;not null"`
	// Action is the allowed action, e.g. "edit" or "settings".
	Action      string `gorm:"size:50;not null"`
	Description string `gorm:"size:255"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}
