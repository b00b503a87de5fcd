package models

import "time"

// Built-in roles.
const (
	RoleAdministrator = "administrator"
	RoleEditor        = "editor"
	RoleSubscriber    = "subscriber"
)

// Role is a named collection of permissions assigned to users.
type Role struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"unique;size:100;not null"`
	Description string `gorm:"size:255"`
	// IsSystem marks roles created by the seeder.
	IsSystem  bool `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}
