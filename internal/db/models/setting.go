// Package models contains database model definitions.
package models

// Setting represents one named option stored in the database.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"uniqueIndex;size:191;not null"`
	Value []byte
}
