package models

import (
	"strconv"
	"time"
)

// Built-in post types.
const (
	PostTypePage = "page"
	PostTypePost = "post"
)

// PostType describes a kind of content item.
type PostType struct {
	// Name is the machine name, e.g. "page".
	Name string `gorm:"primaryKey;size:50"`
	// Label is the singular human readable name shown in forms.
	Label string `gorm:"size:100;not null"`
	// Public types are offered on the notification settings page.
	Public bool `gorm:"not null;default:true"`
}

// Post is a content item that editors can announce by email.
type Post struct {
	ID        uint64 `gorm:"primaryKey"`
	Type      string `gorm:"size:50;index;not null"`
	Title     string `gorm:"size:255;not null"`
	Slug      string `gorm:"size:200"`
	Content   string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Permalink returns the public url of the post below the site base url.
// Pages and posts live at the root, other types below their type name.
func (p *Post) Permalink(siteURL string) string {
	if p.Slug == "" {
		return siteURL + "/?p=" + strconv.FormatUint(p.ID, 10)
	}

	if p.Type == PostTypePage || p.Type == PostTypePost {
		return siteURL + "/" + p.Slug + "/"
	}

	return siteURL + "/" + p.Type + "/" + p.Slug + "/"
}
