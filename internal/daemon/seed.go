package daemon

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pagenoemail/pagenoemail/internal/auth"
	postctl "github.com/pagenoemail/pagenoemail/internal/db/controller/post"
	"github.com/pagenoemail/pagenoemail/internal/db/models"
)

// Account created on an empty user table.
const (
	defaultAdminUser     = "admin"
	defaultAdminPassword = "changeme"
)

var defaultPostTypes = []models.PostType{
	{Name: models.PostTypePage, Label: "Page", Public: true},
	{Name: models.PostTypePost, Label: "Post", Public: true},
}

func rolePermissions() map[string][]string {
	editAll := []string{
		auth.EditPostPermission(models.PostTypePage),
		auth.EditPostPermission(models.PostTypePost),
	}

	return map[string][]string{
		models.RoleAdministrator: append([]string{auth.PermAdminSettings, auth.PermPostList}, editAll...),
		models.RoleEditor:        append([]string{auth.PermPostList}, editAll...),
		models.RoleSubscriber:    {auth.PermPostList},
	}
}

// seed creates roles, permissions, post types, the admin account and sample
// content. Existing rows are kept.
func seed(db *gorm.DB, authService *auth.Service) error {
	for _, pt := range defaultPostTypes {
		if err := postctl.EnsureType(db, pt); err != nil {
			return err
		}
	}

	var adminRole models.Role

	for name, perms := range rolePermissions() {
		role := models.Role{Name: name, IsSystem: true}
		if err := db.Where(models.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			return err
		}

		if err := authService.GrantPermissions(name, perms...); err != nil {
			return err
		}

		if name == models.RoleAdministrator {
			adminRole = role
		}
	}

	if err := seedAdmin(db, adminRole); err != nil {
		return err
	}

	return seedPosts(db)
}

func seedAdmin(db *gorm.DB, role models.Role) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	hash, err := models.HashPassword(defaultAdminPassword)
	if err != nil {
		return err
	}

	admin := models.User{
		Username: defaultAdminUser,
		Email:    defaultAdminUser + "@localhost",
		Password: hash,
		Active:   true,
		RoleID:   role.ID,
	}
	if err = db.Create(&admin).Error; err != nil {
		return err
	}

	log.Warn().Str("username", defaultAdminUser).Str("path", "/account/password").Msg("default admin account created, change its password")

	return nil
}

func seedPosts(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Post{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	for _, p := range []models.Post{
		{Type: models.PostTypePage, Title: "Sample Page", Slug: "sample-page", Content: "This is an example page."},
		{Type: models.PostTypePost, Title: "Hello world!", Slug: "hello-world", Content: "Welcome. This is your first post."},
	} {
		if err := postctl.Create(db, &p); err != nil {
			return err
		}
	}

	return nil
}
