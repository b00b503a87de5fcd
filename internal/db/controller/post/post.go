// Package post provides read access to posts and post types.
package post

import (
	"errors"

	"gorm.io/gorm"

	"github.com/pagenoemail/pagenoemail/internal/db/models"
)

var (
	// ErrPostNotFound is returned when no post has the requested id.
	ErrPostNotFound = errors.New("post not found")
	// ErrPostTypeNotFound is returned when no post type has the requested name.
	ErrPostTypeNotFound = errors.New("post type not found")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Get retrieves a post by its id.
func Get(db *gorm.DB, id uint64) (*models.Post, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var post models.Post

	result := db.First(&post, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}

		return nil, result.Error
	}

	return &post, nil
}

// List returns all posts of the given types, newest first.
// No types means all types.
func List(db *gorm.DB, types ...string) ([]models.Post, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	query := db.Order("id DESC")
	if len(types) > 0 {
		query = query.Where("type IN ?", types)
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, err
	}

	return posts, nil
}

// Create inserts a new post.
func Create(db *gorm.DB, post *models.Post) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Create(post).Error
}

// GetType retrieves a post type by its name.
func GetType(db *gorm.DB, name string) (*models.PostType, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var pt models.PostType

	result := db.Where("name = ?", name).First(&pt)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrPostTypeNotFound
		}

		return nil, result.Error
	}

	return &pt, nil
}

// PublicTypes returns the public post types ordered by name.
func PublicTypes(db *gorm.DB) ([]models.PostType, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var types []models.PostType
	if err := db.Where("public = ?", true).Order("name").Find(&types).Error; err != nil {
		return nil, err
	}

	return types, nil
}

// EnsureType creates the post type when it does not exist yet.
func EnsureType(db *gorm.DB, pt models.PostType) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where(models.PostType{Name: pt.Name}).FirstOrCreate(&pt).Error
}
