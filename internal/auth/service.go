package auth

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pagenoemail/pagenoemail/internal/db/models"
)

// Service provides authentication and authorization functionality.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Authenticate returns the active user matching username and password.
func (s *Service) Authenticate(username, password string) (*models.User, error) {
	var user models.User

	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	if !user.VerifyPassword(password) {
		return nil, ErrInvalidPassword
	}

	return &user, nil
}

// HasPermission checks if a user has a specific permission through the user's role.
func (s *Service) HasPermission(userID uint64, permission string) (bool, error) {
	var count int64

	err := s.db.Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN users ON users.role_id = role_permissions.role_id").
		Where("users.id = ? AND users.active = ? AND permissions.name = ?", userID, true, permission).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role permission: %w", err)
	}

	return count > 0, nil
}

// CanEditPost reports whether the user may edit posts of postType.
func (s *Service) CanEditPost(userID uint64, postType string) (bool, error) {
	if postType == "" {
		return false, nil
	}

	return s.HasPermission(userID, EditPostPermission(postType))
}

// GetUserPermissions retrieves all permissions of the user's role.
func (s *Service) GetUserPermissions(userID uint64) ([]string, error) {
	var permissions []string

	err := s.db.Table("permissions").
		Select("DISTINCT permissions.name").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN users ON users.role_id = role_permissions.role_id").
		Where("users.id = ?", userID).
		Order("permissions.name").
		Pluck("permissions.name", &permissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}

	return permissions, nil
}

// EnsurePermission creates the named permission if it does not exist yet.
func (s *Service) EnsurePermission(name, description string) (*models.Permission, error) {
	resource, action := name, ""
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		resource, action = name[:i], name[i+1:]
	}

	perm := models.Permission{Name: name, Resource: resource, Action: action, Description: description}
	if err := s.db.Where(models.Permission{Name: name}).FirstOrCreate(&perm).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure permission %s: %w", name, err)
	}

	return &perm, nil
}

// GrantPermissions assigns the named permissions to the role, creating
// missing permissions on the way.
func (s *Service) GrantPermissions(roleName string, permissions ...string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.Where("name = ?", roleName).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}

			return err
		}

		txs := &Service{db: tx}

		for _, name := range permissions {
			perm, err := txs.EnsurePermission(name, "")
			if err != nil {
				return err
			}

			link := models.RolePermission{RoleID: role.ID, PermissionID: perm.ID}
			if err := tx.Where(link).FirstOrCreate(&link).Error; err != nil {
				return fmt.Errorf("failed to grant %s to %s: %w", name, roleName, err)
			}
		}

		return nil
	})
}
