package auth

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/pagenoemail/pagenoemail/internal/db/models"
)

const whereID = "id = ?"

// Accounts manages the local user accounts.
type Accounts struct {
	db *gorm.DB
}

// NewAccounts creates the account manager.
func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db}
}

// NewUser holds the fields of an account to create.
type NewUser struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	RoleID    uint
	Active    bool
}

// UserUpdate holds the editable fields of an existing account.
type UserUpdate struct {
	Email     string
	FirstName string
	LastName  string
	RoleID    uint
	Active    bool
}

func (a *Accounts) roleExists(roleID uint) error {
	var count int64
	if err := a.db.Model(&models.Role{}).Where(whereID, roleID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check role: %w", err)
	}

	if count == 0 {
		return ErrRoleNotFound
	}

	return nil
}

// CreateUser creates a local account with a hashed password.
func (a *Accounts) CreateUser(in NewUser) (*models.User, error) {
	var existing models.User

	err := a.db.Where("username = ? OR email = ?", in.Username, in.Email).First(&existing).Error
	if err == nil {
		return nil, ErrUserNameOrEmailExists
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if err := a.roleExists(in.RoleID); err != nil {
		return nil, err
	}

	hash, err := models.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Active:    in.Active,
		Username:  in.Username,
		Email:     in.Email,
		Password:  hash,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		RoleID:    in.RoleID,
	}

	if err := a.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// UpdateUser changes the profile, role and active flag of an account.
func (a *Accounts) UpdateUser(userID uint64, in UserUpdate) error {
	if _, err := a.GetUserByID(userID); err != nil {
		return err
	}

	if err := a.roleExists(in.RoleID); err != nil {
		return err
	}

	var taken int64
	if err := a.db.Model(&models.User{}).Where("email = ? AND id <> ?", in.Email, userID).Count(&taken).Error; err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}

	if taken > 0 {
		return ErrUserNameOrEmailExists
	}

	updates := map[string]interface{}{
		"email":      in.Email,
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"role_id":    in.RoleID,
		"active":     in.Active,
		"updated_at": time.Now(),
	}

	return a.db.Model(&models.User{}).Where(whereID, userID).Updates(updates).Error
}

// ChangePassword replaces the password after checking the current one.
func (a *Accounts) ChangePassword(userID uint64, oldPassword, newPassword string) error {
	user, err := a.GetUserByID(userID)
	if err != nil {
		return err
	}

	if !user.VerifyPassword(oldPassword) {
		return ErrInvalidOldPassword
	}

	return a.setPassword(userID, newPassword)
}

// ResetPassword replaces the password without checking the current one.
func (a *Accounts) ResetPassword(userID uint64, newPassword string) error {
	if _, err := a.GetUserByID(userID); err != nil {
		return err
	}

	return a.setPassword(userID, newPassword)
}

func (a *Accounts) setPassword(userID uint64, password string) error {
	hash, err := models.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return a.db.Model(&models.User{}).Where(whereID, userID).Update("password", hash).Error
}

// DeleteUser removes an account. Administrators are never deleted.
func (a *Accounts) DeleteUser(userID uint64) error {
	user, err := a.GetUserByID(userID)
	if err != nil {
		return err
	}

	if user.Role.Name == models.RoleAdministrator {
		return ErrAdministratorProtected
	}

	return a.db.Delete(&models.User{}, userID).Error
}

// GetUserByID returns the account with its role.
func (a *Accounts) GetUserByID(userID uint64) (*models.User, error) {
	var user models.User

	if err := a.db.Preload("Role").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return &user, nil
}

// ListUsers returns every account with its role, oldest first.
func (a *Accounts) ListUsers() ([]models.User, error) {
	var users []models.User

	if err := a.db.Preload("Role").Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// Roles returns the roles an account can be assigned, by name.
func (a *Accounts) Roles() ([]models.Role, error) {
	var roles []models.Role

	if err := a.db.Order("name ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	return roles, nil
}
