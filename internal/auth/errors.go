package auth

import "errors"

var (
	// ErrUserAccountDisabled is returned when attempting to authenticate a disabled user account.
	ErrUserAccountDisabled = errors.New("user account is disabled")

	// ErrInvalidPassword is returned when the provided password is incorrect during authentication.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = errors.New("user not found")

	// ErrRoleNotFound is returned when granting permissions to a role that does not exist.
	ErrRoleNotFound = errors.New("role not found")

	// ErrUserNameOrEmailExists is returned when creating a user whose username or email is taken.
	ErrUserNameOrEmailExists = errors.New("username or email already exists")

	// ErrInvalidOldPassword is returned when a password change does not confirm the current password.
	ErrInvalidOldPassword = errors.New("invalid old password")

	// ErrAdministratorProtected is returned when deleting a user holding the administrator role.
	ErrAdministratorProtected = errors.New("administrator accounts cannot be deleted")
)
