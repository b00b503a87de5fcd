package auth

// Permission constants define the available permissions in the system.
// These are used for role-based access control (RBAC) to restrict access
// to specific resources and actions.
const (
	// PermPostList allows listing posts of every type.
	PermPostList = "post.list"

	// PermAdminSettings allows managing the notification settings.
	PermAdminSettings = "admin.settings"
)

// EditPostPermission returns the permission required to edit posts of postType,
// e.g. "post.page.edit". It also gates saving and sending notifications.
func EditPostPermission(postType string) string {
	return "post." + postType + ".edit"
}
