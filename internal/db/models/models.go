package models

// All returns every model the application migrates.
func All() []any {
	return []any{
		&Role{},
		&Permission{},
		&RolePermission{},
		&User{},
		&Setting{},
		&PostType{},
		&Post{},
		&PostMeta{},
	}
}
