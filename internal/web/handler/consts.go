package handler

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path of the route group.
	RootPath = "/"

	// HomePath is where users land after login.
	HomePath = "/posts"

	// ErrNilDepsMsg is used if app or a required dependency is nil.
	ErrNilDepsMsg = "app, cfg or db is nil"
)
