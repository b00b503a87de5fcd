// Package posts renders the post list and the post edit screen with the
// notification panel.
package posts

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pagenoemail/pagenoemail/internal/auth"
	"github.com/pagenoemail/pagenoemail/internal/config"
	postctl "github.com/pagenoemail/pagenoemail/internal/db/controller/post"
	"github.com/pagenoemail/pagenoemail/internal/db/models"
	"github.com/pagenoemail/pagenoemail/internal/nonce"
	"github.com/pagenoemail/pagenoemail/internal/options"
	"github.com/pagenoemail/pagenoemail/internal/postmeta"
	"github.com/pagenoemail/pagenoemail/internal/web/handler"
	"github.com/pagenoemail/pagenoemail/internal/web/handler/ajax"
	"github.com/pagenoemail/pagenoemail/internal/web/navigation"
	"github.com/pagenoemail/pagenoemail/internal/web/session"
)

const (
	// Path is the path of the post list.
	Path = "/posts"

	listTemplate = "posts/list"
	editTemplate = "posts/edit"
)

// EditPath returns the edit screen url of the post.
func EditPath(id uint64) string {
	return Path + "/" + strconv.FormatUint(id, 10) + "/edit"
}

// Row is one entry of the post list.
type Row struct {
	Post         models.Post
	TypeLabel    string
	Permalink    string
	EditURL      string
	CanEdit      bool
	Notification bool
}

// MetaBox is the notification panel of the edit screen.
type MetaBox struct {
	PostID             uint64
	NotificationEmails string
	CustomMessage      string
	Nonce              string
	SaveURL            string
	SendURL            string
}

// Service is the posts handler service.
type Service struct {
	handler.Service
	cfg     *config.Config
	db      *gorm.DB
	auth    *auth.Service
	nonce   *nonce.Service
	options *options.Store
	meta    *postmeta.Store
}

// Handler is the posts handler.
var Handler = Service{}

// Init initializes the posts handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() || deps.Nonce == nil {
		return handler.ErrNilDeps
	}

	s.cfg = deps.Cfg
	s.db = deps.DB
	s.auth = deps.Auth
	s.nonce = deps.Nonce
	s.options = options.NewStore(options.NewDB(deps.DB))
	s.meta = postmeta.NewStore(postmeta.NewDB(deps.DB))

	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RootPath, auth.RequirePermission(s.auth, auth.PermPostList), s.List)
		router.Get("/:id/edit", s.Edit)
	})

	return nil
}

// List renders all posts.
func (s *Service) List(c *fiber.Ctx) error {
	sess, err := session.FromRequest(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	posts, err := postctl.List(s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to list posts")
		return fiber.ErrInternalServerError
	}

	enabled, err := s.options.EnabledPostTypes()
	if err != nil {
		log.Error().Err(err).Msg("failed to read enabled post types")
		return fiber.ErrInternalServerError
	}

	enabledSet := make(map[string]bool, len(enabled))
	for _, t := range enabled {
		enabledSet[t] = true
	}

	labels := map[string]string{}
	rows := make([]Row, 0, len(posts))

	for _, p := range posts {
		if _, ok := labels[p.Type]; !ok {
			labels[p.Type] = p.Type
			if pt, errType := postctl.GetType(s.db, p.Type); errType == nil {
				labels[p.Type] = pt.Label
			}
		}

		canEdit, errPerm := s.auth.CanEditPost(sess.User.ID, p.Type)
		if errPerm != nil {
			log.Error().Err(errPerm).Uint64("post_id", p.ID).Msg("failed to check edit permission")
		}

		rows = append(rows, Row{
			Post:         p,
			TypeLabel:    labels[p.Type],
			Permalink:    p.Permalink(s.cfg.Site.URL),
			EditURL:      EditPath(p.ID),
			CanEdit:      canEdit,
			Notification: enabledSet[p.Type],
		})
	}

	nav := navigation.NewContext("Posts", navigation.SectionPosts, navigation.PagePostList).Current()

	return c.Render(listTemplate, fiber.Map{
		"title":      s.cfg.Title,
		"navigation": nav,
		"rows":       rows,
	}, handler.BaseLayout)
}

// Edit renders the edit screen of one post. The notification panel is only
// included for enabled post types.
func (s *Service) Edit(c *fiber.Ctx) error {
	sess, err := session.FromRequest(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return fiber.ErrNotFound
	}

	post, err := postctl.Get(s.db, id)
	if err != nil {
		if errors.Is(err, postctl.ErrPostNotFound) {
			return fiber.ErrNotFound
		}

		log.Error().Err(err).Uint64("post_id", id).Msg("failed to load post")

		return fiber.ErrInternalServerError
	}

	canEdit, err := s.auth.CanEditPost(sess.User.ID, post.Type)
	if err != nil {
		log.Error().Err(err).Uint64("post_id", id).Msg("failed to check edit permission")
		return fiber.ErrInternalServerError
	}

	if !canEdit {
		return fiber.ErrForbidden
	}

	box, err := s.metaBox(sess.User.ID, post)
	if err != nil {
		log.Error().Err(err).Uint64("post_id", id).Msg("failed to build notification panel")
		return fiber.ErrInternalServerError
	}

	nav := navigation.NewContext("Edit "+post.Title, navigation.SectionPosts, navigation.PagePostEdit).
		AddBreadcrumb("Posts", Path, false).
		Current()

	return c.Render(editTemplate, fiber.Map{
		"title":      s.cfg.Title,
		"navigation": nav,
		"post":       post,
		"permalink":  post.Permalink(s.cfg.Site.URL),
		"metabox":    box,
	}, handler.BaseLayout)
}

// metaBox returns nil when the post type is not enabled.
func (s *Service) metaBox(userID uint64, post *models.Post) (*MetaBox, error) {
	enabled, err := s.options.IsPostTypeEnabled(post.Type)
	if err != nil || !enabled {
		return nil, err
	}

	meta, err := s.meta.Load(post.ID)
	if err != nil {
		return nil, err
	}

	token, err := s.nonce.Create(nonce.ScopeAjax, userID)
	if err != nil {
		return nil, err
	}

	return &MetaBox{
		PostID:             post.ID,
		NotificationEmails: meta.NotificationEmails,
		CustomMessage:      meta.CustomMessage,
		Nonce:              token,
		SaveURL:            ajax.SavePath,
		SendURL:            ajax.SendPath,
	}, nil
}
