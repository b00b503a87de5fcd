// Package ajax serves the endpoints used by the notification panel script.
package ajax

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
	"github.com/pagenoemail/pagenoemail/internal/notify"
	"github.com/pagenoemail/pagenoemail/internal/options"
	"github.com/pagenoemail/pagenoemail/internal/postmeta"
	"github.com/pagenoemail/pagenoemail/internal/sanitize"
	"github.com/pagenoemail/pagenoemail/internal/web/handler"
	"github.com/pagenoemail/pagenoemail/internal/web/session"
)

// Routes.
const (
	Path      = "/ajax"
	SavePath  = Path + "/save_metabox_settings"
	SendPath  = Path + "/send_notification_email"
	NoncePath = Path + "/nonce"
)

// Request fields.
const (
	FieldNonce             = "nonce"
	FieldPostID            = "post_id"
	FieldNotificationEmail = "notification_email"
	FieldCustomMessage     = "custom_message"
)

// Response is the envelope of every ajax answer.
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// SaveData is the data of a successful save.
type SaveData struct {
	Message           string `json:"message"`
	NotificationEmail string `json:"notification_email"`
	CustomMessage     string `json:"custom_message"`
}

// NonceData is the data of a token refresh.
type NonceData struct {
	Nonce     string `json:"nonce"`
	ExpiresIn int    `json:"expires_in"`
}

// Service is the ajax handler service.
type Service struct {
	handler.Service
	cfg    *config.Config
	db     *gorm.DB
	auth   *auth.Service
	nonce  *nonce.Service
	meta   *postmeta.Store
	notify *notify.Service
}

// Handler is the ajax handler.
var Handler = Service{}

// Init initializes the ajax handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() || deps.Nonce == nil || deps.Mailer == nil {
		return handler.ErrNilDeps
	}

	s.cfg = deps.Cfg
	s.db = deps.DB
	s.auth = deps.Auth
	s.nonce = deps.Nonce
	s.meta = postmeta.NewStore(postmeta.NewDB(deps.DB))
	s.notify = notify.NewService(
		options.NewStore(options.NewDB(deps.DB)),
		s.meta,
		deps.Mailer,
		deps.MailErrors,
	)

	app.Post(SavePath, s.SaveSettings)
	app.Post(SendPath, s.SendNotification)
	app.Get(NoncePath, s.Nonce)

	return nil
}

func success(c *fiber.Ctx, data any) error {
	return c.JSON(Response{Success: true, Data: data})
}

// failure answers with HTTP 200, logical errors are carried in the body.
func failure(c *fiber.Ctx, msg string) error {
	return c.JSON(Response{Success: false, Data: msg})
}

// formValue returns the posted value of key and whether it was sent at all.
func formValue(c *fiber.Ctx, key string) (string, bool) {
	args := c.Request().PostArgs()
	if args.Has(key) {
		return string(args.Peek(key)), true
	}

	if form, err := c.MultipartForm(); err == nil {
		if v, ok := form.Value[key]; ok && len(v) > 0 {
			return v[0], true
		}
	}

	return "", false
}

func hasAll(c *fiber.Ctx, keys ...string) bool {
	for _, k := range keys {
		if _, ok := formValue(c, k); !ok {
			return false
		}
	}

	return true
}

// authorize runs the token and permission checks shared by both endpoints.
// A rejected request has its response written already and ok is false;
// err is then the result of writing it.
func (s *Service) authorize(c *fiber.Ctx) (post *models.Post, ok bool, err error) {
	sess, err := session.FromRequest(c)
	if err != nil {
		return nil, false, c.Status(fiber.StatusUnauthorized).JSON(Response{Data: MsgUnauthorized})
	}

	token, _ := formValue(c, FieldNonce)
	if err = s.nonce.Verify(token, nonce.ScopeAjax, sess.User.ID); err != nil {
		log.Warn().Err(err).Uint64("user_id", sess.User.ID).Msg("ajax token rejected")

		return nil, false, c.Status(fiber.StatusForbidden).JSON(Response{Data: MsgInvalidToken})
	}

	raw, _ := formValue(c, FieldPostID)
	postID, _ := strconv.ParseUint(raw, 10, 64)

	post, err = postctl.Get(s.db, postID)
	if err != nil {
		if !errors.Is(err, postctl.ErrPostNotFound) {
			log.Error().Err(err).Uint64("post_id", postID).Msg("failed to load post")
		}

		return nil, false, failure(c, MsgInsufficientPermissions)
	}

	canEdit, err := s.auth.CanEditPost(sess.User.ID, post.Type)
	if err != nil {
		log.Error().Err(err).Uint64("post_id", post.ID).Msg("failed to check edit permission")
	}

	if !canEdit {
		return nil, false, failure(c, MsgInsufficientPermissions)
	}

	return post, true, nil
}

// SaveSettings stores the recipients and the custom message of a post.
func (s *Service) SaveSettings(c *fiber.Ctx) error {
	if !hasAll(c, FieldNonce, FieldPostID, FieldNotificationEmail, FieldCustomMessage) {
		return failure(c, MsgMissingParameters)
	}

	post, ok, err := s.authorize(c)
	if !ok {
		return err
	}

	emails, _ := formValue(c, FieldNotificationEmail)
	message, _ := formValue(c, FieldCustomMessage)

	stored, err := s.meta.Save(post.ID, postmeta.Meta{
		NotificationEmails: sanitize.Text(emails),
		CustomMessage:      message,
	})
	if err != nil {
		log.Error().Err(err).Uint64("post_id", post.ID).Msg("failed to save notification settings")
		return failure(c, MsgSaveFailed)
	}

	log.Info().Uint64("post_id", post.ID).Msg("notification settings saved")

	return success(c, SaveData{
		Message:           MsgSaved,
		NotificationEmail: stored.NotificationEmails,
		CustomMessage:     stored.CustomMessage,
	})
}

// SendNotification sends the notification email of a post. Recipients and
// message posted with the request take precedence over the stored ones.
func (s *Service) SendNotification(c *fiber.Ctx) error {
	if !hasAll(c, FieldNonce, FieldPostID) {
		return failure(c, MsgMissingParameters)
	}

	post, ok, err := s.authorize(c)
	if !ok {
		return err
	}

	req := notify.Request{
		PostID:    post.ID,
		Permalink: post.Permalink(s.cfg.Site.URL),
	}

	if v, ok := formValue(c, FieldNotificationEmail); ok {
		req.Emails = &v
	}

	if v, ok := formValue(c, FieldCustomMessage); ok {
		req.CustomMessage = &v
	}

	err = s.notify.Send(c.UserContext(), req)

	switch {
	case err == nil:
		return success(c, MsgSent)
	case errors.Is(err, notify.ErrNoEmailAddress), errors.Is(err, notify.ErrNoValidEmailAddresses):
		return failure(c, err.Error())
	default:
		if !errors.Is(err, notify.ErrSendFailed) {
			log.Error().Err(err).Uint64("post_id", post.ID).Msg("failed to prepare notification")
		}

		return failure(c, MsgSendFailed)
	}
}

// Nonce issues a fresh token for the current user.
func (s *Service) Nonce(c *fiber.Ctx) error {
	sess, err := session.FromRequest(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(Response{Data: MsgUnauthorized})
	}

	token, err := s.nonce.Create(nonce.ScopeAjax, sess.User.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to create ajax token")
		return fiber.ErrInternalServerError
	}

	return success(c, NonceData{Nonce: token, ExpiresIn: int(s.nonce.Lifetime().Seconds())})
}
