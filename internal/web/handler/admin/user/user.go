// Package user provides the account management pages of the admin area.
package user

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/pagenoemail/pagenoemail/internal/auth"
	"github.com/pagenoemail/pagenoemail/internal/config"
	"github.com/pagenoemail/pagenoemail/internal/db/models"
	"github.com/pagenoemail/pagenoemail/internal/sanitize"
	"github.com/pagenoemail/pagenoemail/internal/web/handler"
	"github.com/pagenoemail/pagenoemail/internal/web/navigation"
	"github.com/pagenoemail/pagenoemail/internal/web/session"
)

const (
	// Path is the base path for user management.
	Path = handler.RootPath + "admin/users"

	// TemplateList is the template for listing users.
	TemplateList = "admin/user/list"
	// TemplateForm is the template for creating and updating a user.
	TemplateForm = "admin/user/form"
)

// CreateForm is the new user form.
type CreateForm struct {
	Username  string `form:"username"  validate:"required,min=3,max=100"`
	Email     string `form:"email"     validate:"required,email,max=255"`
	FirstName string `form:"firstname" validate:"max=100"`
	LastName  string `form:"lastname"  validate:"max=100"`
	Password  string `form:"password"  validate:"required,min=8,max=128"`
	RoleID    uint   `form:"role_id"   validate:"required"`
	Active    bool   `form:"active"`
}

// UpdateForm is the edit user form. An empty password keeps the current one.
type UpdateForm struct {
	Email     string `form:"email"     validate:"required,email,max=255"`
	FirstName string `form:"firstname" validate:"max=100"`
	LastName  string `form:"lastname"  validate:"max=100"`
	Password  string `form:"password"  validate:"omitempty,min=8,max=128"`
	RoleID    uint   `form:"role_id"   validate:"required"`
	Active    bool   `form:"active"`
}

// Service provides CRUD operations for users.
type Service struct {
	handler.Service
	cfg       *config.Config
	accounts  *auth.Accounts
	validator *validator.Validate
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrNilDeps
	}

	s.cfg = deps.Cfg
	s.accounts = auth.NewAccounts(deps.DB)
	s.validator = validator.New()

	admin := auth.RequirePermission(deps.Auth, auth.PermAdminSettings)
	protect := deps.CSRF()

	app.Get(Path, admin, protect, s.List)
	app.Get(Path+"/new", admin, protect, s.New)
	app.Post(Path, admin, protect, s.Create)
	app.Get(Path+"/:id/edit", admin, protect, s.Edit)
	app.Post(Path+"/:id", admin, protect, s.Update)
	app.Post(Path+"/:id/delete", admin, protect, s.Delete)

	return nil
}

func listNav() *navigation.Context {
	return navigation.NewContext("Users", navigation.SectionUsers, navigation.PageUserList).Current()
}

func formNav(title string) *navigation.Context {
	return navigation.NewContext(title, navigation.SectionUsers, navigation.PageUserForm).
		AddBreadcrumb("Users", Path, false).
		Current()
}

func currentUserID(c *fiber.Ctx) uint64 {
	data, err := session.FromRequest(c)
	if err != nil {
		return 0
	}

	return data.User.ID
}

func userID(c *fiber.Ctx) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}

	return id, true
}

func (s *Service) renderList(c *fiber.Ctx, status int, extra fiber.Map) error {
	users, err := s.accounts.ListUsers()
	if err != nil {
		log.Error().Err(err).Msg("failed to list users")
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load users")
	}

	data := fiber.Map{
		"title":         s.cfg.Title,
		"navigation":    listNav(),
		"users":         users,
		"currentUserID": currentUserID(c),
		"csrf":          c.Locals(handler.CSRFLocalsKey),
		"csrfField":     handler.CSRFField,
	}

	for k, v := range extra {
		data[k] = v
	}

	return c.Status(status).Render(TemplateList, data, handler.BaseLayout)
}

func (s *Service) renderForm(c *fiber.Ctx, status int, user models.User, isCreate bool, extra fiber.Map) error {
	roles, err := s.accounts.Roles()
	if err != nil {
		log.Error().Err(err).Msg("failed to load roles")
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load roles")
	}

	title := "Edit User"
	action := Path + "/" + strconv.FormatUint(user.ID, 10)

	if isCreate {
		title = "New User"
		action = Path
	}

	data := fiber.Map{
		"title":      s.cfg.Title,
		"navigation": formNav(title),
		"user":       user,
		"isCreate":   isCreate,
		"action":     action,
		"roles":      roles,
		"csrf":       c.Locals(handler.CSRFLocalsKey),
		"csrfField":  handler.CSRFField,
	}

	for k, v := range extra {
		data[k] = v
	}

	return c.Status(status).Render(TemplateForm, data, handler.BaseLayout)
}

func (s *Service) validate(form interface{}) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(s.validator.Struct(form), &validationErrors) {
		return nil
	}

	out := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		out = append(out, "Field '"+e.Field()+"' failed validation tag '"+e.Tag()+"'")
	}

	return out
}

// List shows every account.
func (s *Service) List(c *fiber.Ctx) error {
	return s.renderList(c, fiber.StatusOK, nil)
}

// New shows the creation form.
func (s *Service) New(c *fiber.Ctx) error {
	return s.renderForm(c, fiber.StatusOK, models.User{Active: true}, true, nil)
}

// Create creates a new user.
func (s *Service) Create(c *fiber.Ctx) error {
	form := new(CreateForm)
	if err := c.BodyParser(form); err != nil {
		return s.renderForm(c, fiber.StatusBadRequest, models.User{Active: true}, true, fiber.Map{"error": "Invalid form data"})
	}

	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	form.FirstName = sanitize.Text(form.FirstName)
	form.LastName = sanitize.Text(form.LastName)

	draft := models.User{
		Username:  form.Username,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		RoleID:    form.RoleID,
		Active:    form.Active,
	}

	if errs := s.validate(form); len(errs) > 0 {
		return s.renderForm(c, fiber.StatusBadRequest, draft, true, fiber.Map{"errors": errs})
	}

	user, err := s.accounts.CreateUser(auth.NewUser{
		Username:  form.Username,
		Email:     form.Email,
		Password:  form.Password,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		RoleID:    form.RoleID,
		Active:    form.Active,
	})
	if err != nil {
		return s.renderForm(c, statusFor(err), draft, true, fiber.Map{"error": messageFor(err)})
	}

	log.Info().Uint64("user_id", user.ID).Str("username", user.Username).Uint("role_id", user.RoleID).
		Uint64("by", currentUserID(c)).Msg("user created")

	return c.Redirect(Path)
}

// Edit shows the edit form for a user.
func (s *Service) Edit(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return c.Redirect(Path)
	}

	user, err := s.accounts.GetUserByID(id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return c.Redirect(Path)
		}

		log.Error().Err(err).Uint64("user_id", id).Msg("failed to load user")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load user")
	}

	return s.renderForm(c, fiber.StatusOK, *user, false, nil)
}

// Update changes a user. Users cannot deactivate themselves or change their own role.
func (s *Service) Update(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return c.Redirect(Path)
	}

	user, err := s.accounts.GetUserByID(id)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return c.Redirect(Path)
		}

		log.Error().Err(err).Uint64("user_id", id).Msg("failed to load user")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load user")
	}

	form := new(UpdateForm)
	if err := c.BodyParser(form); err != nil {
		return s.renderForm(c, fiber.StatusBadRequest, *user, false, fiber.Map{"error": "Invalid form data"})
	}

	form.Email = strings.TrimSpace(form.Email)
	form.FirstName = sanitize.Text(form.FirstName)
	form.LastName = sanitize.Text(form.LastName)

	draft := *user
	draft.Email = form.Email
	draft.FirstName = form.FirstName
	draft.LastName = form.LastName
	draft.RoleID = form.RoleID
	draft.Active = form.Active

	if errs := s.validate(form); len(errs) > 0 {
		return s.renderForm(c, fiber.StatusBadRequest, draft, false, fiber.Map{"errors": errs})
	}

	if id == currentUserID(c) && (!form.Active || form.RoleID != user.RoleID) {
		return s.renderForm(c, fiber.StatusBadRequest, *user, false,
			fiber.Map{"error": "You cannot deactivate your own account or change its role."})
	}

	err = s.accounts.UpdateUser(id, auth.UserUpdate{
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		RoleID:    form.RoleID,
		Active:    form.Active,
	})
	if err == nil && form.Password != "" {
		err = s.accounts.ResetPassword(id, form.Password)
	}

	if err != nil {
		return s.renderForm(c, statusFor(err), draft, false, fiber.Map{"error": messageFor(err)})
	}

	log.Info().Uint64("user_id", id).Uint("role_id", form.RoleID).Bool("active", form.Active).
		Bool("password_reset", form.Password != "").Uint64("by", currentUserID(c)).Msg("user updated")

	return c.Redirect(Path)
}

// Delete removes a user. Administrators and the own account are refused.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, ok := userID(c)
	if !ok {
		return c.Redirect(Path)
	}

	if id == currentUserID(c) {
		return s.renderList(c, fiber.StatusBadRequest, fiber.Map{"error": "You cannot delete your own account."})
	}

	if err := s.accounts.DeleteUser(id); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return c.Redirect(Path)
		}

		return s.renderList(c, statusFor(err), fiber.Map{"error": messageFor(err)})
	}

	log.Info().Uint64("user_id", id).Uint64("by", currentUserID(c)).Msg("user deleted")

	return c.Redirect(Path)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrAdministratorProtected):
		return fiber.StatusForbidden
	case errors.Is(err, auth.ErrUserNameOrEmailExists), errors.Is(err, auth.ErrRoleNotFound):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, auth.ErrAdministratorProtected):
		return "Cannot delete administrator accounts."
	case errors.Is(err, auth.ErrUserNameOrEmailExists):
		return "Username or email already exists."
	case errors.Is(err, auth.ErrRoleNotFound):
		return "Unknown role."
	default:
		log.Error().Err(err).Msg("user management failed")
		return "Failed to save user."
	}
}
