package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pagenoemail/pagenoemail/internal/web/handler/ajax"
	"github.com/pagenoemail/pagenoemail/internal/web/handler/login"
	"github.com/pagenoemail/pagenoemail/internal/web/session"
)

// DefaultTimeout bounds a single request when the context has no deadline.
const DefaultTimeout = 30 * time.Second

var (
	// ErrLoginFailed is returned when the server did not open a session.
	ErrLoginFailed = errors.New("workflow: login failed")

	// ErrNotLoggedIn is returned when a call needs a session and there is none.
	ErrNotLoggedIn = errors.New("workflow: not logged in")
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the ajax endpoints over HTTP with a session cookie and an
// ajax token.
type Client struct {
	baseURL string
	session string
	nonce   string
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/")}
}

func timeout(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		return time.Until(dl)
	}

	return DefaultTimeout
}

// Login opens a session with the given credentials and fetches a token.
func (c *Client) Login(ctx context.Context, username, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)

	args.Set("username", username)
	args.Set("password", password)

	resp := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(resp)

	code, _, errs := fiber.Post(c.baseURL+login.Path).
		Form(args).
		Timeout(timeout(ctx)).
		SetResponse(resp).
		Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("workflow: login request: %w", errors.Join(errs...))
	}

	raw := resp.Header.PeekCookie(session.CookieName)
	if len(raw) == 0 {
		return fmt.Errorf("%w: status %d", ErrLoginFailed, code)
	}

	cookie, err := http.ParseSetCookie(string(raw))
	if err != nil || cookie.Value == "" {
		return fmt.Errorf("%w: malformed session cookie", ErrLoginFailed)
	}

	c.session = cookie.Value

	return c.RefreshNonce(ctx)
}

// RefreshNonce fetches a fresh ajax token for the session user.
func (c *Client) RefreshNonce(ctx context.Context) error {
	if c.session == "" {
		return ErrNotLoggedIn
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	var out struct {
		Success bool           `json:"success"`
		Data    ajax.NonceData `json:"data"`
	}

	code, _, errs := fiber.Get(c.baseURL+ajax.NoncePath).
		Cookie(session.CookieName, c.session).
		Timeout(timeout(ctx)).
		Struct(&out)
	if len(errs) > 0 {
		return fmt.Errorf("workflow: nonce request: %w", errors.Join(errs...))
	}

	if code != fiber.StatusOK || !out.Success || out.Data.Nonce == "" {
		return fmt.Errorf("%w: nonce request answered %d", ErrNotLoggedIn, code)
	}

	c.nonce = out.Data.Nonce

	return nil
}

// Save implements API.
func (c *Client) Save(ctx context.Context, f Fields) Result {
	return c.post(ctx, ajax.SavePath, f)
}

// Send implements API.
func (c *Client) Send(ctx context.Context, f Fields) Result {
	return c.post(ctx, ajax.SendPath, f)
}

func (c *Client) post(ctx context.Context, path string, f Fields) Result {
	if err := ctx.Err(); err != nil {
		return Result{Kind: KindTransport, Message: err.Error()}
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)

	args.Set(ajax.FieldNonce, c.nonce)
	args.Set(ajax.FieldPostID, strconv.FormatUint(f.PostID, 10))
	args.Set(ajax.FieldNotificationEmail, f.NotificationEmail)
	args.Set(ajax.FieldCustomMessage, f.CustomMessage)

	code, body, errs := fiber.Post(c.baseURL+path).
		Cookie(session.CookieName, c.session).
		Form(args).
		Timeout(timeout(ctx)).
		Bytes()
	if len(errs) > 0 {
		return Result{Kind: KindTransport, Message: errors.Join(errs...).Error()}
	}

	if code < 200 || code > 299 {
		return Result{Kind: KindTransport, Message: fmt.Sprintf("%d %s", code, http.StatusText(code))}
	}

	return decode(body)
}

// decode turns an ajax answer into a Result. data is either a message or
// an object carrying one.
func decode(body []byte) Result {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Result{Kind: KindTransport, Message: "parsererror"}
	}

	r := Result{Kind: KindLogical}
	if env.Success {
		r.Kind = KindOK
	}

	var msg string
	if err := json.Unmarshal(env.Data, &msg); err == nil {
		r.Message = msg
		return r
	}

	var obj struct {
		Message           string  `json:"message"`
		NotificationEmail *string `json:"notification_email"`
		CustomMessage     *string `json:"custom_message"`
	}
	if err := json.Unmarshal(env.Data, &obj); err == nil {
		r.Message = obj.Message
		r.NotificationEmail = obj.NotificationEmail
		r.CustomMessage = obj.CustomMessage
	}

	return r
}
