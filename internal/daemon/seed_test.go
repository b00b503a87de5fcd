package daemon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagenoemail/pagenoemail/internal/auth"
	"github.com/pagenoemail/pagenoemail/internal/config"
	postctl "github.com/pagenoemail/pagenoemail/internal/db/controller/post"
	"github.com/pagenoemail/pagenoemail/internal/db/dbtest"
	"github.com/pagenoemail/pagenoemail/internal/db/models"
	"github.com/pagenoemail/pagenoemail/internal/mail"
)

func TestSeed(t *testing.T) {
	db := dbtest.New(t)
	authService := auth.NewService(db)

	require.NoError(t, seed(db, authService))
	// a second run keeps the existing rows
	require.NoError(t, seed(db, authService))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)

	admin, err := authService.Authenticate(defaultAdminUser, defaultAdminPassword)
	require.NoError(t, err)

	ok, err := authService.HasPermission(admin.ID, auth.PermAdminSettings)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = authService.CanEditPost(admin.ID, models.PostTypePage)
	require.NoError(t, err)
	assert.True(t, ok)

	types, err := postctl.PublicTypes(db)
	require.NoError(t, err)
	assert.Len(t, types, 2)

	posts, err := postctl.List(db)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	var roles int64
	require.NoError(t, db.Model(&models.Role{}).Count(&roles).Error)
	assert.EqualValues(t, 3, roles)
}

func TestNewMailer(t *testing.T) {
	cfg := testConfig()
	cfg.DevMode = true
	cfg.Mail.Host = ""

	_, ok := newMailer(cfg).(*mail.Recorder)
	assert.True(t, ok)

	cfg.Mail.Host = "smtp.example.com"

	_, ok = newMailer(cfg).(*mail.SMTP)
	assert.True(t, ok)
}

func TestNew_SQLite(t *testing.T) {
	cfg := testConfig()
	cfg.DB.Name = t.TempDir() + "/pne.db"

	d, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, d.webService)

	_, err = New(nil)
	require.Error(t, err)
}

func testConfig() *config.Config {
	return &config.Config{
		Title: "Test",
		DB:    config.DB{GormEngine: config.EngineSQLite, Name: ":memory:"},
		Nonce: config.Nonce{Secret: "s", Lifetime: time.Hour},
		Mail:  config.Mail{Host: "localhost", Port: 25, From: "noreply@example.com"},
		Webserver: config.Webserver{
			Port:    8080,
			URL:     "http://localhost:8080",
			Session: config.Session{ExpiryTime: time.Hour},
		},
	}
}
