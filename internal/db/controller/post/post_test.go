package post

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagenoemail/pagenoemail/internal/db/dbtest"
	"github.com/pagenoemail/pagenoemail/internal/db/models"
)

func TestGetAndList(t *testing.T) {
	db := dbtest.New(t)

	about := &models.Post{Type: models.PostTypePage, Title: "About", Slug: "about"}
	news := &models.Post{Type: models.PostTypePost, Title: "News", Slug: "news"}
	require.NoError(t, Create(db, about))
	require.NoError(t, Create(db, news))

	got, err := Get(db, about.ID)
	require.NoError(t, err)
	assert.Equal(t, "About", got.Title)

	_, err = Get(db, 999)
	require.ErrorIs(t, err, ErrPostNotFound)

	all, err := List(db)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, news.ID, all[0].ID)

	pages, err := List(db, models.PostTypePage)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, about.ID, pages[0].ID)

	_, err = Get(nil, 1)
	require.ErrorIs(t, err, ErrDBNil)
}

func TestTypes(t *testing.T) {
	db := dbtest.New(t)

	require.NoError(t, EnsureType(db, models.PostType{Name: "page", Label: "Page", Public: true}))
	require.NoError(t, EnsureType(db, models.PostType{Name: "post", Label: "Post", Public: true}))
	require.NoError(t, EnsureType(db, models.PostType{Name: "page", Label: "Changed", Public: true}))
	require.NoError(t, db.Create(&models.PostType{Name: "revision", Label: "Revision"}).Error)
	require.NoError(t, db.Model(&models.PostType{}).Where("name = ?", "revision").Update("public", false).Error)

	pt, err := GetType(db, "page")
	require.NoError(t, err)
	assert.Equal(t, "Page", pt.Label)

	_, err = GetType(db, "missing")
	require.ErrorIs(t, err, ErrPostTypeNotFound)

	public, err := PublicTypes(db)
	require.NoError(t, err)
	require.Len(t, public, 2)
	assert.Equal(t, "page", public[0].Name)
	assert.Equal(t, "post", public[1].Name)
}
