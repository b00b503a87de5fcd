package postmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagenoemail/pagenoemail/internal/db/dbtest"
	"github.com/pagenoemail/pagenoemail/internal/db/models"
)

func TestGet(t *testing.T) {
	db := dbtest.New(t)

	require.NoError(t, db.Create(&models.PostMeta{PostID: 3, Key: "notification_email", Value: "a@x.com"}).Error)

	testCases := []struct {
		name      string
		postID    uint64
		key       string
		wantValue string
		wantErr   error
	}{
		{name: "stored value", postID: 3, key: "notification_email", wantValue: "a@x.com"},
		{name: "other key", postID: 3, key: "custom_message", wantErr: ErrMetaNotFound},
		{name: "other post", postID: 4, key: "notification_email", wantErr: ErrMetaNotFound},
		{name: "empty key", postID: 3, key: "", wantErr: ErrMetaKeyEmpty},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			value, err := Get(db, tc.postID, tc.key)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantValue, value)
		})
	}

	_, err := Get(nil, 3, "notification_email")
	require.ErrorIs(t, err, ErrDBNil)
}

func TestSetUpserts(t *testing.T) {
	db := dbtest.New(t)

	require.NoError(t, Set(db, 9, "custom_message", "first"))
	require.NoError(t, Set(db, 9, "custom_message", "second"))
	require.NoError(t, Set(db, 9, "notification_email", "p@ex.com"))
	require.NoError(t, Set(db, 10, "custom_message", "other post"))

	value, err := Get(db, 9, "custom_message")
	require.NoError(t, err)
	assert.Equal(t, "second", value)

	var count int64
	db.Model(&models.PostMeta{}).Where("post_id = ?", 9).Count(&count)
	assert.Equal(t, int64(2), count)

	value, err = Get(db, 9, "notification_email")
	require.NoError(t, err)
	assert.Equal(t, "p@ex.com", value)

	require.ErrorIs(t, Set(db, 9, "", "x"), ErrMetaKeyEmpty)
	require.ErrorIs(t, Set(nil, 9, "k", "x"), ErrDBNil)
}
