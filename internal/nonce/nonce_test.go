package nonce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New("", time.Hour)
	require.ErrorIs(t, err, ErrEmptySecret)

	s, err := New("secret", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultLifetime, s.Lifetime())
}

func TestCreateVerify(t *testing.T) {
	s, err := New("secret", time.Hour)
	require.NoError(t, err)

	token, err := s.Create(ScopeAjax, 7)
	require.NoError(t, err)

	require.NoError(t, s.Verify(token, ScopeAjax, 7))

	other, err := New("other-secret", time.Hour)
	require.NoError(t, err)

	testCases := []struct {
		name  string
		svc   *Service
		token string
		scope string
		user  uint64
	}{
		{name: "empty token", svc: s, token: "", scope: ScopeAjax, user: 7},
		{name: "garbage", svc: s, token: "not.a.token", scope: ScopeAjax, user: 7},
		{name: "other user", svc: s, token: token, scope: ScopeAjax, user: 8},
		{name: "other scope", svc: s, token: token, scope: "settings", user: 7},
		{name: "other secret", svc: other, token: token, scope: ScopeAjax, user: 7},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.svc.Verify(tc.token, tc.scope, tc.user), ErrInvalid)
		})
	}
}

func TestExpired(t *testing.T) {
	s, err := New("secret", time.Minute)
	require.NoError(t, err)

	issued := time.Now()
	s.now = func() time.Time { return issued }

	token, err := s.Create(ScopeAjax, 1)
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(30 * time.Second) }
	require.NoError(t, s.Verify(token, ScopeAjax, 1))

	s.now = func() time.Time { return issued.Add(2 * time.Minute) }
	require.ErrorIs(t, s.Verify(token, ScopeAjax, 1), ErrInvalid)
}
