package auth

import (
	"context"
	"testing"
	"time"

	"github.com/NAKUL-XD/BitChat/data/store"
	"github.com/NAKUL-XD/BitChat/data/structures"
	"github.com/golang-jwt/jwt/v4"
	"github.com/seventv/common/errors"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func setup(t *testing.T) (Authorizer, *store.Memory) {
	t.Helper()

	mem := store.NewMemory()
	mem.PutUser(structures.User{ID: "alice", Username: "alice", TokenVersion: 2})

	return New(AuthorizerOptions{JWTSecret: "secret", Store: mem}), mem
}

func TestAuthenticate(t *testing.T) {
	a, _ := setup(t)
	ctx := context.Background()

	token, expireAt, err := a.CreateAccessToken("alice", 2)
	require.NoError(t, err)
	require.True(t, expireAt.After(time.Now()))

	u, err := a.Authenticate(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "alice", u.ID)
}

func TestAuthenticateRejects(t *testing.T) {
	a, mem := setup(t)
	ctx := context.Background()

	stale, _, err := a.CreateAccessToken("alice", 1)
	require.NoError(t, err)

	ghost, _, err := a.CreateAccessToken("ghost", 0)
	require.NoError(t, err)

	other := New(AuthorizerOptions{JWTSecret: "other", Store: mem})
	forged, _, err := other.CreateAccessToken("alice", 2)
	require.NoError(t, err)

	expired, err := a.SignJWT("secret", &JWTClaimUser{
		UserID:       "alice",
		TokenVersion: 2,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	require.NoError(t, err)

	for name, token := range map[string]string{
		"missing":       "",
		"garbage":       "not.a.token",
		"stale version": stale,
		"unknown user":  ghost,
		"wrong secret":  forged,
		"expired":       expired,
	} {
		_, err := a.Authenticate(ctx, token)
		require.True(t, errors.Compare(err, errors.ErrUnauthorized()), "%s: %v", name, err)
	}
}

func TestTokenFromRequest(t *testing.T) {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.Set("Authorization", "Bearer abc")
	ctx.Request.SetRequestURI("/v1/socket?token=def")
	require.Equal(t, "abc", TokenFromRequest(ctx))

	ctx = &fasthttp.RequestCtx{}
	ctx.Request.SetRequestURI("/v1/socket?token=def")
	require.Equal(t, "def", TokenFromRequest(ctx))

	ctx = &fasthttp.RequestCtx{}
	ctx.Request.Header.SetCookie(COOKIE_AUTH, "ghi")
	require.Equal(t, "ghi", TokenFromRequest(ctx))
}
