package auth

import (
	"context"
	goerrors "errors"
	"strings"
	"time"

	"github.com/NAKUL-XD/BitChat/data/store"
	"github.com/NAKUL-XD/BitChat/data/structures"
	"github.com/golang-jwt/jwt/v4"
	"github.com/seventv/common/errors"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	COOKIE_AUTH = "auth_token"

	accessTokenLifetime = time.Hour * 24 * 365
)

// Authorizer is the credential service: it issues and checks bearer tokens.
type Authorizer interface {
	SignJWT(secret string, claim jwt.Claims) (string, error)
	VerifyJWT(token []string, out jwt.Claims) (*jwt.Token, error)
	CreateAccessToken(userID string, version float64) (string, time.Time, error)
	// Authenticate resolves a bearer token to the user it was issued to.
	Authenticate(ctx context.Context, token string) (structures.User, error)
}

type authorizer struct {
	JWTSecret string
	Store     store.Store
	Issuer    string
}

type AuthorizerOptions struct {
	JWTSecret string
	Store     store.Store
	Issuer    string
}

func New(opt AuthorizerOptions) Authorizer {
	if opt.Issuer == "" {
		opt.Issuer = "bitchat"
	}

	return &authorizer{
		JWTSecret: opt.JWTSecret,
		Store:     opt.Store,
		Issuer:    opt.Issuer,
	}
}

func (a *authorizer) CreateAccessToken(userID string, version float64) (string, time.Time, error) {
	expireAt := time.Now().Add(accessTokenLifetime)

	token, err := a.SignJWT(a.JWTSecret, &JWTClaimUser{
		UserID:       userID,
		TokenVersion: version,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.Issuer,
			ExpiresAt: &jwt.NumericDate{Time: expireAt},
			NotBefore: &jwt.NumericDate{Time: time.Now()},
			IssuedAt:  &jwt.NumericDate{Time: time.Now()},
		},
	})
	if err != nil {
		zap.S().Errorw("access_token, sign",
			"error", err,
			"target_id", userID,
		)

		return "", time.Time{}, err
	}

	return token, expireAt, nil
}

func (a *authorizer) Authenticate(ctx context.Context, token string) (structures.User, error) {
	if token == "" {
		return structures.User{}, errors.ErrUnauthorized().SetDetail("Authentication token missing")
	}

	claims := &JWTClaimUser{}

	if _, err := a.VerifyJWT(strings.Split(token, "."), claims); err != nil {
		return structures.User{}, errors.ErrUnauthorized().SetDetail(err.Error())
	}

	if claims.UserID == "" {
		return structures.User{}, errors.ErrUnauthorized().SetDetail("Bad Token")
	}

	user, err := a.Store.GetUser(ctx, claims.UserID)
	if err != nil {
		if goerrors.Is(err, store.ErrNotFound) {
			return structures.User{}, errors.ErrUnauthorized().SetDetail("Unknown User")
		}

		return structures.User{}, errors.ErrInternalServerError().SetDetail(err.Error())
	}

	if user.TokenVersion != claims.TokenVersion {
		return structures.User{}, errors.ErrUnauthorized().SetDetail("Token Version Mismatch")
	}

	return user, nil
}

// TokenFromRequest reads the bearer token from the Authorization header,
// the token query parameter or the auth cookie, in that order. The result
// is a copy and stays valid after the request is released.
func TokenFromRequest(ctx *fasthttp.RequestCtx) string {
	if h := string(ctx.Request.Header.Peek("Authorization")); h != "" {
		s := strings.SplitN(h, " ", 2)
		if len(s) == 2 && strings.EqualFold(s[0], "Bearer") {
			return strings.TrimSpace(s[1])
		}
	}

	if t := string(ctx.QueryArgs().Peek("token")); t != "" {
		return t
	}

	return string(ctx.Request.Header.Cookie(COOKIE_AUTH))
}
