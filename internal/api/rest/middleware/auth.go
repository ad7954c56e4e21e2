package middleware

import (
	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/NAKUL-XD/BitChat/internal/svc/auth"
	"github.com/seventv/common/errors"
)

func Auth(gCtx global.Context, required bool) rest.Middleware {
	return func(ctx *rest.Ctx) rest.APIError {
		t := auth.TokenFromRequest(ctx.RequestCtx)
		if t == "" {
			if !required {
				return nil
			}

			return errors.ErrUnauthorized().SetFields(errors.Fields{"message": "Missing credentials"})
		}

		user, err := gCtx.Inst().Auth.Authenticate(ctx, t)
		if err != nil {
			if !required {
				return nil
			}

			if apiErr, ok := err.(errors.APIError); ok {
				return apiErr
			}

			return errors.ErrUnauthorized()
		}

		ctx.SetActor(user)

		return nil
	}
}
