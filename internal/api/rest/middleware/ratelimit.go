package middleware

import (
	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/seventv/common/errors"
)

// RateLimit applies the shared token bucket of the caller, keyed by actor or client ip.
func RateLimit(gctx global.Context, bucket string) rest.Middleware {
	return func(ctx *rest.Ctx) rest.APIError {
		if gctx.Inst().Limiter == nil {
			return nil
		}

		identifier, _ := ctx.UserValue(string(rest.ClientIPKey)).(string)

		actor, ok := ctx.GetActor()
		if ok {
			identifier = actor.ID
		}

		if identifier == "" {
			return nil
		}

		if !gctx.Inst().Limiter.Allow(bucket + ":" + identifier) {
			return errors.ErrRateLimited()
		}

		return nil
	}
}
