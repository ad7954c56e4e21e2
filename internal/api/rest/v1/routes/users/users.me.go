package users

import (
	"github.com/NAKUL-XD/BitChat/internal/api/rest/middleware"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/v1/helpers"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/seventv/common/errors"
)

type meRoute struct {
	Ctx global.Context
}

func newMe(gctx global.Context) rest.Route {
	return &meRoute{gctx}
}

func (r *meRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/me",
		Method: rest.GET,
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx, true),
			middleware.NoStore(),
		},
	}
}

func (r *meRoute) Handler(ctx *rest.Ctx) rest.APIError {
	actor, apiErr := helpers.Actor(ctx)
	if apiErr != nil {
		return apiErr
	}

	me, err := r.Ctx.Inst().Dispatch.Me(ctx, actor.ID)
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, me)
}
