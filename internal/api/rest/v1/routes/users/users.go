package users

import (
	"github.com/NAKUL-XD/BitChat/internal/api/rest/middleware"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/v1/helpers"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/seventv/common/errors"
)

type Route struct {
	Ctx global.Context
}

func New(gCtx global.Context) rest.Route {
	return &Route{gCtx}
}

func (r *Route) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/users",
		Method: rest.GET,
		Children: []rest.Route{
			newMe(r.Ctx),
			newStatus(r.Ctx),
		},
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx, true),
			middleware.NoStore(),
		},
	}
}

// Handler lists every other user along with the caller's conversation with
// them and its unread count.
func (r *Route) Handler(ctx *rest.Ctx) rest.APIError {
	actor, apiErr := helpers.Actor(ctx)
	if apiErr != nil {
		return apiErr
	}

	list, err := r.Ctx.Inst().Dispatch.Users(ctx, actor.ID)
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, list)
}
