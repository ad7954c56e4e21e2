package users

import (
	"github.com/NAKUL-XD/BitChat/internal/api/rest/middleware"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/seventv/common/errors"
)

type statusRoute struct {
	Ctx global.Context
}

func newStatus(gctx global.Context) rest.Route {
	return &statusRoute{gctx}
}

func (r *statusRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/{user.id}/status",
		Method: rest.GET,
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx, true),
			middleware.NoStore(),
		},
	}
}

// Handler reports whether a user is online right now, with the last seen
// time when they are not.
func (r *statusRoute) Handler(ctx *rest.Ctx) rest.APIError {
	status, err := r.Ctx.Inst().Dispatch.UserStatus(ctx, ctx.Param("user.id"))
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, status)
}
