package statuses

import (
	"github.com/NAKUL-XD/BitChat/internal/api/rest/middleware"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/v1/helpers"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/seventv/common/errors"
)

type viewRoute struct {
	Ctx global.Context
}

func newView(gctx global.Context) rest.Route {
	return &viewRoute{gctx}
}

func (r *viewRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/{status.id}/view",
		Method: rest.PUT,
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx, true),
		},
	}
}

func (r *viewRoute) Handler(ctx *rest.Ctx) rest.APIError {
	actor, apiErr := helpers.Actor(ctx)
	if apiErr != nil {
		return apiErr
	}

	lctx, cancel := helpers.Mutation(r.Ctx)
	defer cancel()

	status, err := r.Ctx.Inst().Dispatch.ViewStatus(lctx, actor.ID, ctx.Param("status.id"))
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, status)
}
