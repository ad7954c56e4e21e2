package messages

import (
	"github.com/NAKUL-XD/BitChat/internal/api/rest/middleware"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/v1/helpers"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/seventv/common/errors"
)

type deleteRoute struct {
	Ctx global.Context
}

func newDelete(gctx global.Context) rest.Route {
	return &deleteRoute{gctx}
}

func (r *deleteRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/{message.id}",
		Method: rest.DELETE,
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx, true),
		},
	}
}

// Handler deletes one of the caller's own messages.
func (r *deleteRoute) Handler(ctx *rest.Ctx) rest.APIError {
	actor, apiErr := helpers.Actor(ctx)
	if apiErr != nil {
		return apiErr
	}

	lctx, cancel := helpers.Mutation(r.Ctx)
	defer cancel()

	if err := r.Ctx.Inst().Dispatch.DeleteMessage(lctx, actor.ID, ctx.Param("message.id")); err != nil {
		return errors.From(err)
	}

	ctx.SetStatusCode(rest.NoContent)

	return nil
}
