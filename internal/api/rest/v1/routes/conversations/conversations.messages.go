package conversations

import (
	"github.com/NAKUL-XD/BitChat/internal/api/rest/middleware"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/v1/helpers"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/seventv/common/errors"
)

type messagesRoute struct {
	Ctx global.Context
}

func newMessages(gctx global.Context) rest.Route {
	return &messagesRoute{gctx}
}

func (r *messagesRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/{conversation.id}/messages",
		Method: rest.GET,
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx, true),
			middleware.NoStore(),
		},
	}
}

// Handler lists the messages of a conversation the caller takes part in.
// Fetching does not mark anything read.
func (r *messagesRoute) Handler(ctx *rest.Ctx) rest.APIError {
	actor, apiErr := helpers.Actor(ctx)
	if apiErr != nil {
		return apiErr
	}

	list, err := r.Ctx.Inst().Reconciler.Messages(ctx, actor.ID, ctx.Param("conversation.id"))
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, list)
}
