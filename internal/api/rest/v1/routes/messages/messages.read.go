package messages

import (
	"github.com/NAKUL-XD/BitChat/data/events"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/middleware"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/v1/helpers"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/seventv/common/errors"
)

type readRoute struct {
	Ctx global.Context
}

func newRead(gctx global.Context) rest.Route {
	return &readRoute{gctx}
}

func (r *readRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/read",
		Method: rest.PUT,
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx, true),
		},
	}
}

// Handler marks messages addressed to the caller as read and returns the ones that changed.
func (r *readRoute) Handler(ctx *rest.Ctx) rest.APIError {
	actor, apiErr := helpers.Actor(ctx)
	if apiErr != nil {
		return apiErr
	}

	var body events.MarkReadPayload
	if apiErr := ctx.Bind(&body); apiErr != nil {
		return apiErr
	}

	if body.Identity != "" && body.Identity != actor.ID {
		return errors.ErrInsufficientPrivilege().SetDetail("Cannot act as another user")
	}

	lctx, cancel := helpers.Mutation(r.Ctx)
	defer cancel()

	list, err := r.Ctx.Inst().Dispatch.MarkRead(lctx, actor.ID, body.MessageIDs)
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, list)
}
