package conversations

import (
	"github.com/NAKUL-XD/BitChat/internal/api/rest/middleware"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/v1/helpers"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/seventv/common/errors"
)

type createRoute struct {
	Ctx global.Context
}

func NewCreate(gctx global.Context) rest.Route {
	return &createRoute{gctx}
}

func (r *createRoute) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/conversations",
		Method: rest.POST,
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx, true),
			middleware.RateLimit(r.Ctx, "rest:conversations"),
		},
	}
}

type createConversationBody struct {
	ReceiverID string `json:"receiverId"`
}

// Handler opens the conversation between the caller and receiverId. Opening
// an existing pair returns it unchanged.
func (r *createRoute) Handler(ctx *rest.Ctx) rest.APIError {
	actor, apiErr := helpers.Actor(ctx)
	if apiErr != nil {
		return apiErr
	}

	var body createConversationBody
	if apiErr := ctx.Bind(&body); apiErr != nil {
		return apiErr
	}

	if body.ReceiverID == "" {
		return errors.ErrMissingRequiredField().SetDetail("receiverId")
	}

	lctx, cancel := helpers.Mutation(r.Ctx)
	defer cancel()

	conv, err := r.Ctx.Inst().Dispatch.OpenConversation(lctx, actor.ID, body.ReceiverID)
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, conv)
}
