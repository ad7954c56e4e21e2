package messages

import (
	"github.com/NAKUL-XD/BitChat/data/events"
	"github.com/NAKUL-XD/BitChat/data/structures"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/middleware"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/v1/helpers"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/NAKUL-XD/BitChat/internal/svc/reconciler"
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
		URI:    "/messages",
		Method: rest.POST,
		Children: []rest.Route{
			newRead(r.Ctx),
			newDelete(r.Ctx),
		},
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx, true),
			middleware.RateLimit(r.Ctx, "rest:messages"),
		},
	}
}

// Handler sends a message. The body is either JSON or a multipart form
// with an optional "media" file; both go through the same path as the
// socket event.
func (r *Route) Handler(ctx *rest.Ctx) rest.APIError {
	actor, apiErr := helpers.Actor(ctx)
	if apiErr != nil {
		return apiErr
	}

	var body events.SendMessagePayload

	if ctx.IsMultipart() {
		body = events.SendMessagePayload{
			SenderID:       string(ctx.FormValue("senderId")),
			ReceiverID:     string(ctx.FormValue("receiverId")),
			ConversationID: string(ctx.FormValue("conversationId")),
			Content:        string(ctx.FormValue("content")),
			ContentType:    structures.ContentType(ctx.FormValue("contentType")),
		}

		up, ok, apiErr := helpers.UploadMedia(r.Ctx, ctx, "media", body.ContentType)
		if apiErr != nil {
			return apiErr
		}

		if ok {
			body.MediaRef = up.Key
			body.ContentType = up.ContentType
		}
	} else if apiErr := ctx.Bind(&body); apiErr != nil {
		return apiErr
	}

	if body.SenderID != "" && body.SenderID != actor.ID {
		return errors.ErrInsufficientPrivilege().SetDetail("Cannot act as another user")
	}

	lctx, cancel := helpers.Mutation(r.Ctx)
	defer cancel()

	msg, err := r.Ctx.Inst().Dispatch.SendMessage(lctx, reconciler.SendMessageRequest{
		SenderID:       actor.ID,
		ReceiverID:     body.ReceiverID,
		ConversationID: body.ConversationID,
		Content:        body.Content,
		MediaURL:       body.MediaRef,
		ContentType:    body.ContentType,
	})
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.Created, msg)
}
