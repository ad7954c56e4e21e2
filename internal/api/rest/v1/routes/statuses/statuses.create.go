package statuses

import (
	"github.com/NAKUL-XD/BitChat/data/structures"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/middleware"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/v1/helpers"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/NAKUL-XD/BitChat/internal/svc/reconciler"
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
		URI:    "/statuses",
		Method: rest.POST,
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx, true),
			middleware.RateLimit(r.Ctx, "rest:statuses"),
		},
	}
}

type createStatusBody struct {
	Content     string                 `json:"content"`
	MediaRef    string                 `json:"mediaRef"`
	ContentType structures.ContentType `json:"contentType"`
}

// Handler posts a status for the caller, as JSON or as a multipart form with a "media" file.
func (r *createRoute) Handler(ctx *rest.Ctx) rest.APIError {
	actor, apiErr := helpers.Actor(ctx)
	if apiErr != nil {
		return apiErr
	}

	var body createStatusBody

	if ctx.IsMultipart() {
		body = createStatusBody{
			Content:     string(ctx.FormValue("content")),
			ContentType: structures.ContentType(ctx.FormValue("contentType")),
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

	lctx, cancel := helpers.Mutation(r.Ctx)
	defer cancel()

	status, err := r.Ctx.Inst().Dispatch.CreateStatus(lctx, reconciler.CreateStatusRequest{
		OwnerID:     actor.ID,
		Content:     body.Content,
		MediaURL:    body.MediaRef,
		ContentType: body.ContentType,
	})
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.Created, status)
}
