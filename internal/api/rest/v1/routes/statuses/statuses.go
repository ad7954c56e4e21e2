package statuses

import (
	"github.com/NAKUL-XD/BitChat/internal/api/rest/middleware"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
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
		URI:    "/statuses",
		Method: rest.GET,
		Children: []rest.Route{
			newView(r.Ctx),
			newDelete(r.Ctx),
		},
		Middleware: []rest.Middleware{
			middleware.Auth(r.Ctx, true),
			middleware.NoStore(),
		},
	}
}

// Handler lists every status post that has not expired yet.
func (r *Route) Handler(ctx *rest.Ctx) rest.APIError {
	list, err := r.Ctx.Inst().Reconciler.Statuses(ctx)
	if err != nil {
		return errors.From(err)
	}

	return ctx.JSON(rest.OK, list)
}
