package socket

import (
	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	ws "github.com/NAKUL-XD/BitChat/internal/api/socket"
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
		URI:    "/socket",
		Method: rest.GET,
	}
}

// Credentials are checked after the upgrade so the client receives a
// close code it can act on.
func (r *Route) Handler(ctx *rest.Ctx) rest.APIError {
	if !ws.IsUpgrade(ctx.RequestCtx) {
		return errors.ErrInvalidRequest().SetDetail("Expected a websocket upgrade")
	}

	if err := ws.Serve(r.Ctx, ctx.RequestCtx); err != nil {
		ctx.Log().Debugw("websocket upgrade failed",
			"error", err,
		)

		return errors.ErrInvalidRequest().SetDetail("Websocket upgrade failed")
	}

	return nil
}
