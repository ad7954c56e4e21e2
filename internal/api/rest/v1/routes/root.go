package routes

import (
	"strconv"
	"time"

	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/v1/routes/conversations"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/v1/routes/messages"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/v1/routes/socket"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/v1/routes/statuses"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/v1/routes/users"
	"github.com/NAKUL-XD/BitChat/internal/global"
)

var uptime = time.Now()

type Route struct {
	Ctx global.Context
}

func New(gCtx global.Context) rest.Route {
	return &Route{gCtx}
}

func (r *Route) Config() rest.RouteConfig {
	return rest.RouteConfig{
		URI:    "/v1",
		Method: rest.GET,
		Children: []rest.Route{
			socket.New(r.Ctx),
			conversations.New(r.Ctx),
			conversations.NewCreate(r.Ctx),
			messages.New(r.Ctx),
			statuses.New(r.Ctx),
			statuses.NewCreate(r.Ctx),
			users.New(r.Ctx),
		},
	}
}

func (r *Route) Handler(ctx *rest.Ctx) rest.APIError {
	online := 0
	if r.Ctx.Inst().Presences != nil {
		online = r.Ctx.Inst().Presences.Count()
	}

	return ctx.JSON(rest.OK, HealthResponse{
		Online:      true,
		Uptime:      strconv.Itoa(int(uptime.UnixMilli())),
		Connections: online,
	})
}

type HealthResponse struct {
	Online      bool   `json:"online"`
	Uptime      string `json:"uptime"`
	Connections int    `json:"connections"`
}
