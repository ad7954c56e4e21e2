// Package socket serves the realtime chat connection.
package socket

import (
	"github.com/NAKUL-XD/BitChat/data/events"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/NAKUL-XD/BitChat/internal/svc/auth"
	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var upgrader = websocket.FastHTTPUpgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
		return true
	},
}

// IsUpgrade reports whether the request asks for a websocket.
func IsUpgrade(ctx *fasthttp.RequestCtx) bool {
	return websocket.FastHTTPIsWebSocketUpgrade(ctx)
}

// Serve upgrades the request and runs a session on it. The credential is
// read before the upgrade and checked right after it, so a rejected client
// gets an authentication-failure close frame.
func Serve(gCtx global.Context, ctx *fasthttp.RequestCtx) error {
	token := auth.TokenFromRequest(ctx)

	return upgrader.Upgrade(ctx, func(ws *websocket.Conn) {
		s := NewSession(gCtx, ws)

		lCtx, cancel := global.Detached(gCtx, s.handlerTimeout)
		user, err := gCtx.Inst().Auth.Authenticate(lCtx, token)
		cancel()

		if err != nil {
			s.log.Debugw("socket authentication failed",
				"error", err,
			)
			s.Close(int(events.CloseCodeAuthFailure), events.CloseCodeAuthFailure.String())
			s.Teardown()

			return
		}

		s.Authenticate(user)

		zap.S().Debugw("socket connected",
			"session_id", s.ID(),
			"user_id", user.ID,
		)

		s.Run()
	})
}
