// Package rest serves the HTTP surface of the chat service, the websocket
// upgrade included.
package rest

import (
	"fmt"
	"net"
	"time"

	"github.com/NAKUL-XD/BitChat/internal/api/rest/middleware"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/fasthttp/router"
	"github.com/seventv/common/utils"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type HttpServer struct {
	router  *router.Router
	handler fasthttp.RequestHandler
}

func newServer(gctx global.Context) *HttpServer {
	s := &HttpServer{
		router: router.New(),
	}

	// Add versions
	s.SetupHandlers()
	s.V1(gctx)

	doCORS := middleware.CORS(gctx)

	s.handler = func(ctx *fasthttp.RequestCtx) {
		start := time.Now()

		// Add client IP to context
		ip := utils.B2S(ctx.Request.Header.Peek("Cf-Connecting-IP"))
		if ip == "" {
			ip = ctx.RemoteIP().String()
		}

		ctx.SetUserValue(string(rest.ClientIPKey), ip)

		defer func() {
			if err := recover(); err != nil {
				zap.S().Errorw("panic in rest request handler",
					"panic", err,
					"status", ctx.Response.StatusCode(),
					"duration", int(time.Since(start)/time.Millisecond),
					"method", utils.B2S(ctx.Method()),
					"path", utils.B2S(ctx.Path()),
					"ip", ip,
				)
			} else {
				mills := time.Since(start) / time.Millisecond
				status := ctx.Response.StatusCode()

				logFn := zap.S().Debugw
				if mills >= 500 {
					logFn = zap.S().Infow
				}
				if status >= 500 {
					logFn = zap.S().Errorw
				}

				logFn("rest request",
					"status", status,
					"duration", int(mills),
					"method", utils.B2S(ctx.Method()),
					"path", utils.B2S(ctx.Path()),
					"ip", ip,
					"origin", utils.B2S(ctx.Request.Header.Peek("Origin")),
				)
			}
		}()

		if err := doCORS(ctx); err != nil {
			return
		}

		if ctx.IsOptions() {
			ctx.SetStatusCode(fasthttp.StatusNoContent)
			return
		}

		// Routing
		ctx.Response.Header.Set("Content-Type", "application/json") // default to JSON

		s.router.Handler(ctx)
	}

	return s
}

func New(gctx global.Context) error {
	port := gctx.Config().Http.Port
	if port == 0 {
		port = 80
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", gctx.Config().Http.Addr, port))
	if err != nil {
		return err
	}

	s := newServer(gctx)

	srv := &fasthttp.Server{
		Handler:                      s.handler,
		ReadTimeout:                  time.Second * 600,
		IdleTimeout:                  time.Second * 10,
		ReadBufferSize:               int(32 * 1024), // 32KB
		MaxRequestBodySize:           gctx.Config().Media.MaxUploadSize + 1024*1024,
		DisablePreParseMultipartForm: true,
		CloseOnShutdown:              true,
	}

	// Gracefully exit when the global context is canceled
	go func() {
		<-gctx.Done()

		_ = srv.Shutdown()
	}()

	return srv.Serve(listener)
}
