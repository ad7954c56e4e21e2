package rest

import (
	"runtime/debug"

	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/v1/routes"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/fasthttp/router"
	jsoniter "github.com/json-iterator/go"
	"github.com/seventv/common/errors"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func (s *HttpServer) V1(gCtx global.Context) {
	s.traverseRoutes(routes.New(gCtx), s.router)
}

func (s *HttpServer) SetupHandlers() {
	// Handle Not Found
	s.router.NotFound = s.getErrorHandler(
		rest.NotFound,
		errors.ErrUnknownRoute().SetFields(errors.Fields{
			"message": "The API endpoint requested does not exist",
		}),
	)

	s.router.MethodNotAllowed = s.getErrorHandler(
		rest.MethodNotAllowed,
		errors.ErrUnknownRoute().SetFields(errors.Fields{
			"message": "The API endpoint does not accept this method",
		}),
	)

	s.router.PanicHandler = func(ctx *fasthttp.RequestCtx, i interface{}) {
		err := "Uh oh. Something went horribly wrong"
		switch x := i.(type) {
		case error:
			err += ": " + x.Error()
		case string:
			err += ": " + x
		}

		zap.S().Errorw("panic occured",
			"panic", i,
			"stack", string(debug.Stack()),
		)

		s.getErrorHandler(
			rest.InternalServerError,
			errors.ErrInternalServerError().SetFields(errors.Fields{
				"panic": err,
			}),
		)(ctx)
	}
}

func (s *HttpServer) traverseRoutes(r rest.Route, parentGroup Router) {
	c := r.Config()

	// Compose the full request URI (prefixing with parent, if any)
	group := parentGroup.Group(c.URI)
	l := zap.S().With(
		"group", group,
		"method", c.Method,
	)

	// Handle requests
	group.Handle(string(c.Method), "", func(ctx *fasthttp.RequestCtx) {
		rctx := &rest.Ctx{RequestCtx: ctx}

		handlers := make([]rest.Middleware, len(c.Middleware)+1)
		copy(handlers, c.Middleware)
		handlers[len(handlers)-1] = r.Handler

		for _, h := range handlers {
			if err := h(rctx); err != nil {
				// If the request handler returned an error
				// we will format it into standard API error response
				if ctx.Response.StatusCode() < 400 {
					rctx.SetStatusCode(rest.HttpStatusCode(err.ExpectedHTTPStatus()))
				}

				resp := &rest.APIErrorResponse{
					Status:     rctx.StatusCode().String(),
					StatusCode: rctx.StatusCode(),
					Error:      err.Message(),
					ErrorCode:  err.Code(),
					Details:    err.GetFields(),
				}

				b, _ := json.Marshal(resp)
				rctx.SetContentType("application/json")
				rctx.SetBody(b)

				return
			}
		}
	})
	l.Debug("Route registered")

	// activate child routes
	for _, child := range c.Children {
		s.traverseRoutes(child, group)
	}
}

func (s *HttpServer) getErrorHandler(status rest.HttpStatusCode, err rest.APIError) func(ctx *fasthttp.RequestCtx) {
	return func(ctx *fasthttp.RequestCtx) {
		b, _ := json.Marshal(&rest.APIErrorResponse{
			Status:     status.String(),
			StatusCode: status,
			Error:      err.Message(),
			ErrorCode:  err.Code(),
			Details:    err.GetFields(),
		})
		ctx.SetStatusCode(int(status))
		ctx.SetContentType("application/json")
		ctx.SetBody(b)
	}
}

type Router interface {
	Group(path string) *router.Group
	Handle(method, path string, handler fasthttp.RequestHandler)
}
