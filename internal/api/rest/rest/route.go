package rest

import (
	"github.com/fasthttp/router"
)

type Route interface {
	Config() RouteConfig
	Handler(ctx *Ctx) APIError
}

type Router = router.Router

type RouteConfig struct {
	URI        string
	Method     RouteMethod
	Children   []Route
	Middleware []Middleware
}

type RouteMethod string

const (
	GET    RouteMethod = "GET"
	POST   RouteMethod = "POST"
	PUT    RouteMethod = "PUT"
	DELETE RouteMethod = "DELETE"
)

type Middleware = func(ctx *Ctx) APIError

type APIErrorResponse struct {
	StatusCode HttpStatusCode `json:"status_code"`
	Status     string         `json:"status"`
	Error      string         `json:"error"`
	ErrorCode  int            `json:"error_code"`
	Details    map[string]any `json:"details,omitempty"`
}

type HttpStatusCode int

const (
	OK        HttpStatusCode = 200
	Created   HttpStatusCode = 201
	NoContent HttpStatusCode = 204

	BadRequest          HttpStatusCode = 400
	Unauthorized        HttpStatusCode = 401
	Forbidden           HttpStatusCode = 403
	NotFound            HttpStatusCode = 404
	MethodNotAllowed    HttpStatusCode = 405
	Conflict            HttpStatusCode = 409
	PayloadTooLarge     HttpStatusCode = 413
	TooManyRequests     HttpStatusCode = 429
	InternalServerError HttpStatusCode = 500
	ServiceUnavailable  HttpStatusCode = 503
)

// String: return the http status code in text form
func (c HttpStatusCode) String() string {
	return codeTextMap[c]
}

var codeTextMap = map[HttpStatusCode]string{
	OK:                  "OK",
	Created:             "Created",
	NoContent:           "No Content",
	BadRequest:          "Bad Request",
	Unauthorized:        "Unauthorized",
	Forbidden:           "Forbidden",
	NotFound:            "Not Found",
	MethodNotAllowed:    "Method Not Allowed",
	Conflict:            "Conflict",
	PayloadTooLarge:     "Payload Too Large",
	TooManyRequests:     "Too Many Requests",
	InternalServerError: "Internal Server Error",
	ServiceUnavailable:  "Service Unavailable",
}
