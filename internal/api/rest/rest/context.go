package rest

import (
	"bytes"

	"github.com/NAKUL-XD/BitChat/data/structures"
	jsoniter "github.com/json-iterator/go"
	"github.com/seventv/common/errors"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Ctx struct {
	*fasthttp.RequestCtx
}

type APIError = errors.APIError

func (c *Ctx) JSON(status HttpStatusCode, v interface{}) APIError {
	b, err := json.Marshal(v)
	if err != nil {
		c.SetStatusCode(InternalServerError)

		return errors.ErrInternalServerError().
			SetDetail("JSON Parsing Failed").
			SetFields(errors.Fields{"JSON_ERROR": err.Error()})
	}

	c.SetStatusCode(status)
	c.SetContentType("application/json")
	c.SetBody(b)

	return nil
}

// Bind decodes the JSON request body into v.
func (c *Ctx) Bind(v any) APIError {
	body := c.PostBody()
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.ErrInvalidRequest().SetDetail("Empty request body")
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.ErrInvalidRequest().SetDetail("Malformed request body")
	}

	return nil
}

// IsMultipart reports whether the request carries a multipart form.
func (c *Ctx) IsMultipart() bool {
	return bytes.HasPrefix(c.Request.Header.ContentType(), []byte("multipart/form-data"))
}

func (c *Ctx) SetStatusCode(code HttpStatusCode) {
	c.RequestCtx.SetStatusCode(int(code))
}

func (c *Ctx) StatusCode() HttpStatusCode {
	return HttpStatusCode(c.RequestCtx.Response.StatusCode())
}

// Set the current authenticated user
func (c *Ctx) SetActor(u structures.User) {
	c.SetUserValue(string(UserKey), u)
}

// Get the current authenticated user
func (c *Ctx) GetActor() (structures.User, bool) {
	v := c.RequestCtx.UserValue(string(UserKey))
	switch v := v.(type) {
	case structures.User:
		return v, true
	default:
		return structures.DeletedUser, false
	}
}

// Param returns a path parameter, empty when absent.
func (c *Ctx) Param(key string) string {
	s, _ := c.RequestCtx.UserValue(key).(string)

	return s
}

func (c *Ctx) Log() *zap.SugaredLogger {
	z := zap.S().Named("api/rest").With(
		"request_id", c.ID(),
		"route", string(c.Path()),
	)

	actor, ok := c.GetActor()
	if ok {
		z = z.With("actor_id", actor.ID)
	}

	return z
}
