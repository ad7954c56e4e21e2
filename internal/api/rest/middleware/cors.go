package middleware

import (
	"strconv"

	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/seventv/common/errors"
	"github.com/seventv/common/utils"
	"github.com/valyala/fasthttp"
)

// CORS echoes whitelisted origins back. An origin list containing "*" allows any origin.
func CORS(gctx global.Context) func(ctx *fasthttp.RequestCtx) errors.APIError {
	origins := gctx.Config().Http.Origins
	wildcard := utils.Contains(origins, "*")

	return func(ctx *fasthttp.RequestCtx) errors.APIError {
		reqHost := string(ctx.Request.Header.Peek("Origin"))

		allowed := reqHost != "" && (wildcard || utils.Contains(origins, reqHost))
		if !allowed {
			return nil
		}

		ctx.Response.Header.Set("Access-Control-Allow-Credentials", strconv.FormatBool(!wildcard))
		ctx.Response.Header.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Cookie")
		ctx.Response.Header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE")
		ctx.Response.Header.Set("Access-Control-Allow-Origin", reqHost)
		ctx.Response.Header.Set("Vary", "Origin")

		// cache cors
		ctx.Response.Header.Set("Access-Control-Max-Age", "7200")

		return nil
	}
}
