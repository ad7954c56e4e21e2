package middleware

import (
	"fmt"
	"strings"

	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/seventv/common/utils"
)

func SetCacheControl(gCtx global.Context, maxAge int, args []string) rest.Middleware {
	return func(ctx *rest.Ctx) rest.APIError {
		ctx.Response.Header.Set("Cache-Control", fmt.Sprintf(
			"max-age=%d%s %s",
			maxAge,
			utils.Ternary(len(args) > 0, ",", ""),
			strings.Join(args, ", "),
		))

		return nil
	}
}

// NoStore marks responses that reflect live state.
func NoStore() rest.Middleware {
	return func(ctx *rest.Ctx) rest.APIError {
		ctx.Response.Header.Set("Cache-Control", "no-store")

		return nil
	}
}
