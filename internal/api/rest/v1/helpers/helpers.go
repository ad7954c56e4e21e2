package helpers

import (
	"os"
	"time"

	"github.com/NAKUL-XD/BitChat/data/structures"
	"github.com/NAKUL-XD/BitChat/internal/api/rest/rest"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/NAKUL-XD/BitChat/internal/svc/media"
	"github.com/seventv/common/errors"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Actor returns the authenticated user of the request.
func Actor(ctx *rest.Ctx) (structures.User, rest.APIError) {
	actor, ok := ctx.GetActor()
	if !ok {
		return actor, errors.ErrUnauthorized()
	}

	return actor, nil
}

// Mutation returns a context for a write that should finish even if the
// client hangs up.
func Mutation(gctx global.Context) (global.Context, func()) {
	timeout := time.Duration(gctx.Config().Socket.HandlerTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return global.Detached(gctx, timeout)
}

// UploadMedia stores the multipart file under field. The boolean is false
// when the request carries no such file.
func UploadMedia(gctx global.Context, ctx *rest.Ctx, field string, hint structures.ContentType) (media.Upload, bool, rest.APIError) {
	fh, err := ctx.FormFile(field)
	if err == fasthttp.ErrMissingFile {
		return media.Upload{}, false, nil
	} else if err != nil {
		return media.Upload{}, false, errors.ErrInvalidRequest().SetDetail("Malformed multipart form")
	}

	host := gctx.Inst().Media
	if host == nil {
		return media.Upload{}, false, errors.ErrInvalidRequest().SetDetail("Media uploads are disabled")
	}

	if limit := int64(gctx.Config().Media.MaxUploadSize); limit > 0 && fh.Size > limit {
		return media.Upload{}, false, errors.ErrInvalidRequest().SetDetail("File is too large")
	}

	f, err := os.CreateTemp(gctx.Config().Media.TempDir, "bitchat-upload-*")
	if err != nil {
		zap.S().Errorw("failed to create temp file for upload",
			"error", err,
		)

		return media.Upload{}, false, errors.ErrInternalServerError()
	}

	tmp := f.Name()
	_ = f.Close()

	if err := fasthttp.SaveMultipartFile(fh, tmp); err != nil {
		_ = os.Remove(tmp)

		return media.Upload{}, false, errors.ErrInvalidRequest().SetDetail("Could not read upload")
	}

	lctx, cancel := Mutation(gctx)
	defer cancel()

	up, err := host.Upload(lctx, tmp, hint)
	if err != nil {
		return media.Upload{}, false, errors.From(err)
	}

	return up, true, nil
}
