package health

import (
	"context"
	"fmt"
	"time"

	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/valyala/fasthttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// check pings every configured dependency and combines what failed.
func check(gCtx global.Context) error {
	var err error

	if gCtx.Inst().Events != nil && !gCtx.Inst().Events.Connected() {
		err = multierr.Append(err, fmt.Errorf("nats is not connected"))
	}

	if gCtx.Inst().S3 != nil {
		lCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		if _, e := gCtx.Inst().S3.ListBuckets(lCtx); e != nil {
			err = multierr.Append(err, fmt.Errorf("s3 is not responding: %w", e))
		}
		cancel()
	}

	if gCtx.Inst().Store != nil {
		lCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		if e := gCtx.Inst().Store.Ping(lCtx); e != nil {
			err = multierr.Append(err, fmt.Errorf("store is not responding: %w", e))
		}
		cancel()
	}

	return err
}

func New(gCtx global.Context) <-chan struct{} {
	done := make(chan struct{})

	srv := fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			defer func() {
				if err := recover(); err != nil {
					zap.S().Errorw("panic in health",
						"panic", err,
					)
				}
			}()

			if err := check(gCtx); err != nil {
				zap.S().Warnw("unhealthy",
					"errors", multierr.Errors(err),
				)

				ctx.SetStatusCode(500)
			}
		},
	}

	go func() {
		defer close(done)
		zap.S().Infow("Health enabled",
			"bind", gCtx.Config().Health.Bind,
		)
		if err := srv.ListenAndServe(gCtx.Config().Health.Bind); err != nil {
			zap.S().Fatalw("failed to bind health",
				"error", err,
			)
		}
	}()

	go func() {
		<-gCtx.Done()
		_ = srv.Shutdown()
	}()

	return done
}
