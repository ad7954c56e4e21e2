package pprof

import (
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/pprofhandler"
	"go.uber.org/zap"
)

// New serves the runtime profiles under /debug/pprof until gCtx is done.
func New(gCtx global.Context) <-chan struct{} {
	done := make(chan struct{})

	srv := fasthttp.Server{
		Handler: pprofhandler.PprofHandler,
		GetOnly: true,
	}

	go func() {
		defer close(done)

		zap.S().Infow("pprof enabled",
			"bind", gCtx.Config().PProf.Bind,
		)

		if err := srv.ListenAndServe(gCtx.Config().PProf.Bind); err != nil {
			zap.S().Fatalw("pprof failed to listen",
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
