package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/NAKUL-XD/BitChat/data/model"
	"github.com/NAKUL-XD/BitChat/data/store"
	"github.com/NAKUL-XD/BitChat/internal/api/rest"
	"github.com/NAKUL-XD/BitChat/internal/api/socket"
	"github.com/NAKUL-XD/BitChat/internal/configure"
	"github.com/NAKUL-XD/BitChat/internal/global"
	"github.com/NAKUL-XD/BitChat/internal/health"
	"github.com/NAKUL-XD/BitChat/internal/monitoring"
	"github.com/NAKUL-XD/BitChat/internal/pprof"
	"github.com/NAKUL-XD/BitChat/internal/svc/auth"
	"github.com/NAKUL-XD/BitChat/internal/svc/dispatch"
	"github.com/NAKUL-XD/BitChat/internal/svc/events"
	"github.com/NAKUL-XD/BitChat/internal/svc/limiter"
	"github.com/NAKUL-XD/BitChat/internal/svc/media"
	"github.com/NAKUL-XD/BitChat/internal/svc/presences"
	"github.com/NAKUL-XD/BitChat/internal/svc/prometheus"
	"github.com/NAKUL-XD/BitChat/internal/svc/reconciler"
	"github.com/NAKUL-XD/BitChat/internal/svc/s3"
	"github.com/NAKUL-XD/BitChat/internal/svc/typing"
	"github.com/bugsnag/panicwrap"
	"go.uber.org/zap"
)

var (
	Version = "development"
	Unix    = ""
	Time    = "unknown"
	User    = "unknown"
)

func init() {
	if i, err := strconv.Atoi(Unix); err == nil {
		Time = time.Unix(int64(i), 0).Format(time.RFC3339)
	}
}

func main() {
	config := configure.New()

	exitStatus, err := panicwrap.BasicWrap(func(s string) {
		zap.S().Errorw("panic detected",
			"panic", s,
		)
	})
	if err != nil {
		zap.S().Errorw("failed to setup panic handler",
			"error", err,
		)
		os.Exit(2)
	}

	if exitStatus >= 0 {
		os.Exit(exitStatus)
	}

	if !config.NoHeader {
		zap.S().Info("BitChat")
		zap.S().Infof("Version: %s", Version)
		zap.S().Infof("build.Time: %s", Time)
		zap.S().Infof("build.User: %s", User)
	}

	zap.S().Debugf("MaxProcs: %d", runtime.GOMAXPROCS(0))

	if config.Credentials.JWTSecret == "" {
		zap.S().Fatal("credentials.jwt_secret must be set")
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	gCtx, cancel := global.WithCancel(global.New(context.Background(), config))

	{
		switch config.Store.Kind {
		case configure.StoreKindMemory:
			zap.S().Warn("using the in-memory store, nothing will be persisted")

			gCtx.Inst().Store = store.NewMemory()
		default:
			ctx, cancel := context.WithTimeout(gCtx, time.Second*15)
			gCtx.Inst().Store, err = store.NewMongo(ctx, store.MongoOptions{
				URI:      config.Mongo.URI,
				Username: config.Mongo.Username,
				Password: config.Mongo.Password,
				DB:       config.Mongo.DB,
				Direct:   config.Mongo.Direct,
			})
			cancel()

			if err != nil {
				zap.S().Fatalw("failed to setup mongo handler",
					"error", err,
				)
			}
		}
	}

	{
		if config.NATS.Enabled {
			gCtx.Inst().Events, err = events.New(gCtx, events.Options{
				URL:    config.NATS.URL,
				Prefix: config.NATS.Subject,
				Name:   "bitchat",
			})
			if err != nil {
				zap.S().Fatalw("failed to setup nats handler",
					"error", err,
				)
			}
		} else {
			gCtx.Inst().Events = events.NewNoop()
		}
	}

	if config.S3.Enabled {
		gCtx.Inst().S3, err = s3.New(gCtx, s3.Options{
			Region:      config.S3.Region,
			Endpoint:    config.S3.Endpoint,
			AccessToken: config.S3.AccessToken,
			SecretKey:   config.S3.SecretKey,
		})
		if err != nil {
			zap.S().Fatalw("failed to setup s3 handler",
				"error", err,
			)
		}

		gCtx.Inst().Media = media.New(media.Options{
			Uploader:  gCtx.Inst().S3,
			Bucket:    config.S3.Bucket,
			Namespace: config.S3.Namespace,
			MaxSize:   int64(config.Media.MaxUploadSize),
		})
	}

	{
		gCtx.Inst().Prometheus = prometheus.New(prometheus.Options{
			Labels: config.Monitoring.Labels.ToPrometheus(),
		})

		gCtx.Inst().Limiter = limiter.New(limiter.Options{
			Rate:  config.Socket.EventsPerSecond,
			Burst: config.Socket.EventBurst,
		})

		gCtx.Inst().Modelizer = model.NewInstance(model.ModelInstanceOptions{
			MediaURL: config.Media.PublicURL,
		})

		gCtx.Inst().Auth = auth.New(auth.AuthorizerOptions{
			JWTSecret: config.Credentials.JWTSecret,
			Store:     gCtx.Inst().Store,
		})
	}

	{
		inst := gCtx.Inst()

		inst.Reconciler = reconciler.New(reconciler.Options{
			Store:     inst.Store,
			Modelizer: inst.Modelizer,
			Events:    inst.Events,
			StatusTTL: config.StatusTTL(),
		})

		inst.Presences = presences.New(presences.Options{
			Sink: inst.Reconciler,
		})

		inst.Typing = typing.New(typing.Options{
			Expiry: config.TypingExpiry(),
			Notify: dispatch.TypingNotifier(inst.Presences, inst.Prometheus),
		})

		inst.Dispatch = dispatch.New(dispatch.Options{
			Presences:  inst.Presences,
			Typing:     inst.Typing,
			Reconciler: inst.Reconciler,
			Metrics:    inst.Prometheus,
		})
	}

	wg := sync.WaitGroup{}

	if gCtx.Config().Health.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-health.New(gCtx)
		}()
	}

	if gCtx.Config().Monitoring.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-monitoring.New(gCtx)
		}()
	}

	if gCtx.Config().PProf.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-pprof.New(gCtx)
		}()
	}

	done := make(chan struct{})
	go func() {
		<-sig
		cancel()
		go func() {
			select {
			case <-time.After(time.Minute):
			case <-sig:
			}
			zap.S().Fatal("force shutdown")
		}()

		zap.S().Info("shutting down")

		wg.Wait()

		close(done)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := rest.New(gCtx); err != nil {
			zap.S().Fatalw("rest failed",
				"error", err,
			)
		}
	}()

	zap.S().Info("running")

	<-done

	sCtx, sCancel := context.WithTimeout(context.Background(), time.Second*10)

	if err := socket.Drain(sCtx); err != nil {
		zap.S().Warnw("sessions did not close in time",
			"error", err,
		)
	}

	if err := gCtx.Inst().Presences.Close(sCtx); err != nil {
		zap.S().Warnw("failed to flush presence updates",
			"error", err,
		)
	}

	gCtx.Inst().Events.Close()

	if err := gCtx.Inst().Store.Close(sCtx); err != nil {
		zap.S().Warnw("failed to close store",
			"error", err,
		)
	}

	sCancel()

	zap.S().Info("shutdown")
	os.Exit(0)
}
