package instance

import (
	"github.com/NAKUL-XD/BitChat/data/model"
	"github.com/NAKUL-XD/BitChat/data/store"
	"github.com/NAKUL-XD/BitChat/internal/svc/auth"
	"github.com/NAKUL-XD/BitChat/internal/svc/dispatch"
	"github.com/NAKUL-XD/BitChat/internal/svc/events"
	"github.com/NAKUL-XD/BitChat/internal/svc/limiter"
	"github.com/NAKUL-XD/BitChat/internal/svc/media"
	"github.com/NAKUL-XD/BitChat/internal/svc/presences"
	"github.com/NAKUL-XD/BitChat/internal/svc/prometheus"
	"github.com/NAKUL-XD/BitChat/internal/svc/reconciler"
	"github.com/NAKUL-XD/BitChat/internal/svc/typing"
)

type Instances struct {
	Store      store.Store
	Auth       auth.Authorizer
	S3         S3
	Media      media.Host
	Events     events.Instance
	Prometheus prometheus.Instance
	Limiter    limiter.Instance
	Modelizer  model.Modelizer

	Presences  presences.Instance
	Typing     typing.Instance
	Reconciler reconciler.Instance
	Dispatch   dispatch.Instance
}
