package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Instance interface {
	Register(r prometheus.Registerer)

	ConnectionOpened()
	ConnectionClosed()
	EventReceived(event string)
	EventFailed(event string)
	PushSent(event string)
	PushDropped(event string)
	SetOnline(n int)
}

type Options struct {
	Labels prometheus.Labels
}

type inst struct {
	connections   prometheus.Gauge
	online        prometheus.Gauge
	eventsIn      *prometheus.CounterVec
	eventsFailed  *prometheus.CounterVec
	pushes        *prometheus.CounterVec
	pushesDropped *prometheus.CounterVec
}

func New(o Options) Instance {
	return &inst{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "bitchat_socket_connections",
			Help:        "Number of open socket connections",
			ConstLabels: o.Labels,
		}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "bitchat_presence_online",
			Help:        "Number of identities with a live presence entry",
			ConstLabels: o.Labels,
		}),
		eventsIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "bitchat_socket_events_total",
			Help:        "Inbound socket events by name",
			ConstLabels: o.Labels,
		}, []string{"event"}),
		eventsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "bitchat_socket_event_errors_total",
			Help:        "Inbound socket events answered with message-error",
			ConstLabels: o.Labels,
		}, []string{"event"}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "bitchat_socket_pushes_total",
			Help:        "Outbound events queued to a connection",
			ConstLabels: o.Labels,
		}, []string{"event"}),
		pushesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "bitchat_socket_pushes_dropped_total",
			Help:        "Outbound events dropped because the connection was gone or saturated",
			ConstLabels: o.Labels,
		}, []string{"event"}),
	}
}

func (m *inst) Register(r prometheus.Registerer) {
	r.MustRegister(
		m.connections,
		m.online,
		m.eventsIn,
		m.eventsFailed,
		m.pushes,
		m.pushesDropped,
	)
}

func (m *inst) ConnectionOpened() {
	m.connections.Inc()
}

func (m *inst) ConnectionClosed() {
	m.connections.Dec()
}

func (m *inst) EventReceived(event string) {
	m.eventsIn.WithLabelValues(event).Inc()
}

func (m *inst) EventFailed(event string) {
	m.eventsFailed.WithLabelValues(event).Inc()
}

func (m *inst) PushSent(event string) {
	m.pushes.WithLabelValues(event).Inc()
}

func (m *inst) PushDropped(event string) {
	m.pushesDropped.WithLabelValues(event).Inc()
}

func (m *inst) SetOnline(n int) {
	m.online.Set(float64(n))
}
