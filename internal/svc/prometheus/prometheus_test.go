package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(Options{Labels: prometheus.Labels{"pod": "test"}})

	r := prometheus.NewRegistry()
	m.Register(r)

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed()
	m.EventReceived("send-message")
	m.PushDropped("receive-message")
	m.SetOnline(3)

	i := m.(*inst)
	require.Equal(t, 1.0, testutil.ToFloat64(i.connections))
	require.Equal(t, 3.0, testutil.ToFloat64(i.online))
	require.Equal(t, 1.0, testutil.ToFloat64(i.eventsIn.WithLabelValues("send-message")))
	require.Equal(t, 1.0, testutil.ToFloat64(i.pushesDropped.WithLabelValues("receive-message")))
}
