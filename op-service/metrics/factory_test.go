package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestFactoryDocumentsMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	factory := With(registry)

	c := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "test",
		Name:      "claims_total",
		Help:      "claims",
	}, []string{"direction"})
	g := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "test",
		Name:      "anchored",
		Help:      "anchored",
	})

	c.WithLabelValues("l1-to-l2").Inc()
	g.Set(3)
	require.Equal(t, 1.0, testutil.ToFloat64(c.WithLabelValues("l1-to-l2")))
	require.Equal(t, 3.0, testutil.ToFloat64(g))

	docs := factory.Document()
	require.Len(t, docs, 2)
	require.Equal(t, "test_anchored", docs[0].Name)
	require.Equal(t, "gauge", docs[0].Type)
	require.Equal(t, "test_claims_total", docs[1].Name)
	require.Equal(t, []string{"direction"}, docs[1].Labels)
}

func TestCLIConfigCheck(t *testing.T) {
	cfg := DefaultCLIConfig()
	require.NoError(t, cfg.Check())
	cfg.Enabled = true
	cfg.ListenPort = 70000
	require.ErrorIs(t, cfg.Check(), ErrInvalidPort)
}
