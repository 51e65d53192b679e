package metrics

import (
	"encoding/json"

	"github.com/prometheus/client_golang/prometheus"
	gocl "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

// Snapshot is a gathered registry, searched by tests for the series they expect.
type Snapshot struct {
	t        require.TestingT
	families map[string]*gocl.MetricFamily
}

// Gather collects every family currently registered in reg.
func Gather(t require.TestingT, reg *prometheus.Registry) *Snapshot {
	families, err := reg.Gather()
	require.NoError(t, err, "gather metrics")
	s := &Snapshot{t: t, families: make(map[string]*gocl.MetricFamily, len(families))}
	for _, f := range families {
		s.families[f.GetName()] = f
	}
	return s
}

// Series returns the single series of the named family carrying all of the given labels.
// The test fails unless exactly one series matches.
func (s *Snapshot) Series(name string, labels map[string]string) *gocl.Metric {
	fam, ok := s.families[name]
	require.True(s.t, ok, "no metric family %q", name)
	var found *gocl.Metric
	for _, m := range fam.Metric {
		if !matches(m, labels) {
			continue
		}
		require.Nil(s.t, found, "labels %v match more than one series of %q", labels, name)
		found = m
	}
	require.NotNil(s.t, found, "no series of %q with labels %v", name, labels)
	return found
}

func (s *Snapshot) Counter(name string, labels map[string]string) float64 {
	return s.Series(name, labels).GetCounter().GetValue()
}

func (s *Snapshot) Gauge(name string, labels map[string]string) float64 {
	return s.Series(name, labels).GetGauge().GetValue()
}

// Observations returns the sample count of a histogram series.
func (s *Snapshot) Observations(name string, labels map[string]string) uint64 {
	return s.Series(name, labels).GetHistogram().GetSampleCount()
}

// Dump renders the snapshot as indented json.
func (s *Snapshot) Dump() string {
	out, _ := json.MarshalIndent(s.families, "", "  ")
	return string(out)
}

func matches(m *gocl.Metric, labels map[string]string) bool {
	for k, v := range labels {
		found := false
		for _, lab := range m.GetLabel() {
			if lab.GetName() == k && lab.GetValue() == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
