package metrics

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// DocumentedMetric describes a registered metric, for CLI documentation output.
type DocumentedMetric struct {
	Type   string   `json:"type"`
	Name   string   `json:"name"`
	Help   string   `json:"help"`
	Labels []string `json:"labels"`
}

// Factory creates and registers metrics, and remembers what it registered so it can be documented.
type Factory interface {
	NewCounter(opts prometheus.CounterOpts) prometheus.Counter
	NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec
	NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge
	NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec
	NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec
	Document() []DocumentedMetric
}

type documentor struct {
	mu       sync.Mutex
	registry *prometheus.Registry
	metrics  []DocumentedMetric
}

// With returns a Factory that registers all metrics with the given registry.
func With(registry *prometheus.Registry) Factory {
	return &documentor{registry: registry}
}

// NewRegistry creates a registry with the default process and Go runtime collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewGoCollector())
	return registry
}

func fullName(ns, subsystem, name string) string {
	return prometheus.BuildFQName(ns, subsystem, name)
}

func (d *documentor) record(typ, name, help string, labels []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.metrics = append(d.metrics, DocumentedMetric{Type: typ, Name: name, Help: help, Labels: labels})
}

func (d *documentor) NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	d.record("counter", fullName(opts.Namespace, opts.Subsystem, opts.Name), opts.Help, nil)
	c := prometheus.NewCounter(opts)
	d.registry.MustRegister(c)
	return c
}

func (d *documentor) NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	d.record("counter", fullName(opts.Namespace, opts.Subsystem, opts.Name), opts.Help, labelNames)
	c := prometheus.NewCounterVec(opts, labelNames)
	d.registry.MustRegister(c)
	return c
}

func (d *documentor) NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	d.record("gauge", fullName(opts.Namespace, opts.Subsystem, opts.Name), opts.Help, nil)
	g := prometheus.NewGauge(opts)
	d.registry.MustRegister(g)
	return g
}

func (d *documentor) NewGaugeVec(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	d.record("gauge", fullName(opts.Namespace, opts.Subsystem, opts.Name), opts.Help, labelNames)
	g := prometheus.NewGaugeVec(opts, labelNames)
	d.registry.MustRegister(g)
	return g
}

func (d *documentor) NewHistogramVec(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	d.record("histogram", fullName(opts.Namespace, opts.Subsystem, opts.Name), opts.Help, labelNames)
	h := prometheus.NewHistogramVec(opts, labelNames)
	d.registry.MustRegister(h)
	return h
}

// Document returns the registered metrics, sorted by name.
func (d *documentor) Document() []DocumentedMetric {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DocumentedMetric, len(d.metrics))
	copy(out, d.metrics)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RegistryMetricer is implemented by metricers that can be served by a metrics server.
type RegistryMetricer interface {
	Registry() *prometheus.Registry
}
