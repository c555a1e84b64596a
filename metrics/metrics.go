// Package metrics exports the loop state to prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.com/lologarithm/climatesim/climate"
)

const namespace = "climatesim"

var modes = []climate.Mode{climate.ModeNormal, climate.ModeHot, climate.ModeCold}

// Metrics is a view that keeps gauges of the latest tick on its own registry.
type Metrics struct {
	reg *prometheus.Registry

	ATS        prometheus.Gauge
	WaterValve prometheus.Gauge
	Fan        prometheus.Gauge
	Mode       *prometheus.GaugeVec
	Ticks      prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		ATS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ats_celsius",
			Help:      "Last temperature reading fed to the controller.",
		}),
		WaterValve: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "water_valve_percent",
			Help:      "Water valve flow commanded by the controller.",
		}),
		Fan: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fan_intensity_percent",
			Help:      "Fan intensity derived from the valve flow.",
		}),
		Mode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mode",
			Help:      "1 for the current controller mode, 0 for the others.",
		}, []string{"mode"}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Ticks run since start.",
		}),
	}
	m.reg.MustRegister(m.ATS, m.WaterValve, m.Fan, m.Mode, m.Ticks)
	return m
}

func (m *Metrics) Display(s climate.Snapshot) error {
	m.ATS.Set(float64(s.ATS))
	m.WaterValve.Set(float64(s.WaterValve))
	m.Fan.Set(float64(s.Fan))
	for _, md := range modes {
		v := 0.0
		if md == s.Mode {
			v = 1
		}
		m.Mode.WithLabelValues(md.String()).Set(v)
	}
	m.Ticks.Inc()
	return nil
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
