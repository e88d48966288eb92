package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Dashboard refresh metrics
	RefreshTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gridtrack_refresh_total",
		Help: "Total number of dashboard data refreshes",
	})
	RefreshErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gridtrack_refresh_errors_total",
		Help: "Total number of dashboard refreshes that failed to read the data",
	})
	RefreshDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gridtrack_refresh_duration_seconds",
		Help:    "Duration of reading the data and computing the charts in seconds",
		Buckets: prometheus.DefBuckets,
	})
	SamplesLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gridtrack_samples_loaded",
		Help: "Number of samples in the last successful refresh",
	})
	CutsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gridtrack_cuts_loaded",
		Help: "Number of cuts in the last successful refresh",
	})

	// Generator metrics
	SamplesWrittenTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gridtrack_samples_written_total",
		Help: "Total number of samples produced by the generator",
	})

	registerOnce sync.Once
)

func init() {
	InitMetrics()
}

// InitMetrics registers all Prometheus collectors used by the application.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RefreshTotal,
			RefreshErrorsTotal,
			RefreshDurationSeconds,
			SamplesLoaded,
			CutsLoaded,
			SamplesWrittenTotal,
		)
	})
}

// Handler returns an HTTP handler that exposes the registered Prometheus metrics.
func Handler() http.Handler {
	InitMetrics()
	return promhttp.Handler()
}

// ObserveRefresh tracks a completed refresh. A failed refresh leaves the
// loaded gauges at their previous values.
func ObserveRefresh(duration time.Duration, samples, cuts int, err error) {
	if duration < 0 {
		duration = 0
	}

	RefreshTotal.Inc()
	RefreshDurationSeconds.Observe(duration.Seconds())

	if err != nil {
		RefreshErrorsTotal.Inc()
		return
	}
	SamplesLoaded.Set(float64(samples))
	CutsLoaded.Set(float64(cuts))
}

// SamplesWritten increments the generator sample counter.
func SamplesWritten(n int) {
	SamplesWrittenTotal.Add(float64(n))
}
