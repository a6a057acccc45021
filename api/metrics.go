package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one server instance on its own registry.
type Metrics struct {
	Registry *prometheus.Registry

	// HTTPRequests counts requests by method, route template and status.
	HTTPRequests *prometheus.CounterVec

	// HTTPDuration measures request latency by method and route template.
	HTTPDuration *prometheus.HistogramVec

	// Launches counts launch attempts.
	// Labels:
	//   - outcome: "launched", "not_found", "forbidden", "error"
	Launches *prometheus.CounterVec
}

// NewMetrics registers the server collectors. gamesIndexed and igdbBreakerOpen
// are sampled on scrape; either may be nil.
func NewMetrics(gamesIndexed func() int, igdbBreakerOpen func() bool) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	m := &Metrics{
		Registry: reg,
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamelib_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gamelib_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		Launches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gamelib_launches_total",
				Help: "Total number of game launch attempts",
			},
			[]string{"outcome"},
		),
	}

	if gamesIndexed != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "gamelib_games_indexed",
			Help: "Number of games in the in-memory index",
		}, func() float64 { return float64(gamesIndexed()) })
	}
	if igdbBreakerOpen != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "gamelib_igdb_circuit_open",
			Help: "1 when the IGDB circuit breaker is open",
		}, func() float64 {
			if igdbBreakerOpen() {
				return 1
			}
			return 0
		})
	}
	return m
}

// Middleware records request count and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) countLaunch(outcome string) {
	if m == nil {
		return
	}
	m.Launches.WithLabelValues(outcome).Inc()
}
