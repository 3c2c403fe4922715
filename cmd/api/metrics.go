package main

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	reg      *prometheus.Registry
	requests *prometheus.CounterVec
	latency  prometheus.Histogram
	pairs    prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fast",
			Name:      "rank_requests_total",
			Help:      "Ranking requests by HTTP status.",
		}, []string{"code"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fast",
			Name:      "rank_duration_seconds",
			Help:      "Time spent scoring all pairs of a request.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		pairs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fast",
			Name:      "pairs_scored_total",
			Help:      "Attribute pairs scored.",
		}),
	}
	m.reg.MustRegister(m.requests, m.latency, m.pairs)
	return m
}

// countStatus records the final status of every request it wraps.
func (m *metrics) countStatus(c *gin.Context) {
	c.Next()
	m.requests.WithLabelValues(strconv.Itoa(c.Writer.Status())).Inc()
}

func (m *metrics) handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
}
