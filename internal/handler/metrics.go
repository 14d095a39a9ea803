package handler

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/firdavsDev/video-streamer-go/internal/queue"
)

// Metrics holds all Prometheus collectors for the video backend.
var Metrics = struct {
	UploadsTotal       *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	DBPoolActive       prometheus.GaugeFunc
	DBPoolIdle         prometheus.GaugeFunc
	RequestsInFlight   prometheus.Gauge
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	BytesStreamed      prometheus.Counter
	ProcessingDuration prometheus.Histogram
	QueueDepth         prometheus.GaugeFunc
	DeadTasks          prometheus.GaugeFunc
}{}

// InitMetrics registers all Prometheus metrics. Call once at startup.
func InitMetrics(pool *pgxpool.Pool, tasks *queue.Client) {
	Metrics.UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "videostream_uploads_total",
			Help: "Total video uploads, by outcome.",
		},
		[]string{"outcome"},
	)

	Metrics.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "videostream_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	Metrics.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "videostream_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	Metrics.CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "videostream_cache_hits_total",
			Help: "Total Redis cache hits.",
		},
	)

	Metrics.CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "videostream_cache_misses_total",
			Help: "Total Redis cache misses.",
		},
	)

	Metrics.BytesStreamed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "videostream_bytes_streamed_total",
			Help: "Total bytes sent from the streaming endpoint.",
		},
	)

	Metrics.ProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "videostream_processing_duration_seconds",
			Help:    "Duration of background video processing tasks.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// DB pool gauges read live stats from pgxpool.
	if pool != nil {
		Metrics.DBPoolActive = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "videostream_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 {
				return float64(pool.Stat().AcquiredConns())
			},
		)

		Metrics.DBPoolIdle = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "videostream_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 {
				return float64(pool.Stat().IdleConns())
			},
		)

		prometheus.MustRegister(Metrics.DBPoolActive)
		prometheus.MustRegister(Metrics.DBPoolIdle)
	}

	// Queue gauges poll Redis on scrape with a short timeout.
	if tasks != nil {
		Metrics.QueueDepth = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "videostream_task_queue_depth",
				Help: "Number of tasks waiting in the processing queue.",
			},
			func() float64 {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				n, err := tasks.Depth(ctx)
				if err != nil {
					return -1
				}
				return float64(n)
			},
		)

		Metrics.DeadTasks = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "videostream_task_dead_total",
				Help: "Number of tasks in the dead letter list.",
			},
			func() float64 {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				n, err := tasks.DeadCount(ctx)
				if err != nil {
					return -1
				}
				return float64(n)
			},
		)

		prometheus.MustRegister(Metrics.QueueDepth)
		prometheus.MustRegister(Metrics.DeadTasks)
	}

	prometheus.MustRegister(
		Metrics.UploadsTotal,
		Metrics.RequestDuration,
		Metrics.RequestsInFlight,
		Metrics.CacheHits,
		Metrics.CacheMisses,
		Metrics.BytesStreamed,
		Metrics.ProcessingDuration,
	)
}

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method into owned strings BEFORE c.Next(): Fiber
		// returns slices backed by the fasthttp buffer which can be reused
		// or overwritten by handlers (especially fasthttpadaptor).
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint normalizes paths to avoid cardinality explosion.
func sanitizeEndpoint(path string) string {
	const videosPrefix = "/api/v1/videos/"
	const usersPrefix = "/api/v1/auth/users/"

	switch {
	case strings.HasPrefix(path, usersPrefix) && len(path) > len(usersPrefix):
		return usersPrefix + ":username"
	case strings.HasPrefix(path, videosPrefix) && len(path) > len(videosPrefix):
		rest := path[len(videosPrefix):]
		for _, static := range []string{"upload", "search/", "batch/", "dashboard/"} {
			if rest == strings.TrimSuffix(static, "/") || strings.HasPrefix(rest, static) {
				return path
			}
		}
		if i := strings.Index(rest, "/"); i >= 0 {
			return videosPrefix + ":videoId/" + rest[i+1:]
		}
		return videosPrefix + ":videoId"
	default:
		return path
	}
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
