package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medtrack",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Number of HTTP requests handled, by method, route and status.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "medtrack",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency, by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func metricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)

			route := ctx.Path() // route pattern, not raw URL; keeps cardinality bounded
			method := ctx.Request().Method
			status := ctx.Response().Status
			if err != nil {
				if herr, ok := err.(*echo.HTTPError); ok {
					status = herr.Code
				}
			}

			requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
