package middleware

import (
	"errors"
	"strconv"
	"time"

	"sales-service/internal/apperror"
	"sales-service/prometheus"

	"github.com/labstack/echo/v4"
)

// MetricsMiddleware records request count and latency per route template.
// When the error has not been rendered yet its status is derived from the error.
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(statusOf(c, err))
		method := c.Request().Method

		prometheus.HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
		prometheus.HttpRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())

		return err
	}
}

func statusOf(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return apperror.As(err).Status()
}
