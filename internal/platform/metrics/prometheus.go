package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vaxtrack"

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	schedulesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedules_generated_total",
			Help:      "Schedule generation requests by outcome (created, existing)",
		},
		[]string{"outcome"},
	)

	vaccineRecordsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vaccine_records_created_total",
			Help:      "Total number of vaccine records written by schedule generation",
		},
	)

	vaccinesCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vaccines_completed_total",
			Help:      "Total number of doses marked completed",
		},
	)

	malformedRecords = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_records_total",
			Help:      "Records read without a usable due date",
		},
	)

	remindersActive = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_active_total",
			Help:      "Active reminders returned to callers",
		},
	)

	settingsWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_settings_writes_total",
			Help:      "Reminder settings writes by operation",
		},
		[]string{"operation"},
	)
)

// Middleware records request counts and latencies. The route pattern is
// used as the path label to keep cardinality bounded.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method
			httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler exposes the default registry for scraping.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}

// ScheduleGenerated records a generation call. written is the number of
// records persisted; zero means the child already had a schedule.
func ScheduleGenerated(written int) {
	if written == 0 {
		schedulesGenerated.WithLabelValues("existing").Inc()
		return
	}
	schedulesGenerated.WithLabelValues("created").Inc()
	vaccineRecordsCreated.Add(float64(written))
}

// VaccineCompleted increments the completion counter.
func VaccineCompleted() { vaccinesCompleted.Inc() }

// MalformedRecord increments the malformed-record counter.
func MalformedRecord() { malformedRecords.Inc() }

// RemindersReturned adds n to the active-reminder counter.
func RemindersReturned(n int) { remindersActive.Add(float64(n)) }

// SettingsWritten records a settings write for operation ("merge", "toggle").
func SettingsWritten(operation string) { settingsWrites.WithLabelValues(operation).Inc() }
