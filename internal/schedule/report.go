package schedule

import (
	"time"

	"github.com/rs/zerolog"

	"clinic-dashboard-server/internal/metrics"
	"clinic-dashboard-server/internal/models"
	"clinic-dashboard-server/internal/store"
)

// Reporter receives the outcome of every store call made by the dashboard.
type Reporter interface {
	Report(operation string, id models.ID, elapsed time.Duration, err error)
}

type logReporter struct {
	logger  zerolog.Logger
	metrics *metrics.DashboardMetrics
}

// NewReporter logs failures with zerolog and counts every outcome.
func NewReporter(logger zerolog.Logger, m *metrics.DashboardMetrics) Reporter {
	return &logReporter{logger: logger, metrics: m}
}

func (r *logReporter) Report(operation string, id models.ID, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(store.KindOf(err))
		r.logger.Error().Err(err).
			Str("operation", operation).
			Str("appointment_id", id.String()).
			Dur("elapsed", elapsed).
			Msg("appointment store call failed")
	} else {
		r.logger.Debug().
			Str("operation", operation).
			Str("appointment_id", id.String()).
			Dur("elapsed", elapsed).
			Msg("appointment store call")
	}
	r.metrics.ObserveOperation(operation, outcome, elapsed.Seconds())
}

type nopReporter struct{}

func (nopReporter) Report(string, models.ID, time.Duration, error) {}
