package cloud

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "epx_cloud_submissions_total",
		Help: "Number of run submissions attempted against the Epistemix cloud runner, by outcome.",
	}, []string{"outcome"})

	submissionLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "epx_cloud_submission_latency_seconds",
		Help:    "Latency of a single run submission request, success or failure.",
		Buckets: prometheus.DefBuckets,
	})
)

// RegisterMetrics registers this package's submission metrics with reg. A
// nil reg is a no-op, so callers that don't care about metrics can skip
// registration entirely.
func RegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		return
	}
	reg.MustRegister(submissionsTotal, submissionLatency)
}

// observeSubmission records the outcome and latency of one Execute call.
func observeSubmission(start time.Time, err error) {
	submissionLatency.Observe(time.Since(start).Seconds())
	submissionsTotal.WithLabelValues(outcomeLabel(err)).Inc()
}

func outcomeLabel(err error) string {
	switch err.(type) {
	case nil:
		return "success"
	case *RunConfigError:
		return "run_config_error"
	case *UnauthorizedUserError:
		return "unauthorized"
	case *RemoteServerError:
		return "remote_server_error"
	case *RemoteUnavailableError:
		return "remote_unavailable"
	default:
		return "other"
	}
}
