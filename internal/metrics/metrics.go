// Package metrics holds the Prometheus counters exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CommentsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piperblog_comments_submitted_total",
			Help: "Comment submissions by result (accepted, spam_check_failed, invalid).",
		},
		[]string{"result"},
	)

	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piperblog_login_attempts_total",
			Help: "Login attempts by result (success, failure, limited).",
		},
		[]string{"result"},
	)

	PostsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "piperblog_posts_saved_total",
			Help: "Post writes by operation.",
		},
		[]string{"operation"},
	)

	CSRFRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "piperblog_csrf_rejected_total",
			Help: "Requests rejected because of a missing or wrong CSRF token.",
		},
	)
)

func init() {
	prometheus.MustRegister(CommentsSubmitted, LoginAttempts, PostsSaved, CSRFRejected)
}
