package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(pollsTotal, iterationErrorsTotal, notificationsSentTotal, cursorTimestamp)
}

var (
	pollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homework_polls_total",
			Help: "Poll iterations, labeled by result.",
		},
		[]string{"result"}, // 'ok', 'error'
	)

	iterationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homework_iteration_errors_total",
			Help: "Errors seen while polling, labeled by kind.",
		},
		[]string{"kind"}, // 'fetch', 'format', 'send', 'other'
	)

	notificationsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "homework_notifications_sent_total",
			Help: "Status messages delivered to the chat, labeled by homework status.",
		},
		[]string{"status"},
	)

	cursorTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "homework_poll_cursor_timestamp_seconds",
			Help: "Current from_date cursor.",
		},
	)
)

func IncPoll(result string) {
	pollsTotal.WithLabelValues(norm(result)).Inc()
}

func IncIterationError(kind string) {
	iterationErrorsTotal.WithLabelValues(norm(kind)).Inc()
}

// IncNotificationSent counts a delivery. Unknown or missing statuses are folded into "unknown".
func IncNotificationSent(status string) {
	s := norm(status)
	switch s {
	case "reviewing", "rejected", "approved":
	default:
		s = "unknown"
	}
	notificationsSentTotal.WithLabelValues(s).Inc()
}

func SetCursor(ts int64) {
	cursorTimestamp.Set(float64(ts))
}
