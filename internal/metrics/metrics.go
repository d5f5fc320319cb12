// Package metrics provides Prometheus instrumentation for the moderation
// bot: message throughput, violation detections, and moderation action
// counters, labeled by chat where the per-chat breakdown is useful.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesProcessed counts every message scanned for violations.
	MessagesProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_messages_processed_total",
		Help: "Total number of messages scanned for forbidden words",
	}, []string{"chat_id"})

	// ViolationsDetected counts messages that contained forbidden words.
	ViolationsDetected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_violations_detected_total",
		Help: "Total number of messages containing forbidden words",
	}, []string{"chat_id"})

	// WarningsIssued counts warnings handed out to users.
	WarningsIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_warnings_issued_total",
		Help: "Total number of warnings issued",
	}, []string{"chat_id"})

	// ModerationActions counts state transitions, labeled by action:
	// "ban", "unban", "mute", "unmute", "kick".
	ModerationActions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_moderation_actions_total",
		Help: "Total number of moderation state transitions",
	}, []string{"action", "chat_id"})

	// StorageErrors counts durable-store failures, labeled by path:
	// "read" failures degrade to defaults, "write" failures surface.
	StorageErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "modbot_storage_errors_total",
		Help: "Total number of durable-store failures",
	}, []string{"path"})
)

func init() {
	prometheus.MustRegister(
		MessagesProcessed,
		ViolationsDetected,
		WarningsIssued,
		ModerationActions,
		StorageErrors,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
