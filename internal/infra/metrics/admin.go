package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	broadcastSends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_broadcast_sends_total",
			Help: "Broadcast deliveries, by result.",
		},
		[]string{"result"},
	)

	settingsToggles = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "admin_settings_toggles_total",
			Help: "Per-group moderation toggle changes.",
		},
	)
)

func init() {
	register(broadcastSends, settingsToggles)
}

func IncBroadcastSend(ok bool) {
	result := "failed"
	if ok {
		result = "sent"
	}
	broadcastSends.WithLabelValues(result).Inc()
}

func IncSettingsToggle() { settingsToggles.Inc() }
