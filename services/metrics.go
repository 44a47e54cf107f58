package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	relayEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_total",
			Help: "Total number of relay events delivered",
		},
		[]string{"event"},
	)

	relayMalformedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_malformed_events_total",
			Help: "Total number of malformed relay events dropped",
		},
	)

	notificationsRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_recorded_total",
			Help: "Total number of notification records created",
		},
		[]string{"kind"},
	)

	notificationFanoutFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_fanout_fallbacks_total",
			Help: "Live notification pushes delivered directly because the broker was unavailable",
		},
	)
)
