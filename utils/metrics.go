package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Check-in outcomes exported for alerting on geofence/face rejection spikes.
var (
	CheckInTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "internhub_checkin_total",
		Help: "Attendance check-in attempts by outcome.",
	}, []string{"result"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "internhub_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "internhub_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

// Check-in result label values.
const (
	CheckInAccepted      = "accepted"
	CheckInRejectedGeo   = "geofence"
	CheckInRejectedFace  = "face_mismatch"
	CheckInRejectedDupe  = "duplicate"
	CheckInRejectedOther = "error"
)
