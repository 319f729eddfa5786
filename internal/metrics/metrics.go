// Package metrics holds the domain collectors. HTTP collectors live in middleware.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	MatchesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pys_matches_created_total",
			Help: "Match requests created, by kind",
		},
		[]string{"kind"},
	)
	MatchTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pys_match_transitions_total",
			Help: "Lifecycle transitions applied to match requests",
		},
		[]string{"transition"},
	)
	ProximityChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pys_proximity_checks_total",
			Help: "Proximity check-ins, by outcome",
		},
		[]string{"outcome"},
	)
	ResultClaims = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pys_result_claims_total",
			Help: "Result claims, by reconciliation outcome",
		},
		[]string{"outcome"},
	)
	MessagesSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pys_messages_sent_total",
			Help: "Chat messages stored, by encryption",
		},
		[]string{"encrypted"},
	)
	PostsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pys_posts_created_total",
			Help: "Feed posts created, by media type",
		},
		[]string{"media_type"},
	)
	Uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pys_uploads_total",
			Help: "Upload proxy requests",
		},
		[]string{"kind", "outcome"},
	)
	RadarCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pys_radar_cache_total",
			Help: "Radar cache lookups",
		},
		[]string{"result"},
	)
	RedisErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pys_redis_errors_total",
			Help: "Redis command failures, by command",
		},
		[]string{"command"},
	)
)

var registerOnce sync.Once

// Register adds the domain collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			MatchesCreated,
			MatchTransitions,
			ProximityChecks,
			ResultClaims,
			MessagesSent,
			PostsCreated,
			Uploads,
			RadarCache,
			RedisErrors,
		)
	})
}
